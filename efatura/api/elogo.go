package api

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/go-faster/errors"

	"github.com/denizsoft/go-efatura/efatura/model"
	"github.com/denizsoft/go-efatura/efatura/soap"
)

// elogo speaks the second provider's dialect of the session protocol.
// The call shape is the same (login, transfer, status, list, logout)
// but the action and field vocabulary differs, which is why the
// orchestrator only ever sees the Client interface.
type elogo struct {
	soap     soap.Client
	username string
	password string
}

// NewELogo creates the eLogo integration service client.
func NewELogo(endpoint, username, password string, timeout time.Duration) Client {
	return &elogo{
		soap:     newSoap(endpoint, timeout),
		username: username,
		password: password,
	}
}

func (e *elogo) Name() string { return "elogo" }

func (e *elogo) Login(ctx context.Context) (string, error) {
	req := soap.NewRequest("LoginUser")
	soap.Text(req, "userName", e.username)
	soap.Text(req, "password", e.password)

	res, err := e.soap.Call(ctx, "LoginUser", req)
	if err != nil {
		return "", &model.AuthError{Provider: e.Name(), Message: "endpoint unreachable or rejected login", Cause: err}
	}

	session := res.Text("SessionID")
	if session == "" {
		session = res.Text("SessionCode")
	}
	if session == "" {
		return "", &model.AuthError{Provider: e.Name(), Message: "no session identifier in login response"}
	}
	return session, nil
}

func (e *elogo) Logout(ctx context.Context, session string) {
	req := soap.NewRequest("LogoutUser")
	soap.Text(req, "sessionID", session)

	if _, err := e.soap.Call(ctx, "LogoutUser", req); err != nil {
		logger.WithError(err).Warn("elogo logout failed, session may leak")
	}
}

func (e *elogo) SubmitDocument(ctx context.Context, session, fileName string, data []byte, contentHash string, meta model.SubmitMetadata) (*model.SubmitResult, error) {
	req := soap.NewRequest("SendDocument")
	soap.Text(req, "sessionID", session)

	doc := req.CreateElement("tem:document")
	soap.Text(doc, "FileName", fileName)
	soap.Text(doc, "DataType", fileDataTypeXMLInZip)
	soap.Text(doc, "BinaryData", base64.StdEncoding.EncodeToString(data))
	soap.Text(doc, "Hash", contentHash)
	soap.Text(doc, "DocumentProfile", string(meta.Profile))
	if meta.Profile != model.ProfileEArchive {
		soap.Text(doc, "ReceiverAlias", meta.CustomerAlias)
	}

	res, err := e.soap.Call(ctx, "SendDocument", req)
	if err != nil {
		return nil, err
	}

	return &model.SubmitResult{
		OperationCompleted: res.Bool("Result"),
		TransferID:         res.Text("EnvelopeUUID"),
		Description:        res.Text("Message"),
		ErrorCode:          res.Int("ErrorCode"),
		ErrorMessage:       res.Text("ErrorDescription"),
	}, nil
}

func (e *elogo) QueryStatus(ctx context.Context, session, transferID string) (*model.TransferStatusResult, error) {
	req := soap.NewRequest("GetDocumentStatus")
	soap.Text(req, "sessionID", session)
	soap.Text(req, "envelopeUUID", transferID)

	res, err := e.soap.Call(ctx, "GetDocumentStatus", req)
	if err != nil {
		return nil, err
	}

	return &model.TransferStatusResult{
		OperationCompleted: res.Bool("Result"),
		StateCode:          res.Int("DocumentState"),
		StateDescription:   res.Text("DocumentStateDescription"),
		ProviderNumber:     res.Text("DocumentNumber"),
		ErrorCode:          res.Int("ErrorCode"),
		ErrorMessage:       res.Text("ErrorDescription"),
	}, nil
}

func (e *elogo) QueryStatusBatch(ctx context.Context, session string, transferIDs []string) ([]model.TransferStatusResult, error) {
	if len(transferIDs) > BatchLimit {
		return nil, errors.Errorf("batch query limited to %d documents, got %d", BatchLimit, len(transferIDs))
	}
	out := make([]model.TransferStatusResult, 0, len(transferIDs))
	for _, id := range transferIDs {
		st, err := e.QueryStatus(ctx, session, id)
		if err != nil {
			return out, err
		}
		out = append(out, *st)
	}
	return out, nil
}

func (e *elogo) QueryDocument(ctx context.Context, session, documentID string) (*model.DocumentStatusResult, error) {
	req := soap.NewRequest("GetOutboxDocumentStatus")
	soap.Text(req, "sessionID", session)
	soap.Text(req, "documentUUID", documentID)

	res, err := e.soap.Call(ctx, "GetOutboxDocumentStatus", req)
	if err != nil {
		return nil, err
	}

	return &model.DocumentStatusResult{
		StateCode:        res.Int("DocumentState"),
		StateName:        res.Text("DocumentStateName"),
		StateDescription: res.Text("DocumentStateDescription"),
		ProviderNumber:   res.Text("DocumentNumber"),
		Profile:          res.Text("DocumentProfile"),
		EnvelopeID:       res.Text("EnvelopeUUID"),
		AnswerStateCode:  res.Int("AnswerState"),
		AnswerTypeCode:   res.Int("AnswerType"),
	}, nil
}

func (e *elogo) ListDocuments(ctx context.Context, session string, rng model.DateRange, dir model.ListDirection) ([]model.DocumentSummary, error) {
	action := "GetOutboxDocumentList"
	if dir == model.DirectionIncoming {
		action = "GetInboxDocumentList"
	}

	req := soap.NewRequest(action)
	soap.Text(req, "sessionID", session)
	if rng.Start.IsZero() {
		soap.Nil(req, "beginDate")
	} else {
		soap.Text(req, "beginDate", rng.Start.Format("2006-01-02"))
	}
	if rng.End.IsZero() {
		soap.Nil(req, "endDate")
	} else {
		soap.Text(req, "endDate", rng.End.Format("2006-01-02"))
	}

	res, err := e.soap.Call(ctx, action, req)
	if err != nil {
		return nil, err
	}

	var out []model.DocumentSummary
	res.Each("DocumentInfo", func(item *soap.Item) {
		out = append(out, model.DocumentSummary{
			DocumentID:     item.Text("DocumentUUID"),
			ProviderNumber: item.Text("DocumentNumber"),
			Profile:        item.Text("DocumentProfile"),
			IssueDate:      item.Text("DocumentDate"),
			Payable:        item.Text("PayableAmount"),
			Currency:       item.Text("CurrencyCode"),
			CustomerName:   item.Text("ReceiverTitle"),
			CustomerTaxID:  item.Text("ReceiverIdentifier"),
		})
	})
	return out, nil
}

func (e *elogo) CancelDocument(ctx context.Context, session, legalNumber string, at time.Time) error {
	req := soap.NewRequest("CancelDocument")
	soap.Text(req, "sessionID", session)
	soap.Text(req, "documentNumber", legalNumber)
	soap.Text(req, "cancelDate", at.Format(time.RFC3339))

	res, err := e.soap.Call(ctx, "CancelDocument", req)
	if err != nil {
		return err
	}
	if !res.Bool("Result") {
		msg := res.Text("Message")
		if msg == "" {
			msg = "cancel was not accepted"
		}
		return &model.TransferError{Code: soap.CodeCancelFault, Message: msg}
	}
	return nil
}
