package api

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/go-faster/errors"

	"github.com/denizsoft/go-efatura/efatura/model"
	"github.com/denizsoft/go-efatura/efatura/soap"
)

// fileDataTypeXMLInZip is the transfer payload type for a single XML
// document inside a ZIP container.
const fileDataTypeXMLInZip = "XML_INZIP"

type veriban struct {
	soap     soap.Client
	username string
	password string
}

// NewVeriban creates the Veriban integration service client.
func NewVeriban(endpoint, username, password string, timeout time.Duration) Client {
	return &veriban{
		soap:     newSoap(endpoint, timeout),
		username: username,
		password: password,
	}
}

func (v *veriban) Name() string { return "veriban" }

func (v *veriban) Login(ctx context.Context) (string, error) {
	req := soap.NewRequest("Login")
	soap.Text(req, "userName", v.username)
	soap.Text(req, "password", v.password)

	res, err := v.soap.Call(ctx, "Login", req)
	if err != nil {
		return "", &model.AuthError{Provider: v.Name(), Message: "endpoint unreachable or rejected login", Cause: err}
	}

	session := res.Text("SessionCode")
	if session == "" {
		return "", &model.AuthError{Provider: v.Name(), Message: "no session code in login response"}
	}
	return session, nil
}

func (v *veriban) Logout(ctx context.Context, session string) {
	req := soap.NewRequest("Logout")
	soap.Text(req, "sessionCode", session)

	if _, err := v.soap.Call(ctx, "Logout", req); err != nil {
		logger.WithError(err).Warn("veriban logout failed, session may leak")
	}
}

func (v *veriban) SubmitDocument(ctx context.Context, session, fileName string, data []byte, contentHash string, meta model.SubmitMetadata) (*model.SubmitResult, error) {
	req := soap.NewRequest("TransferSalesInvoiceFile")
	soap.Text(req, "sessionCode", session)

	file := req.CreateElement("tem:transferFile")
	soap.Text(file, "FileNameWithExtension", fileName)
	soap.Text(file, "FileDataType", fileDataTypeXMLInZip)
	soap.Text(file, "BinaryData", base64.StdEncoding.EncodeToString(data))
	soap.Text(file, "BinaryDataHash", contentHash)

	if meta.Profile == model.ProfileEArchive {
		// Archive transfer extends the base file with delivery fields;
		// element order follows the service schema.
		if len(meta.MailAddresses) > 0 {
			mails := file.CreateElement("tem:ReceiverMailTargetAddresses")
			for _, mail := range meta.MailAddresses {
				soap.Text(mails, "string", mail)
			}
		}
		if meta.GsmNumber != "" {
			soap.Text(file, "ReceiverGsmNo", meta.GsmNumber)
		}
		transport := meta.TransportationType
		if transport == "" {
			transport = "ELEKTRONIK"
		}
		soap.Text(file, "InvoiceTransportationType", transport)
		soap.Bool(file, "IsInvoiceCreatedAtDelivery", false)
		soap.Bool(file, "IsInternetSalesInvoice", false)
	} else {
		soap.Text(file, "CustomerAlias", meta.CustomerAlias)
		soap.Bool(file, "IsDirectSend", meta.DirectSend)
	}

	res, err := v.soap.Call(ctx, "TransferSalesInvoiceFile", req)
	if err != nil {
		return nil, err
	}

	return &model.SubmitResult{
		OperationCompleted: res.Bool("OperationCompleted"),
		TransferID:         res.Text("TransferFileUniqueId"),
		Description:        res.Text("Description"),
		ErrorCode:          res.Int("ErrorCode"),
		ErrorMessage:       res.Text("ErrorMessage"),
	}, nil
}

func (v *veriban) QueryStatus(ctx context.Context, session, transferID string) (*model.TransferStatusResult, error) {
	req := soap.NewRequest("GetTransferSalesInvoiceFileStatus")
	soap.Text(req, "sessionCode", session)
	soap.Text(req, "transferFileUniqueId", transferID)

	res, err := v.soap.Call(ctx, "GetTransferSalesInvoiceFileStatus", req)
	if err != nil {
		return nil, err
	}
	return transferStatusFrom(res), nil
}

func (v *veriban) QueryStatusBatch(ctx context.Context, session string, transferIDs []string) ([]model.TransferStatusResult, error) {
	if len(transferIDs) > BatchLimit {
		return nil, errors.Errorf("batch query limited to %d documents, got %d", BatchLimit, len(transferIDs))
	}
	out := make([]model.TransferStatusResult, 0, len(transferIDs))
	for _, id := range transferIDs {
		st, err := v.QueryStatus(ctx, session, id)
		if err != nil {
			return out, err
		}
		out = append(out, *st)
	}
	return out, nil
}

func (v *veriban) QueryDocument(ctx context.Context, session, documentID string) (*model.DocumentStatusResult, error) {
	req := soap.NewRequest("GetSalesInvoiceStatusWithInvoiceUUID")
	soap.Text(req, "sessionCode", session)
	soap.Text(req, "invoiceUUID", documentID)

	res, err := v.soap.Call(ctx, "GetSalesInvoiceStatusWithInvoiceUUID", req)
	if err != nil {
		return nil, err
	}

	return &model.DocumentStatusResult{
		StateCode:        res.Int("StateCode"),
		StateName:        res.Text("StateName"),
		StateDescription: res.Text("StateDescription"),
		ProviderNumber:   res.Text("InvoiceNumber"),
		Profile:          res.Text("InvoiceProfile"),
		EnvelopeID:       res.Text("EnvelopeUUID"),
		AnswerStateCode:  res.Int("AnswerStateCode"),
		AnswerTypeCode:   res.Int("AnswerTypeCode"),
	}, nil
}

func (v *veriban) ListDocuments(ctx context.Context, session string, rng model.DateRange, dir model.ListDirection) ([]model.DocumentSummary, error) {
	action := "GetSalesInvoiceList"
	if dir == model.DirectionIncoming {
		action = "GetPurchaseInvoiceList"
	}

	req := soap.NewRequest(action)
	soap.Text(req, "sessionCode", session)
	if rng.Start.IsZero() {
		soap.Nil(req, "startDate")
	} else {
		soap.Text(req, "startDate", rng.Start.Format("2006-01-02"))
	}
	if rng.End.IsZero() {
		soap.Nil(req, "endDate")
	} else {
		soap.Text(req, "endDate", rng.End.Format("2006-01-02"))
	}
	soap.Text(req, "pageIndex", "1")
	soap.Text(req, "pageSize", "100")

	res, err := v.soap.Call(ctx, action, req)
	if err != nil {
		return nil, err
	}

	var out []model.DocumentSummary
	res.Each("SalesInvoiceInfo", func(item *soap.Item) {
		out = append(out, summaryFrom(item))
	})
	res.Each("PurchaseInvoiceInfo", func(item *soap.Item) {
		out = append(out, summaryFrom(item))
	})
	return out, nil
}

func (v *veriban) CancelDocument(ctx context.Context, session, legalNumber string, at time.Time) error {
	req := soap.NewRequest("CancelSalesInvoiceWithInvoiceNumber")
	soap.Text(req, "sessionCode", session)
	soap.Text(req, "invoiceNumber", legalNumber)
	soap.Text(req, "cancelDate", at.Format(time.RFC3339))

	res, err := v.soap.Call(ctx, "CancelSalesInvoiceWithInvoiceNumber", req)
	if err != nil {
		return err
	}
	if !res.Bool("OperationCompleted") {
		msg := res.Text("Description")
		if msg == "" {
			msg = "cancel was not accepted"
		}
		return &model.TransferError{Code: soap.CodeCancelFault, Message: msg}
	}
	return nil
}

func transferStatusFrom(res *soap.Response) *model.TransferStatusResult {
	return &model.TransferStatusResult{
		OperationCompleted: res.Bool("OperationCompleted"),
		StateCode:          res.Int("EInvoiceInvoiceState"),
		StateDescription:   res.Text("EInvoiceInvoiceStateDescription"),
		ProviderNumber:     res.Text("InvoiceNumber"),
		ErrorCode:          res.Int("ErrorCode"),
		ErrorMessage:       res.Text("ErrorMessage"),
	}
}

func summaryFrom(item *soap.Item) model.DocumentSummary {
	return model.DocumentSummary{
		DocumentID:     item.Text("InvoiceUUID"),
		ProviderNumber: item.Text("InvoiceNumber"),
		Profile:        item.Text("InvoiceProfile"),
		IssueDate:      item.Text("IssueDate"),
		Payable:        item.Text("PayableAmount"),
		Currency:       item.Text("CurrencyCode"),
		CustomerName:   item.Text("CustomerTitle"),
		CustomerTaxID:  item.Text("CustomerRegisterNumber"),
	}
}
