package soap

import "fmt"

// Provider fault codes, as documented for the integration services.
const (
	CodeSystemFault   = 5000
	CodeBadParameter  = 5001
	CodeLoginFailed   = 5002
	CodeSessionFault  = 5003
	CodeAccessDenied  = 5004
	CodeHashMismatch  = 5101
	CodeArchiveInsert = 5102
	CodeQueueInsert   = 5103
	CodeCancelFault   = 5201
	CodeQueueQuery    = 5301
	CodeDocumentQuery = 5302
	CodeDownload      = 5401
	CodeOperation     = 5501
)

var codeMessages = map[int]string{
	CodeSystemFault:   "system fault",
	CodeBadParameter:  "parameter fault",
	CodeLoginFailed:   "login failed",
	CodeSessionFault:  "session fault",
	CodeAccessDenied:  "access denied",
	CodeHashMismatch:  "binary data hash mismatch",
	CodeArchiveInsert: "archive insert failed",
	CodeQueueInsert:   "queue insert failed",
	CodeCancelFault:   "cancel failed",
	CodeQueueQuery:    "queue query failed",
	CodeDocumentQuery: "document query failed",
	CodeDownload:      "document download failed",
	CodeOperation:     "operation failed",
}

// CodeMessage returns a readable description for a provider fault code.
func CodeMessage(code int) string {
	if msg, ok := codeMessages[code]; ok {
		return msg
	}
	return fmt.Sprintf("unknown provider fault (code %d)", code)
}

// RequestError reports a transport level failure: the call never
// produced a well formed service response.
type RequestError struct {
	Action     string
	StatusCode int
	Body       string
	Err        error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: request failed: %v", e.Action, e.Err)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Action, e.StatusCode, e.Body)
}

func (e *RequestError) Unwrap() error { return e.Err }

// FaultError is a fault the service itself reported.
type FaultError struct {
	Code    int
	Message string
}

func (e *FaultError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("provider fault %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("provider fault: %s", e.Message)
}

// UnexpectedResponseError reports a reply that could not be read as
// XML at all.
type UnexpectedResponseError struct {
	Message string
	Cause   error
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("unexpected response: %s: %v", e.Message, e.Cause)
}

func (e *UnexpectedResponseError) Unwrap() error { return e.Cause }
