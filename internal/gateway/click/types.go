// Package click defines the fixed wire contract of the Click merchant API:
// request/response shapes, action and error codes, and the MD5 request
// signature. Business handling lives in the use-case layer.
package click

import (
	"strconv"
	"strings"
)

// Action is Click's numeric action code distinguishing the two protocol
// phases of a transaction.
type Action int

const (
	ActionPrepare  Action = 0
	ActionComplete Action = 1
)

// Error codes per the Click merchant API. Business failures are reported
// through these codes in a 200 response, never through HTTP status.
type Error int

const (
	ErrSuccess             Error = 0
	ErrSignFailed          Error = -1
	ErrInvalidAmount       Error = -2
	ErrActionNotFound      Error = -3
	ErrAlreadyPaid         Error = -4
	ErrUserNotFound        Error = -5
	ErrTransactionNotFound Error = -6
	ErrBadRequest          Error = -8
	ErrTransactionCanceled Error = -9
)

// Request is the webhook body Click posts on both prepare and complete.
// merchant_trans_id carries the plan id and param2 the user id (set by our
// redirect link). All numeric fields arrive as strings on the form-encoded
// wire; Amount keeps its raw text because it feeds the signature verbatim.
type Request struct {
	Action            string `json:"action"`
	ClickTransID      string `json:"click_trans_id"`
	ServiceID         string `json:"service_id"`
	MerchantTransID   string `json:"merchant_trans_id"`
	MerchantPrepareID string `json:"merchant_prepare_id"`
	Amount            string `json:"amount"`
	SignTime          string `json:"sign_time"`
	SignString        string `json:"sign_string"`
	Param2            string `json:"param2"`
	Error             string `json:"error"`
}

// GatewayError parses the error field Click reports on complete callbacks.
// Zero or unparsable means no gateway-side failure.
func (r Request) GatewayError() int {
	n, err := strconv.Atoi(strings.TrimSpace(r.Error))
	if err != nil {
		return 0
	}
	return n
}

// Response is the flat reply shape. Error==0 means success; on business
// failure only error/error_note are populated.
type Response struct {
	ClickTransID      string `json:"click_trans_id,omitempty"`
	MerchantTransID   string `json:"merchant_trans_id,omitempty"`
	MerchantPrepareID string `json:"merchant_prepare_id,omitempty"`
	Error             Error  `json:"error"`
	ErrorNote         string `json:"error_note"`
}

// Fail builds an error-only response.
func Fail(code Error, note string) Response {
	return Response{Error: code, ErrorNote: note}
}
