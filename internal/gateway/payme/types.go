// Package payme defines the fixed JSON-RPC-like wire contract of the Payme
// merchant API: method names, param/result shapes, error objects with
// trilingual messages, and the checkout link builder.
package payme

// Method names dispatched on the "method" field of the webhook body.
const (
	MethodCheckPerformTransaction = "CheckPerformTransaction"
	MethodCreateTransaction       = "CreateTransaction"
	MethodPerformTransaction      = "PerformTransaction"
	MethodCancelTransaction       = "CancelTransaction"
	MethodCheckTransaction        = "CheckTransaction"
	MethodGetStatement            = "GetStatement"
)

// KnownMethod reports whether m is one of the six RPC methods. Anything else
// gets the protocol's literal "Invalid transaction method" body.
func KnownMethod(m string) bool {
	switch m {
	case MethodCheckPerformTransaction, MethodCreateTransaction, MethodPerformTransaction,
		MethodCancelTransaction, MethodCheckTransaction, MethodGetStatement:
		return true
	}
	return false
}

// Account identifies what is being bought and by whom.
type Account struct {
	PlanID string `json:"plan_id"`
	UserID string `json:"user_id"`
}

// Params is the union of parameters across all six methods; each method reads
// the subset it needs. Timestamps are epoch milliseconds per the protocol.
type Params struct {
	ID      string  `json:"id,omitempty"` // gateway transaction id
	Amount  int64   `json:"amount,omitempty"`
	Account Account `json:"account,omitempty"`
	From    int64   `json:"from,omitempty"`
	To      int64   `json:"to,omitempty"`
	Reason  *int    `json:"reason,omitempty"`
}

// Request is the webhook body.
type Request struct {
	ID     int64  `json:"id,omitempty"` // JSON-RPC request id, echoed in errors
	Method string `json:"method"`
	Params Params `json:"params"`
}

// Reply is either {result} or {error, id}.
type Reply struct {
	Result any    `json:"result,omitempty"`
	Error  *Error `json:"error,omitempty"`
	ID     string `json:"id,omitempty"`
}

func OK(result any) Reply { return Reply{Result: result} }
func Failed(e *Error, id string) Reply { return Reply{Error: e, ID: id} }

// Results for the individual methods.

type AllowResult struct {
	Allow bool `json:"allow"`
}

type CreateResult struct {
	Transaction string `json:"transaction"`
	State       int    `json:"state"`
	CreateTime  int64  `json:"create_time"`
}

type PerformResult struct {
	Transaction string `json:"transaction"`
	State       int    `json:"state"`
	PerformTime int64  `json:"perform_time"`
}

type CancelResult struct {
	Transaction string `json:"transaction"`
	State       int    `json:"state"`
	CancelTime  int64  `json:"cancel_time"`
}

type CheckResult struct {
	CreateTime  int64  `json:"create_time"`
	PerformTime int64  `json:"perform_time"`
	CancelTime  int64  `json:"cancel_time"`
	Transaction string `json:"transaction"`
	State       int    `json:"state"`
	Reason      *int   `json:"reason"`
}

type StatementTransaction struct {
	ID          string  `json:"id"`
	Time        int64   `json:"time"`
	Amount      int64   `json:"amount"`
	Account     Account `json:"account"`
	CreateTime  int64   `json:"create_time"`
	PerformTime *int64  `json:"perform_time"`
	CancelTime  *int64  `json:"cancel_time"`
	Transaction string  `json:"transaction"`
	State       int     `json:"state"`
	Reason      *int    `json:"reason"`
}

type StatementResult struct {
	Transactions []StatementTransaction `json:"transactions"`
}

// Cancellation reason codes defined by the protocol.
const (
	ReasonTimeout = 4 // transaction not performed within the allowed window
	ReasonRefund  = 5
)
