package domain

import (
	"context"
	"errors"

	"github.com/maib-ecomm/maib-gateway/internal/maib"
)

var (
	// ErrMissingCredentials aborts initiation before any network call.
	ErrMissingCredentials = errors.New("merchant credentials are not configured")
	// ErrUnsupportedCurrency aborts initiation for currencies outside MDL/EUR/USD.
	ErrUnsupportedCurrency = errors.New("currency not supported by maib gateway")
	// ErrUnknownTransactionType is a configuration fault; no state changes.
	ErrUnknownTransactionType = errors.New("unknown transaction type")
	// ErrMissingTransactionID guards refund/complete on orders without a payment id.
	ErrMissingTransactionID = errors.New("payment id missing on order")
	// ErrOrderNotPayable refuses initiation for orders past the pending/failed
	// states; a paid or refunded order must never start a fresh payment.
	ErrOrderNotPayable = errors.New("order is not awaiting payment")
	// ErrAlreadyRefunded is raised when the processor reports the transaction
	// as REVERSED before a duplicate refund is issued.
	ErrAlreadyRefunded = errors.New("payment already refunded")
	// ErrInitiationFailed is the generic user-facing initiation failure; the
	// operator log carries the detail.
	ErrInitiationFailed = errors.New("payment initiation failed, please try again later")
	// ErrCompleteFailed is returned when a two-step capture does not come back OK.
	ErrCompleteFailed = errors.New("two-step payment completion failed")
)

// Ack is the literal body returned to the processor on its callback URL.
type Ack string

const (
	AckOK    Ack = "OK"
	AckError Ack = "ERROR"
)

type InitiateResult struct {
	PayID       string
	RedirectURL string
}

// Redirect tells the HTTP layer where to send the shopper after a
// redirect-back from the payment page. Notice is empty on success.
type Redirect struct {
	URL    string
	Notice string
}

// Gateway is the slice of the maib API client the state machine drives.
type Gateway interface {
	Pay(ctx context.Context, req maib.PayRequest, token string) (*maib.PayResult, error)
	Hold(ctx context.Context, req maib.PayRequest, token string) (*maib.PayResult, error)
	Complete(ctx context.Context, req maib.CompleteRequest, token string) (*maib.TransactionResult, error)
	Refund(ctx context.Context, req maib.RefundRequest, token string) (*maib.TransactionResult, error)
	PayInfo(ctx context.Context, payID, token string) (*maib.PaymentInfo, error)
}

// TokenSource yields a bearer token for gateway calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}
