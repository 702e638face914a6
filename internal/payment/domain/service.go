package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Service is the payment lifecycle state machine. All operations are safe to
// invoke concurrently for the same or different orders; idempotency is
// enforced against persisted order state.
type Service interface {
	// Initiate creates a payment (direct) or hold (two-step) for a pending
	// order and returns the hosted payment page URL. The order is left
	// untouched on any failure.
	Initiate(ctx context.Context, orderID snowflake.ID, clientIP string) (*InitiateResult, error)

	// HandleCallback processes a signed webhook notification body and
	// returns the ack to echo to the processor. Signature verification
	// happens before any payload field is trusted.
	HandleCallback(ctx context.Context, body []byte) Ack

	// HandleReturn processes a browser redirect-back. The claimed outcome
	// ("ok" or "fail") is never trusted; payment state is re-verified with a
	// pay-info inquiry before any transition.
	HandleReturn(ctx context.Context, orderID, payID, outcome string) Redirect

	// Refund refunds up to the order total. Amounts covering the full total
	// move the order to refunded; partial refunds only annotate it.
	Refund(ctx context.Context, orderID snowflake.ID, amount float64) error

	// CompleteTwoStep captures a previously held two-step payment.
	CompleteTwoStep(ctx context.Context, orderID snowflake.ID) error
}
