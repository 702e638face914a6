package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)

	// SetTransaction binds the processor payment id and transaction type to
	// the order for the current payment attempt.
	SetTransaction(ctx context.Context, db *gorm.DB, id snowflake.ID, payID string, txType TransactionType) error

	// MarkPaid sets the paid marker exactly once; it reports false when the
	// order was already paid. The conditional update makes the database the
	// authority for serializing concurrent completions.
	MarkPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (bool, error)

	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status Status) error

	AddNote(ctx context.Context, db *gorm.DB, note *OrderNote) error
	ListNotes(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]OrderNote, error)

	RecordEvent(ctx context.Context, db *gorm.DB, event *PaymentEvent) error
	MarkEventProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error
}
