package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

var ErrOrderNotFound = errors.New("order not found")

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusOnHold     Status = "on-hold"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRefunded   Status = "refunded"
	StatusCancelled  Status = "cancelled"
)

// Transitionable reports whether a callback notification may still move the
// order. Anything else is treated as a terminal state and duplicate
// deliveries only add an audit note.
func (s Status) Transitionable() bool {
	return s == StatusPending || s == StatusFailed
}

type TransactionType string

const (
	TransactionTypeDirect  TransactionType = "direct"
	TransactionTypeTwoStep TransactionType = "twostep"
)

type Order struct {
	ID              snowflake.ID    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Status          Status          `json:"status" gorm:"type:varchar(20);not null;index"`
	Currency        string          `json:"currency" gorm:"type:varchar(3);not null"`
	Amount          float64         `json:"amount" gorm:"not null"`
	ShippingTotal   float64         `json:"shipping_total"`
	CustomerID      snowflake.ID    `json:"customer_id" gorm:"index"`
	ClientName      string          `json:"client_name" gorm:"type:varchar(128)"`
	Email           string          `json:"email" gorm:"type:varchar(255)"`
	Phone           string          `json:"phone" gorm:"type:varchar(40)"`
	Items           datatypes.JSON  `json:"items" gorm:"type:jsonb"`
	TransactionID   string          `json:"transaction_id" gorm:"type:varchar(36);index"`
	TransactionType TransactionType `json:"transaction_type" gorm:"type:varchar(10)"`
	PaidAt          *time.Time      `json:"paid_at"`
	CreatedAt       time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt       time.Time       `json:"updated_at" gorm:"not null"`
}

func (Order) TableName() string { return "orders" }

// Item is the JSON shape stored in Order.Items.
type Item struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// OrderNote is the free-text audit log attached to an order.
type OrderNote struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	OrderID   snowflake.ID `json:"order_id" gorm:"not null;index"`
	Note      string       `json:"note" gorm:"type:text;not null"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`
}

func (OrderNote) TableName() string { return "order_notes" }

// PaymentEvent records every inbound callback notification, authentic or not.
type PaymentEvent struct {
	ID          snowflake.ID   `json:"id" gorm:"primaryKey;autoIncrement:false"`
	OrderID     *snowflake.ID  `json:"order_id" gorm:"index"`
	PayID       string         `json:"pay_id" gorm:"type:varchar(36);index"`
	Status      string         `json:"status" gorm:"type:varchar(20)"`
	SignatureOK bool           `json:"signature_ok" gorm:"not null"`
	Payload     datatypes.JSON `json:"payload" gorm:"type:jsonb"`
	ReceivedAt  time.Time      `json:"received_at" gorm:"not null"`
	ProcessedAt *time.Time     `json:"processed_at"`
}

func (PaymentEvent) TableName() string { return "payment_events" }
