package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/maib-ecomm/maib-gateway/internal/order/domain"
	"gorm.io/gorm"
)

type orderRepo struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &orderRepo{db: db}
}

func (r *orderRepo) conn(db *gorm.DB) *gorm.DB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *orderRepo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return r.conn(db).WithContext(ctx).Create(order).Error
}

func (r *orderRepo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	if err := r.conn(db).WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) SetTransaction(ctx context.Context, db *gorm.DB, id snowflake.ID, payID string, txType domain.TransactionType) error {
	return r.conn(db).WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"transaction_id":   payID,
			"transaction_type": txType,
			"updated_at":       time.Now().UTC(),
		}).Error
}

func (r *orderRepo) MarkPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (bool, error) {
	res := r.conn(db).WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ? AND paid_at IS NULL", id).
		Updates(map[string]any{"paid_at": at, "updated_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.Status) error {
	return r.conn(db).WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()}).Error
}

func (r *orderRepo) AddNote(ctx context.Context, db *gorm.DB, note *domain.OrderNote) error {
	return r.conn(db).WithContext(ctx).Create(note).Error
}

func (r *orderRepo) ListNotes(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]domain.OrderNote, error) {
	var notes []domain.OrderNote
	err := r.conn(db).WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at asc").
		Find(&notes).Error
	return notes, err
}

func (r *orderRepo) RecordEvent(ctx context.Context, db *gorm.DB, event *domain.PaymentEvent) error {
	return r.conn(db).WithContext(ctx).Create(event).Error
}

func (r *orderRepo) MarkEventProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	return r.conn(db).WithContext(ctx).
		Model(&domain.PaymentEvent{}).
		Where("id = ?", id).
		Update("processed_at", at).Error
}
