// Package migration keeps the gateway schema current. A single AutoMigrate
// pass covers the three tables; there is no shared-schema coordination to
// worry about, so no advisory locking either.
package migration

import (
	orderdomain "github.com/maib-ecomm/maib-gateway/internal/order/domain"
	"gorm.io/gorm"
)

func Run(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&orderdomain.Order{},
		&orderdomain.OrderNote{},
		&orderdomain.PaymentEvent{},
	)
}
