package order

import (
	"github.com/maib-ecomm/maib-gateway/internal/order/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("order",
	fx.Provide(repository.NewRepository),
)
