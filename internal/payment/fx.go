package payment

import (
	"github.com/maib-ecomm/maib-gateway/internal/auth"
	"github.com/maib-ecomm/maib-gateway/internal/config"
	"github.com/maib-ecomm/maib-gateway/internal/maib"
	"github.com/maib-ecomm/maib-gateway/internal/payment/domain"
	"github.com/maib-ecomm/maib-gateway/internal/payment/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("payment",
	fx.Provide(
		func(cfg config.Config, log *zap.Logger) *maib.Client {
			return maib.NewClient(cfg.Maib.BaseURL, log)
		},
		func(c *maib.Client) domain.Gateway { return c },
		func(ts *auth.TokenSource) domain.TokenSource { return ts },
		service.NewMetrics,
		service.New,
	),
)
