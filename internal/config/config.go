package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
)

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // "postgres" or "sqlite"
	DSN    string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MaibConfig holds the merchant project credentials and the order-status
// mappings configurable per store. A status mapping of "default" keeps the
// built-in status for that outcome.
type MaibConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	ProjectID       string `mapstructure:"project_id"`
	ProjectSecret   string `mapstructure:"project_secret"`
	SignatureKey    string `mapstructure:"signature_key"`
	TransactionType string `mapstructure:"transaction_type"` // "direct" or "twostep"
	Language        string `mapstructure:"language"`

	// Order description shown on the bank payment page.
	// Placeholders: %order_id%, %items_summary%.
	OrderTemplate string `mapstructure:"order_template"`

	CompletedOrderStatus string `mapstructure:"completed_order_status"`
	HoldOrderStatus      string `mapstructure:"hold_order_status"`
	FailedOrderStatus    string `mapstructure:"failed_order_status"`
}

// StoreConfig describes the merchant storefront the gateway redirects
// shoppers back to.
type StoreConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	CartURL     string `mapstructure:"cart_url"`
	CheckoutURL string `mapstructure:"checkout_url"`
	ReceiptURL  string `mapstructure:"receipt_url"`
}

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Maib     MaibConfig     `mapstructure:"maib"`
	Store    StoreConfig    `mapstructure:"store"`
}

// HasCredentials reports whether all three merchant credentials are set.
// Payment initiation is refused without them.
func (m MaibConfig) HasCredentials() bool {
	return m.ProjectID != "" && m.ProjectSecret != "" && m.SignatureKey != ""
}

func Load() (Config, error) {
	// Optional; real deployments use environment variables.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("MAIBGW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "maibgw.db")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("maib.base_url", "https://api.maibmerchants.md/v1")
	v.SetDefault("maib.transaction_type", "direct")
	v.SetDefault("maib.language", "en")
	v.SetDefault("maib.order_template", "Order #%order_id%")
	v.SetDefault("maib.completed_order_status", "default")
	v.SetDefault("maib.hold_order_status", "default")
	v.SetDefault("maib.failed_order_status", "default")
	v.SetDefault("store.base_url", "http://localhost:8080")
	v.SetDefault("store.cart_url", "/cart")
	v.SetDefault("store.checkout_url", "/checkout/payment")
	v.SetDefault("store.receipt_url", "/checkout/order-received")

	v.SetConfigName("maibgw")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/maibgw")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
