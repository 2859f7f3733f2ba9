package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	LedgerBackendSQL      = "sql"
	LedgerBackendDynamoDB = "dynamodb"

	DatabaseDriverMySQL    = "mysql"
	DatabaseDriverPostgres = "postgres"
)

type Config struct {
	App               AppConfig
	HTTP              ServerConfig
	GRPC              ServerConfig
	Database          DatabaseConfig
	Ledger            LedgerConfig
	Log               LogConfig
	InternalEndpoints InternalEndpointsConfig
	Site              SiteConfig
	Stripe            StripeConfig
	PayPal            PayPalConfig
	MercadoPago       MercadoPagoConfig
	Pagarme           PagarmeConfig
	Cielo             CieloConfig
	Mail              MailConfig
	Donations         DonationsConfig
}

type AppConfig struct {
	ServiceName string
}

type ServerConfig struct {
	Host string
	Port string
}

type DatabaseConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LedgerConfig struct {
	Backend                string
	DynamoTable            string
	DynamoTransactionIndex string
	AWSRegion              string
}

type LogConfig struct {
	Level  string
	Format string
}

type InternalEndpointsConfig struct {
	AuthGRPCAddr string
}

// SiteConfig holds the public URLs providers redirect the donor back to.
type SiteConfig struct {
	BaseURL    string
	SuccessURL string
	CancelURL  string
}

type StripeConfig struct {
	SecretKey   string
	ProductName string
	HTTPTimeout time.Duration
}

type PayPalConfig struct {
	ClientID     string
	ClientSecret string
	Mode         string
	BrandName    string
	HTTPTimeout  time.Duration
}

type MercadoPagoConfig struct {
	AccessToken         string
	StatementDescriptor string
	HTTPTimeout         time.Duration
}

type PagarmeConfig struct {
	SecretKey     string
	EncryptionKey string
	PostbackURL   string
	HTTPTimeout   time.Duration
}

type CieloConfig struct {
	MerchantID     string
	MerchantKey    string
	Sandbox        bool
	SoftDescriptor string
	HTTPTimeout    time.Duration
}

type MailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	From         string
	FromName     string
}

type DonationsConfig struct {
	DefaultCurrency string
	ListLimit       int32
	StaleAfter      time.Duration
	ReportInterval  time.Duration
	ReceiptTimeout  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	ledger := LedgerConfig{
		Backend:                strings.ToLower(getEnv("LEDGER_BACKEND", LedgerBackendSQL)),
		DynamoTable:            getEnv("DYNAMODB_TABLE", ""),
		DynamoTransactionIndex: getEnv("DYNAMODB_TRANSACTION_INDEX", "transaction_id-index"),
		AWSRegion:              getEnv("AWS_REGION", "sa-east-1"),
	}

	database := DatabaseConfig{
		Driver:          strings.ToLower(getEnv("DATABASE_DRIVER", DatabaseDriverMySQL)),
		DSN:             getEnv("DATABASE_DSN", os.Getenv("MYSQL_DSN")),
		MaxOpenConns:    getIntEnv("DATABASE_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getIntEnv("DATABASE_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getMinutesEnv("DATABASE_CONN_MAX_LIFETIME_MINUTES", 30*time.Minute),
	}

	switch ledger.Backend {
	case LedgerBackendSQL:
		if database.DSN == "" {
			return nil, errors.New("DATABASE_DSN environment variable is required")
		}
		if database.Driver != DatabaseDriverMySQL && database.Driver != DatabaseDriverPostgres {
			return nil, errors.New("DATABASE_DRIVER must be mysql or postgres")
		}
	case LedgerBackendDynamoDB:
		if ledger.DynamoTable == "" {
			return nil, errors.New("DYNAMODB_TABLE environment variable is required")
		}
	default:
		return nil, errors.New("LEDGER_BACKEND must be sql or dynamodb")
	}

	siteBaseURL := strings.TrimRight(getEnv("SITE_BASE_URL", "http://localhost:5173"), "/")

	return &Config{
		App: AppConfig{
			ServiceName: getEnv("APP_SERVICE_NAME", "donations-service"),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		GRPC: ServerConfig{
			Host: getEnv("GRPC_HOST", "0.0.0.0"),
			Port: getEnv("GRPC_PORT", "9090"),
		},
		Database: database,
		Ledger:   ledger,
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		InternalEndpoints: InternalEndpointsConfig{
			AuthGRPCAddr: getEnv("AUTH_SERVICE_GRPC_ADDR", "localhost:9090"),
		},
		Site: SiteConfig{
			BaseURL:    siteBaseURL,
			SuccessURL: getEnv("SITE_SUCCESS_URL", siteBaseURL+"/doacao/sucesso"),
			CancelURL:  getEnv("SITE_CANCEL_URL", siteBaseURL+"/doacao"),
		},
		Stripe: StripeConfig{
			SecretKey:   getEnv("STRIPE_SECRET_KEY", ""),
			ProductName: getEnv("STRIPE_PRODUCT_NAME", "Doação"),
			HTTPTimeout: getSecondsEnv("STRIPE_HTTP_TIMEOUT_SECONDS", 10*time.Second),
		},
		PayPal: PayPalConfig{
			ClientID:     getEnv("PAYPAL_CLIENT_ID", ""),
			ClientSecret: getEnv("PAYPAL_CLIENT_SECRET", ""),
			Mode:         strings.ToLower(getEnv("PAYPAL_MODE", "sandbox")),
			BrandName:    getEnv("PAYPAL_BRAND_NAME", "Doação"),
			HTTPTimeout:  getSecondsEnv("PAYPAL_HTTP_TIMEOUT_SECONDS", 10*time.Second),
		},
		MercadoPago: MercadoPagoConfig{
			AccessToken:         getEnv("MERCADOPAGO_ACCESS_TOKEN", ""),
			StatementDescriptor: getEnv("MERCADOPAGO_STATEMENT_DESCRIPTOR", "DOACAO"),
			HTTPTimeout:         getSecondsEnv("MERCADOPAGO_HTTP_TIMEOUT_SECONDS", 10*time.Second),
		},
		Pagarme: PagarmeConfig{
			SecretKey:     getEnv("PAGARME_SECRET_KEY", ""),
			EncryptionKey: getEnv("PAGARME_ENCRYPTION_KEY", ""),
			PostbackURL:   getEnv("PAGARME_POSTBACK_URL", ""),
			HTTPTimeout:   getSecondsEnv("PAGARME_HTTP_TIMEOUT_SECONDS", 15*time.Second),
		},
		Cielo: CieloConfig{
			MerchantID:     getEnv("CIELO_MERCHANT_ID", ""),
			MerchantKey:    getEnv("CIELO_MERCHANT_KEY", ""),
			Sandbox:        getBoolEnv("CIELO_SANDBOX", true),
			SoftDescriptor: getEnv("CIELO_SOFT_DESCRIPTOR", "DOACAO"),
			HTTPTimeout:    getSecondsEnv("CIELO_HTTP_TIMEOUT_SECONDS", 15*time.Second),
		},
		Mail: MailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getIntEnv("SMTP_PORT", 587),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			From:         getEnv("MAIL_FROM", ""),
			FromName:     getEnv("MAIL_FROM_NAME", "Doações"),
		},
		Donations: DonationsConfig{
			DefaultCurrency: strings.ToUpper(getEnv("DONATIONS_DEFAULT_CURRENCY", "BRL")),
			ListLimit:       int32(getIntEnv("DONATIONS_LIST_LIMIT", 100)),
			StaleAfter:      getMinutesEnv("DONATIONS_STALE_AFTER_MINUTES", 72*time.Hour),
			ReportInterval:  getMinutesEnv("DONATIONS_REPORT_INTERVAL_MINUTES", time.Hour),
			ReceiptTimeout:  getSecondsEnv("DONATIONS_RECEIPT_TIMEOUT_SECONDS", 5*time.Second),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getMinutesEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
