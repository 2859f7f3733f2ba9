package cmd

import (
	"context"
	"database/sql"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-donations/app/notify"
	"github.com/vibast-solutions/ms-go-donations/app/provider"
	"github.com/vibast-solutions/ms-go-donations/app/repository"
	"github.com/vibast-solutions/ms-go-donations/app/service"
	"github.com/vibast-solutions/ms-go-donations/config"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}
	return cfg
}

func mustCreateDonationService() (*config.Config, *service.DonationService, func()) {
	cfg := mustLoadConfig()

	providerRegistry := newProviderRegistry(cfg)
	mailer, err := notify.NewMailer(cfg.Mail)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to configure mailer")
	}
	if !mailer.Enabled() {
		logrus.Info("SMTP not configured, donation receipts disabled")
	}

	switch cfg.Ledger.Backend {
	case config.LedgerBackendDynamoDB:
		client, err := newDynamoClient(context.Background(), cfg)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to load AWS configuration")
		}
		donationService := service.NewDonationService(
			repository.NewDynamoDonationRepository(client, cfg.Ledger.DynamoTable, cfg.Ledger.DynamoTransactionIndex),
			repository.NewDynamoDonationEventRepository(client, cfg.Ledger.DynamoTable),
			providerRegistry,
			mailer,
			cfg.Site,
			cfg.Donations,
		)
		return cfg, donationService, func() {}
	default:
		db, err := openDatabase(cfg.Database)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to connect to database")
		}
		dialect := repository.Dialect(cfg.Database.Driver)
		donationService := service.NewDonationService(
			repository.NewDonationRepository(db, dialect),
			repository.NewDonationEventRepository(db, dialect),
			providerRegistry,
			mailer,
			cfg.Site,
			cfg.Donations,
		)
		cleanup := func() {
			if err := db.Close(); err != nil {
				logrus.WithError(err).Warn("Failed to close database")
			}
		}
		return cfg, donationService, cleanup
	}
}

func openDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}
	return db, nil
}

func newDynamoClient(ctx context.Context, cfg *config.Config) (*dynamodb.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Ledger.AWSRegion))
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(awsCfg), nil
}

// newProviderRegistry registers every adapter. Missing credentials are not
// fatal here; the adapter reports them when it is first used.
func newProviderRegistry(cfg *config.Config) *provider.Registry {
	return provider.NewRegistry(
		provider.NewStripeProvider(provider.StripeConfig{
			SecretKey:   cfg.Stripe.SecretKey,
			ProductName: cfg.Stripe.ProductName,
			HTTPTimeout: cfg.Stripe.HTTPTimeout,
		}),
		provider.NewPayPalProvider(provider.PayPalConfig{
			ClientID:     cfg.PayPal.ClientID,
			ClientSecret: cfg.PayPal.ClientSecret,
			Mode:         cfg.PayPal.Mode,
			BrandName:    cfg.PayPal.BrandName,
			HTTPTimeout:  cfg.PayPal.HTTPTimeout,
		}),
		provider.NewMercadoPagoProvider(provider.MercadoPagoConfig{
			AccessToken:         cfg.MercadoPago.AccessToken,
			StatementDescriptor: cfg.MercadoPago.StatementDescriptor,
			HTTPTimeout:         cfg.MercadoPago.HTTPTimeout,
		}),
		provider.NewPagarmeProvider(provider.PagarmeConfig{
			SecretKey:     cfg.Pagarme.SecretKey,
			EncryptionKey: cfg.Pagarme.EncryptionKey,
			PostbackURL:   cfg.Pagarme.PostbackURL,
			HTTPTimeout:   cfg.Pagarme.HTTPTimeout,
		}),
		provider.NewCieloProvider(provider.CieloConfig{
			MerchantID:     cfg.Cielo.MerchantID,
			MerchantKey:    cfg.Cielo.MerchantKey,
			Sandbox:        cfg.Cielo.Sandbox,
			SoftDescriptor: cfg.Cielo.SoftDescriptor,
			HTTPTimeout:    cfg.Cielo.HTTPTimeout,
		}),
	)
}
