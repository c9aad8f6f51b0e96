// Package bootstrap builds the configured backends shared by the binaries.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/family-finance/internal/config"
	infraBQ "github.com/dvloznov/family-finance/internal/infra/bigquery"
	"github.com/dvloznov/family-finance/internal/infra/postgres"
	"github.com/dvloznov/family-finance/internal/logger"
	"github.com/dvloznov/family-finance/internal/notify"
	"github.com/dvloznov/family-finance/internal/store"
	"github.com/dvloznov/family-finance/internal/store/memory"
)

const defaultDemoEmail = "demo@financas.app"

// OpenStore connects the configured backend. The memory driver starts with
// the default categories and a demo family whose owner has demoEmail.
func OpenStore(ctx context.Context, cfg config.StoreConfig, demoEmail string) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		if demoEmail == "" {
			demoEmail = defaultDemoEmail
		}
		st := memory.New()
		st.SeedDemo(demoEmail, time.Now())
		log := logger.FromContext(ctx)
		log.Info().
			Str("user_id", memory.DemoUserID).
			Str("family_id", memory.DemoFamilyID).
			Msg("Memory store seeded with demo family")
		return st, nil
	case config.DriverBigQuery:
		repo, err := infraBQ.NewRepository(ctx, cfg.Project, cfg.Dataset)
		if err != nil {
			return nil, fmt.Errorf("OpenStore: %w", err)
		}
		return repo, nil
	case config.DriverPostgres:
		repo, err := postgres.NewRepository(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("OpenStore: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("OpenStore: unknown store driver %q", cfg.Driver)
	}
}

// NewTransport returns the SMTP transport, or one that only logs when the
// email driver is "log".
func NewTransport(cfg config.EmailConfig) (notify.Transport, error) {
	if cfg.Driver != config.EmailSMTP {
		return notify.LogTransport{}, nil
	}
	t, err := notify.NewSMTPTransport(notify.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		Timeout:  30 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("NewTransport: %w", err)
	}
	return t, nil
}
