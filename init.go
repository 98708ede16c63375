package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parcelgate/shipping/internal/catalog"
	"github.com/parcelgate/shipping/internal/config"
	"github.com/parcelgate/shipping/internal/telemetry"
	"github.com/parcelgate/shipping/pkg/carrier"
	"github.com/parcelgate/shipping/pkg/carrier/canadapost"
	"github.com/parcelgate/shipping/pkg/carrier/fedex"
	"github.com/parcelgate/shipping/pkg/carrier/flat"
	"github.com/parcelgate/shipping/pkg/carrier/purolator"
	"github.com/parcelgate/shipping/pkg/carrier/usps"
	"github.com/shopspring/decimal"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return nil, func(context.Context) error { return nil }, nil
	}
	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
}

func initCatalog(ctx context.Context, cfg *config.Config) (catalog.Store, error) {
	if cfg.CatalogDriver == "postgres" {
		pool, err := pgxpool.New(ctx, cfg.CatalogDSN)
		if err != nil {
			return nil, fmt.Errorf("connecting to catalog database: %w", err)
		}
		store := catalog.NewPostgres(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("preparing catalog schema: %w", err)
		}
		return store, nil
	}

	// The memory catalog ships one default box so the flat carrier can
	// quote without a database.
	store := catalog.NewMemory()
	boxID := store.AddBox(35, 26, 5, 5)
	store.SetPrice(flat.CodeFreePickup, boxID, decimal.Zero)
	store.SetPrice(flat.CodeFlat, boxID, decimal.NewFromInt(10))
	return store, nil
}

// initGateway builds the carrier registry from the enablement flags and
// wraps it in a gateway. Registration order fixes the merge order of
// aggregated rate responses: the catalog's enabled-carrier order wins when
// present, config flag order otherwise.
func initGateway(ctx context.Context, cfg *config.Config, store catalog.Store, logger *otelzap.Logger, tracer trace.Tracer) *carrier.Gateway {
	var enabled []carrier.Carrier

	if cfg.FlatEnabled {
		enabled = append(enabled, flat.New(flat.Config{
			Currency: cfg.FlatCurrency,
		}, store, logger, tracer))
	}

	if cfg.CanadaPostEnabled {
		enabled = append(enabled, canadapost.New(canadapost.Config{
			Credentials: canadapost.Credentials{
				CustomerNumber: cfg.CanadaPostCustomerNumber,
				Username:       cfg.CanadaPostUsername,
				Password:       cfg.CanadaPostPassword,
				Sandbox:        cfg.CanadaPostSandbox,
			},
			BaseURL: cfg.CanadaPostBaseURL,
			UseMock: cfg.CanadaPostUseMock,
		}, logger, tracer))
	}

	if cfg.PurolatorEnabled {
		enabled = append(enabled, purolator.New(purolator.Config{
			Credentials: purolator.Credentials{
				Key:               cfg.PurolatorKey,
				Password:          cfg.PurolatorPassword,
				BillingAccount:    cfg.PurolatorBillingAccount,
				RegisteredAccount: cfg.PurolatorRegisteredAccount,
				UserToken:         cfg.PurolatorUserToken,
				Sandbox:           cfg.PurolatorSandbox,
			},
			BaseURL: cfg.PurolatorBaseURL,
			UseMock: cfg.PurolatorUseMock,
		}, logger, tracer))
	}

	if cfg.FedExEnabled {
		enabled = append(enabled, fedex.New(fedex.Config{
			Credentials: fedex.Credentials{
				ClientID:      cfg.FedExClientID,
				ClientSecret:  cfg.FedExClientSecret,
				AccountNumber: cfg.FedExAccountNumber,
				Sandbox:       cfg.FedExSandbox,
			},
			BaseURL: cfg.FedExBaseURL,
			UseMock: cfg.FedExUseMock,
		}, logger, tracer))
	}

	if cfg.USPSEnabled {
		enabled = append(enabled, usps.New(usps.Config{
			Credentials: usps.Credentials{
				ClientID:     cfg.USPSClientID,
				ClientSecret: cfg.USPSClientSecret,
				Sandbox:      cfg.USPSSandbox,
			},
			BaseURL: cfg.USPSBaseURL,
			UseMock: cfg.USPSUseMock,
		}, logger, tracer))
	}

	registry := carrier.NewRegistry()
	for _, c := range orderCarriers(ctx, store, enabled, logger) {
		registry.Register(c)
	}

	return carrier.NewGateway(carrier.GatewayConfig{
		CallTimeout: cfg.RateCallTimeout,
	}, registry, logger, tracer)
}

// orderCarriers applies the catalog's enabled-carrier order to the
// flag-enabled set. Carriers the catalog does not mention keep their flag
// order after the cataloged ones; an empty or failing catalog read leaves
// the flag order untouched.
func orderCarriers(ctx context.Context, store catalog.Store, enabled []carrier.Carrier, logger *otelzap.Logger) []carrier.Carrier {
	names, err := store.EnabledCarriers(ctx)
	if err != nil {
		logger.Warn("Failed to read carrier order from catalog", zap.Error(err))
		return enabled
	}
	if len(names) == 0 {
		return enabled
	}

	byName := make(map[string]carrier.Carrier, len(enabled))
	for _, c := range enabled {
		byName[c.Name()] = c
	}

	ordered := make([]carrier.Carrier, 0, len(enabled))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if c, ok := byName[name]; ok {
			ordered = append(ordered, c)
			seen[name] = struct{}{}
		}
	}
	for _, c := range enabled {
		if _, ok := seen[c.Name()]; !ok {
			ordered = append(ordered, c)
		}
	}
	return ordered
}
