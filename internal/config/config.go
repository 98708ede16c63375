package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"80"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Gateway
	RateCallTimeout time.Duration `envconfig:"RATE_CALL_TIMEOUT" default:"30s"`

	// Catalog backing the flat-rate carrier
	CatalogDriver string `envconfig:"CATALOG_DRIVER" default:"memory"`
	CatalogDSN    string `envconfig:"CATALOG_DSN"`

	// Flat-rate carrier
	FlatEnabled  bool   `envconfig:"FLAT_ENABLED" default:"true"`
	FlatCurrency string `envconfig:"FLAT_CURRENCY" default:"CAD"`

	// Canada Post
	CanadaPostCustomerNumber string `envconfig:"CANADAPOST_CUSTOMER_NUMBER"`
	CanadaPostUsername       string `envconfig:"CANADAPOST_USERNAME"`
	CanadaPostPassword       string `envconfig:"CANADAPOST_PASSWORD"`
	CanadaPostSandbox        bool   `envconfig:"CANADAPOST_SANDBOX" default:"false"`
	CanadaPostBaseURL        string `envconfig:"CANADAPOST_BASE_URL"`
	CanadaPostEnabled        bool   `envconfig:"CANADAPOST_ENABLED" default:"true"`
	CanadaPostUseMock        bool   `envconfig:"CANADAPOST_USE_MOCK" default:"false"`

	// Purolator
	PurolatorKey               string `envconfig:"PUROLATOR_KEY"`
	PurolatorPassword          string `envconfig:"PUROLATOR_PASSWORD"`
	PurolatorBillingAccount    string `envconfig:"PUROLATOR_BILLING_ACCOUNT"`
	PurolatorRegisteredAccount string `envconfig:"PUROLATOR_REGISTERED_ACCOUNT"`
	PurolatorUserToken         string `envconfig:"PUROLATOR_USER_TOKEN"`
	PurolatorSandbox           bool   `envconfig:"PUROLATOR_SANDBOX" default:"false"`
	PurolatorBaseURL           string `envconfig:"PUROLATOR_BASE_URL"`
	PurolatorEnabled           bool   `envconfig:"PUROLATOR_ENABLED" default:"true"`
	PurolatorUseMock           bool   `envconfig:"PUROLATOR_USE_MOCK" default:"false"`

	// FedEx
	FedExClientID      string `envconfig:"FEDEX_CLIENT_ID"`
	FedExClientSecret  string `envconfig:"FEDEX_CLIENT_SECRET"`
	FedExAccountNumber string `envconfig:"FEDEX_ACCOUNT_NUMBER"`
	FedExSandbox       bool   `envconfig:"FEDEX_SANDBOX" default:"false"`
	FedExBaseURL       string `envconfig:"FEDEX_BASE_URL"`
	FedExEnabled       bool   `envconfig:"FEDEX_ENABLED" default:"true"`
	FedExUseMock       bool   `envconfig:"FEDEX_USE_MOCK" default:"false"`

	// USPS
	USPSClientID     string `envconfig:"USPS_CLIENT_ID"`
	USPSClientSecret string `envconfig:"USPS_CLIENT_SECRET"`
	USPSSandbox      bool   `envconfig:"USPS_SANDBOX" default:"false"`
	USPSBaseURL      string `envconfig:"USPS_BASE_URL"`
	USPSEnabled      bool   `envconfig:"USPS_ENABLED" default:"true"`
	USPSUseMock      bool   `envconfig:"USPS_USE_MOCK" default:"false"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"true"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"parcelgate-shipping"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.CatalogDriver != "memory" && cfg.CatalogDriver != "postgres" {
		return nil, fmt.Errorf("unknown catalog driver %q", cfg.CatalogDriver)
	}
	if cfg.CatalogDriver == "postgres" && cfg.CatalogDSN == "" {
		return nil, fmt.Errorf("CATALOG_DSN is required for the postgres catalog driver")
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.String("catalog.driver", c.CatalogDriver),
		attribute.Bool("flat.enabled", c.FlatEnabled),
		attribute.Bool("canadapost.enabled", c.CanadaPostEnabled),
		attribute.Bool("purolator.enabled", c.PurolatorEnabled),
		attribute.Bool("fedex.enabled", c.FedExEnabled),
		attribute.Bool("usps.enabled", c.USPSEnabled),
	}
}
