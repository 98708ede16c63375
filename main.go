package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/parcelgate/shipping/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "shipping",
	Short:   "ParcelGate Shipping - multi-carrier rate and label gateway",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

var carriersCmd = &cobra.Command{
	Use:   "carriers",
	Short: "List configured carriers and their service catalogs",
	RunE:  runCarriers,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(carriersCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tracer, tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(ctx)
	}

	store, err := initCatalog(ctx, cfg)
	if err != nil {
		return err
	}

	gateway := initGateway(ctx, cfg, store, logger, tracer)

	logger.Info("Starting ParcelGate Shipping",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.Strings("carriers", gateway.Registry().Names()),
	)

	srv := server.New(server.Config{Port: cfg.Port}, gateway, logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runCarriers(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := initLogger("error")
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := initCatalog(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	gateway := initGateway(cmd.Context(), cfg, store, logger, nil)

	type catalogEntry struct {
		Name           string              `json:"name"`
		CredentialKeys []string            `json:"credential_keys"`
		Services       map[string][]string `json:"services"`
	}

	entries := make([]catalogEntry, 0, gateway.Registry().Count())
	for _, c := range gateway.Registry().All() {
		services := make(map[string][]string)
		for _, group := range c.Services() {
			for _, svc := range group.Services {
				services[group.Category] = append(services[group.Category], svc.Code)
			}
		}
		entries = append(entries, catalogEntry{
			Name:           c.Name(),
			CredentialKeys: c.CredentialKeys(),
			Services:       services,
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
