package carrier

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Gateway fans a rate request out to every registered carrier and merges
// the results into one collection. It is an explicit value: construct it
// with a registry and pass it by reference; no process-wide singleton.
type Gateway struct {
	registry *Registry
	logger   *otelzap.Logger
	tracer   trace.Tracer
	timeout  time.Duration
}

// GatewayConfig holds gateway tuning.
type GatewayConfig struct {
	// CallTimeout bounds each individual carrier call. Zero means 30s.
	CallTimeout time.Duration
}

// NewGateway creates a gateway over the given registry.
func NewGateway(cfg GatewayConfig, registry *Registry, logger *otelzap.Logger, tracer trace.Tracer) *Gateway {
	timeout := cfg.CallTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Gateway{
		registry: registry,
		logger:   logger,
		tracer:   tracer,
		timeout:  timeout,
	}
}

// Registry returns the registry the gateway fans out over.
func (g *Gateway) Registry() *Registry {
	return g.registry
}

// Rates queries all registered carriers and merges their collections in
// registration order. Fail-fast: the first carrier error aborts the whole
// aggregation and is returned; results from other carriers are discarded.
// Carriers with no applicable product (an empty collection) are skipped
// silently.
func (g *Gateway) Rates(ctx context.Context, from, to Address, packages PackageSet) (*RateCollection, error) {
	outcomes, err := g.fanOut(ctx, from, to, packages, true)
	if err != nil {
		return nil, err
	}
	return mergeOutcomes(outcomes), nil
}

// CollectRates queries all registered carriers and continues past
// per-carrier failures: the partial aggregate is returned together with the
// collected errors, in carrier call order.
func (g *Gateway) CollectRates(ctx context.Context, from, to Address, packages PackageSet) (*RateCollection, []error) {
	outcomes, _ := g.fanOut(ctx, from, to, packages, false)
	var errs []error
	for _, o := range outcomes {
		if o.err != nil {
			errs = append(errs, o.err)
		}
	}
	return mergeOutcomes(outcomes), errs
}

// Ship purchases labels through a single named carrier.
func (g *Gateway) Ship(ctx context.Context, name string, from ShipFrom, to ShipTo, packages PackageSet, service Service, customs *CustomsDeclaration, extra map[string]string) (ShipmentCollection, error) {
	c, err := g.registry.Get(name)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return c.Ship(ctx, from, to, packages, service, customs, extra)
}

type outcome struct {
	carrier string
	rates   *RateCollection
	err     error
}

// fanOut issues one Rates call per carrier concurrently. Outcomes are
// recorded by registry position so the merge stays deterministic no matter
// which call finishes first. With failFast set, the first failure cancels
// the remaining calls and is returned.
func (g *Gateway) fanOut(ctx context.Context, from, to Address, packages PackageSet, failFast bool) ([]outcome, error) {
	if g.tracer != nil {
		var span trace.Span
		ctx, span = g.tracer.Start(ctx, "gateway.rates",
			trace.WithAttributes(attribute.Int("carrier.count", g.registry.Count())))
		defer span.End()
	}

	carriers := g.registry.All()
	outcomes := make([]outcome, len(carriers))

	grp, groupCtx := errgroup.WithContext(ctx)
	for i, c := range carriers {
		i, c := i, c
		grp.Go(func() error {
			callCtx, cancel := context.WithTimeout(groupCtx, g.timeout)
			defer cancel()

			rates, err := c.Rates(callCtx, from, to, packages)
			if err != nil {
				err = fmt.Errorf("%s: %w", c.Name(), err)
				outcomes[i] = outcome{carrier: c.Name(), err: err}
				g.logger.Ctx(callCtx).Warn("Carrier rate query failed",
					zap.String("carrier", c.Name()),
					zap.Error(err),
				)
				if failFast {
					return err
				}
				return nil
			}
			outcomes[i] = outcome{carrier: c.Name(), rates: rates}
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// mergeOutcomes folds per-carrier collections into one, in registry order,
// so first-appearance positions are stable across concurrent completions.
func mergeOutcomes(outcomes []outcome) *RateCollection {
	result := NewRateCollection()
	for _, o := range outcomes {
		if o.err != nil || o.rates == nil || o.rates.Len() == 0 {
			continue
		}
		result.Merge(o.rates)
	}
	return result
}
