package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/parcelgate/shipping/pkg/carrier"
	"go.uber.org/zap"
)

func (s *Server) handleCarriers(w http.ResponseWriter, r *http.Request) {
	carriers := s.gateway.Registry().All()

	out := make([]carrierDTO, 0, len(carriers))
	for _, c := range carriers {
		groups := c.Services()
		dtoGroups := make([]serviceGroupDTO, 0, len(groups))
		for _, g := range groups {
			services := make([]serviceDTO, 0, len(g.Services))
			for _, sv := range g.Services {
				services = append(services, serviceDTO{Code: sv.Code, Name: sv.Name})
			}
			dtoGroups = append(dtoGroups, serviceGroupDTO{Category: g.Category, Services: services})
		}
		out = append(out, carrierDTO{
			Name:           c.Name(),
			CredentialKeys: c.CredentialKeys(),
			Services:       dtoGroups,
		})
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"carriers": out})
}

// handleRates prices a shipment. Without a carrier the gateway fans out to
// every registered carrier; ?mode=collect switches from fail-fast to
// best-effort aggregation with per-carrier errors in the response.
func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req ratesRequestDTO
	if !s.decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	from := req.From.toModel()
	to := req.To.toModel()
	packages := packagesToModel(req.Packages)

	var (
		rc   *carrier.RateCollection
		errs []error
		err  error
	)
	switch {
	case req.Carrier != "":
		var c carrier.Carrier
		c, err = s.gateway.Registry().Get(req.Carrier)
		if err == nil {
			if req.Service != nil {
				svc := carrier.Service{Code: req.Service.Code, Name: req.Service.Name}
				rc, err = c.Rate(ctx, from, to, packages, &svc)
			} else {
				rc, err = c.Rates(ctx, from, to, packages)
			}
		}
	case r.URL.Query().Get("mode") == "collect":
		rc, errs = s.gateway.CollectRates(ctx, from, to, packages)
	default:
		rc, err = s.gateway.Rates(ctx, from, to, packages)
	}

	if err != nil {
		s.metrics.RecordRequest("rates", req.Carrier, "error", time.Since(start).Seconds())
		s.writeError(w, err)
		return
	}

	for _, e := range errs {
		if ce, ok := carrier.AsError(e); ok {
			s.metrics.RecordError(ce.Carrier, string(ce.Kind))
		}
	}

	s.metrics.RecordRequest("rates", req.Carrier, "ok", time.Since(start).Seconds())
	s.metrics.RecordRates(req.Carrier, rc.Len())
	s.writeJSON(w, http.StatusOK, ratesResponseDTO{
		Rates:  ratesToDTO(rc),
		Errors: errorsToDTO(errs),
	})
}

// handleShipments purchases labels from a single named carrier.
func (s *Server) handleShipments(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req shipmentsRequestDTO
	if !s.decode(w, r, &req) {
		return
	}

	customs, err := req.Customs.toModel()
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": errorDTO{Message: err.Error()}})
		return
	}

	shipments, err := s.gateway.Ship(r.Context(), req.Carrier,
		req.From.toShipFrom(), req.To.toShipTo(),
		packagesToModel(req.Packages),
		carrier.Service{Code: req.Service.Code, Name: req.Service.Name},
		customs, req.Extra)
	if err != nil {
		s.metrics.RecordRequest("ship", req.Carrier, "error", time.Since(start).Seconds())
		s.writeError(w, err)
		return
	}

	s.metrics.RecordRequest("ship", req.Carrier, "ok", time.Since(start).Seconds())
	s.writeJSON(w, http.StatusCreated, shipmentsResponseDTO{Shipments: shipmentsToDTO(shipments)})
}

// decode parses and validates the request body. Returns false after
// writing the error response.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": errorDTO{Message: "invalid JSON: " + err.Error()},
		})
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": errorDTO{Message: err.Error()},
		})
		return false
	}
	return true
}

// writeError maps the error taxonomy onto HTTP statuses. Shipment
// parameter problems are the caller's fault (422); credential and
// transport failures are upstream faults (502).
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway

	switch {
	case errors.Is(err, carrier.ErrCarrierNotFound):
		status = http.StatusNotFound
	case carrier.IsKind(err, carrier.KindPriceNotFound):
		status = http.StatusNotFound
	case isValidationKind(carrier.KindOf(err)):
		status = http.StatusUnprocessableEntity
	}

	if ce, ok := carrier.AsError(err); ok {
		s.metrics.RecordError(ce.Carrier, string(ce.Kind))
	}
	s.logger.Warn("Request failed", zap.Error(err), zap.Int("status", status))
	s.writeJSON(w, status, map[string]any{"error": errorToDTO(err)})
}

func isValidationKind(kind carrier.Kind) bool {
	switch kind {
	case carrier.KindEmptyPackages,
		carrier.KindOverweightPackage,
		carrier.KindInvalidShipmentParameters,
		carrier.KindInvalidService,
		carrier.KindInvalidAddress,
		carrier.KindInvalidOriginPostalCode,
		carrier.KindCustomsDeclarationMissing:
		return true
	}
	return false
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("Failed to encode response", zap.Error(err))
	}
}
