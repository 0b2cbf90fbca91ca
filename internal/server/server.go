// Package server exposes the extraction service over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"workorder-intake-go/internal/actionable"
	"workorder-intake-go/internal/config"
	"workorder-intake-go/internal/logger"
	"workorder-intake-go/internal/processor"
	"workorder-intake-go/internal/types"
)

const maxBodyBytes = 1 << 20

type Server struct {
	processor       *processor.Processor
	log             *logger.Logger
	summary         config.Summary
	reviewThreshold float64
	metrics         http.Handler
}

func New(p *processor.Processor, log *logger.Logger, cfg config.Config, gatherer prometheus.Gatherer) *Server {
	return &Server{
		processor:       p,
		log:             log,
		summary:         cfg.Summary(),
		reviewThreshold: cfg.ReviewThreshold,
		metrics:         promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
	}
}

// Handler returns the routed API with request id propagation.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /extract", s.handleExtract)
	mux.HandleFunc("GET /config", s.handleConfig)
	mux.Handle("GET /metrics", s.metrics)
	return withRequestID(mux)
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := logger.RequestID(r)
		r.Header.Set(logger.RequestIDHeader, id)
		w.Header().Set(logger.RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.log.WithRequest(r).Debug("health check")
	fmt.Fprint(w, "ok")
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.summary, s.log.WithRequest(r))
}

// extractResponse is the response envelope plus the dispatch routing decision.
type extractResponse struct {
	types.ExtractResponse
	Routing *actionable.Routing `json:"routing,omitempty"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "extract")

	var req types.ExtractRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		reqLog.WithError(err).Warn("malformed request body")
		writeJSON(w, http.StatusBadRequest, types.NewErrorResponse(fmt.Errorf("invalid JSON body: %w", err)), reqLog)
		return
	}
	reqLog = reqLog.WithField("text_len", len(req.RawText))

	start := time.Now()
	res, err := s.processor.Process(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, processor.ErrEmptyInput) {
			status = http.StatusBadRequest
		}
		reqLog.WithError(err).WithField("status", status).Warn("extract request rejected")
		writeJSON(w, status, types.NewErrorResponse(err), reqLog)
		return
	}

	routing := actionable.Route(res, s.reviewThreshold)
	reqLog.WithFields(logrus.Fields{
		"duration_ms": time.Since(start).Milliseconds(),
		"source":      res.Source,
		"confidence":  res.Confidence,
		"decision":    routing.Decision,
	}).Info("extract request finished")

	writeJSON(w, http.StatusOK, extractResponse{
		ExtractResponse: types.NewSuccessResponse(res),
		Routing:         &routing,
	}, reqLog)
}

func writeJSON(w http.ResponseWriter, status int, v any, log *logrus.Entry) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.WithError(err).Error("failed to write response")
	}
}
