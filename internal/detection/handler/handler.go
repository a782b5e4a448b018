package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"scrutiny/internal/anomaly"
	"scrutiny/internal/detection"
	"scrutiny/internal/ledger"
	"scrutiny/internal/register"
	"scrutiny/pkg/domain"
	dErrors "scrutiny/pkg/domain-errors"
	"scrutiny/pkg/platform/httputil"
	"scrutiny/pkg/requestcontext"
)

// Service defines the interface for detection operations.
type Service interface {
	RunFullDetection(ctx context.Context) (*detection.Report, error)
	VerifyLedgerIntegrity(ctx context.Context, chain domain.ChainType) (ledger.Result, error)
	DetectDuplicates(ctx context.Context, scope domain.Scope, mode domain.MatchMode) ([]register.DuplicateFinding, error)
	DetectAnomalies(ctx context.Context) (map[domain.FindingCategory][]anomaly.Finding, error)
	Stats(ctx context.Context) (detection.Stats, error)
}

// Handler wires detection endpoints to the detection service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a detection handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts detection endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/detection/run", h.HandleRun)
	r.Post("/detection/ledger/{chain}/verify", h.HandleVerifyLedger)
	r.Get("/detection/duplicates", h.HandleDuplicates)
	r.Get("/detection/anomalies", h.HandleAnomalies)
	r.Get("/detection/stats", h.HandleStats)
}

// HandleRun handles POST /detection/run requests. The full sweep can take a
// while on a large register, so the body is written only when every check has
// settled.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	operatorID := requestcontext.OperatorID(ctx)
	if operatorID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	report, err := h.service.RunFullDetection(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "full detection run failed",
			"request_id", requestID,
			"operator_id", operatorID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "full detection run completed",
		"request_id", requestID,
		"operator_id", operatorID,
		"report_id", report.ReportID,
		"severity", report.Severity,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromReport(report))
}

// HandleVerifyLedger handles POST /detection/ledger/{chain}/verify requests.
func (h *Handler) HandleVerifyLedger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	chain, err := domain.ParseChainType(chi.URLParam(r, "chain"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.VerifyLedgerIntegrity(ctx, chain)
	if err != nil {
		h.logger.ErrorContext(ctx, "ledger verification failed",
			"request_id", requestID,
			"chain", chain,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromChainResult(chain, result))
}

// HandleDuplicates handles GET /detection/duplicates requests. Accepts
// optional region and mode query parameters.
func (h *Handler) HandleDuplicates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	mode, err := domain.ParseMatchMode(r.URL.Query().Get("mode"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	scope := domain.Scope{Region: r.URL.Query().Get("region")}

	findings, err := h.service.DetectDuplicates(ctx, scope, mode)
	if err != nil {
		h.logger.ErrorContext(ctx, "duplicate detection failed",
			"request_id", requestID,
			"region", scope.Region,
			"mode", mode,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromDuplicates(findings))
}

// HandleAnomalies handles GET /detection/anomalies requests.
func (h *Handler) HandleAnomalies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	grouped, err := h.service.DetectAnomalies(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "anomaly detection failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromAnomalies(grouped))
}

// HandleStats handles GET /detection/stats requests.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.service.Stats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "stats lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, stats)
}
