package report

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/faida-app/faida/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the reporting module.
type Handler struct {
	logger   *slog.Logger
	calc     *Calculator
	store    *Store
	clock    *Clock
	validate *validator.Validate
}

// NewHandler constructs the report handler.
func NewHandler(logger *slog.Logger, calc *Calculator, store *Store, clock *Clock) *Handler {
	return &Handler{
		logger:   logger,
		calc:     calc,
		store:    store,
		clock:    clock,
		validate: validator.New(),
	}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/daily", h.handleDaily)
	r.Get("/history", h.handleHistory)
	r.Post("/generate", h.handleGenerate)
}

// handleDaily computes the report live, without persisting. The date
// defaults to the current local day, which makes this the "today"
// dashboard read.
func (h *Handler) handleDaily(w http.ResponseWriter, r *http.Request) {
	vendeurID, ok := h.vendeurID(w, r)
	if !ok {
		return
	}
	day := h.clock.Today()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := ParseDate(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	computed, err := h.calc.Compute(r.Context(), vendeurID, day)
	if err != nil {
		h.logger.Error("compute daily report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ReportResponse{
		Date:    day.String(),
		Live:    h.clock.IsToday(day),
		Rows:    viewRows(computed.Rows),
		Overall: viewOverall(computed.Overall()),
	})
}

// handleHistory returns the persisted rows for a date.
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	vendeurID, ok := h.vendeurID(w, r)
	if !ok {
		return
	}
	raw := r.URL.Query().Get("date")
	if raw == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date is required")
		return
	}
	day, err := ParseDate(raw)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
		return
	}

	rows, overall, err := h.store.History(r.Context(), vendeurID, day)
	if err != nil {
		if errors.Is(err, ErrReportNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no report for "+day.String())
			return
		}
		h.logger.Error("load report history", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ReportResponse{
		Date:    day.String(),
		Rows:    viewRows(rows),
		Overall: viewOverall(overall),
	})
}

// handleGenerate runs the persistence pipeline for an explicit date,
// defaulting to yesterday.
func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	day := h.clock.Yesterday()
	if req.Date != "" {
		parsed, err := ParseDate(req.Date)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	computed, err := h.store.Persist(r.Context(), req.VendeurID, day)
	if err != nil {
		h.logger.Error("persist daily report", slog.Any("error", err), slog.String("date", day.String()))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ReportResponse{
		Date:    day.String(),
		Rows:    viewRows(computed.Rows),
		Overall: viewOverall(computed.Overall()),
	})
}

func (h *Handler) vendeurID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("vendeur_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "vendeur_id must be a positive integer")
		return 0, false
	}
	return id, true
}
