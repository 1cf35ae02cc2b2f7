package httphandler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/storeadmin/internal/application"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler is the HTTP driving adapter that serves the JSON API.
type Handler struct {
	svc    *application.SettingsService
	db     Pinger
	logger *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. db may be nil,
// in which case the health check skips the database probe.
func NewHandler(
	svc *application.SettingsService,
	db Pinger,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		svc:    svc,
		db:     db,
		logger: logger,
	}
}

// RegisterAPIRoutes registers the JSON API routes on mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/settings/catalog", h.GetCatalog)
	mux.HandleFunc("GET /api/v1/settings/{section}", h.GetSection)
}

// NewServeMux creates an http.Handler with the API routes registered and
// wrapped with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	RegisterAPIRoutes(mux, h)
	return ApplyMiddleware(mux, logger)
}

// Health returns a health check response including a database probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Database: "skipped",
		Time:     time.Now().UTC().Format(time.RFC3339),
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			h.logger.Error("health check database ping failed", "error", err)
			resp.Status = "degraded"
			resp.Database = "unreachable"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp.Database = "ok"
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetCatalog returns the section and field schema. It never includes values.
func (h *Handler) GetCatalog(w http.ResponseWriter, _ *http.Request) {
	sections := h.svc.Catalog().Sections()
	resp := make([]SectionResponse, 0, len(sections))
	for _, s := range sections {
		resp = append(resp, toSectionResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetSection returns the stored values of a non-sensitive section.
// Sensitive sections are refused regardless of any console session.
func (h *Handler) GetSection(w http.ResponseWriter, r *http.Request) {
	section := r.PathValue("section")

	if _, ok := h.svc.Catalog().Section(section); !ok {
		writeError(w, http.StatusNotFound, "section not found")
		return
	}
	if h.svc.IsSensitive(section) {
		writeError(w, http.StatusForbidden, "section requires master passcode verification")
		return
	}

	values, err := h.svc.GetBySection(r.Context(), section)
	if err != nil {
		h.logger.Error("failed to get section settings", "section", section, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, SectionValuesResponse{
		Section:  section,
		Settings: values,
	})
}
