// Package httpapi contains the chi HTTP handlers that translate HTTP
// requests/responses to and from the document service.
package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"retreatcore/internal/core"
)

// DefaultIdentityHeader carries the caller email set by the fronting
// authentication proxy.
const DefaultIdentityHeader = "X-Auth-Email"

// Options configures the HTTP handler.
type Options struct {
	// IdentityHeader names the request header carrying the authenticated
	// caller email. Empty selects DefaultIdentityHeader.
	IdentityHeader string
	// StaticDir, when non-empty, is served at the root path.
	StaticDir string
	// Logger receives request failures. Nil discards them.
	Logger *slog.Logger
}

// Handler adapts the document service to HTTP.
type Handler struct {
	svc            *core.Service
	identityHeader string
	staticDir      string
	logger         *slog.Logger
}

// New constructs the handler.
func New(svc *core.Service, opts Options) *Handler {
	header := opts.IdentityHeader
	if header == "" {
		header = DefaultIdentityHeader
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{svc: svc, identityHeader: header, staticDir: opts.StaticDir, logger: logger}
}

// Router builds the chi router with the full route set.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Post("/api/call", h.handleCall)
	r.Get("/api/init", h.handleInit)

	if h.staticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(h.staticDir)))
	}
	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

// initResponse is the page-bootstrap payload.
type initResponse struct {
	Username            string        `json:"username"`
	IsAdmin             bool          `json:"is_admin"`
	ReservationsEnabled bool          `json:"reservations_enabled"`
	ServerData          core.Response `json:"server_data"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (h *Handler) caller(r *http.Request) string {
	return r.Header.Get(h.identityHeader)
}

// handleCall applies one mutation or fetch request. User errors ride inside a
// 200 response; only invariant or storage failures produce a 500.
func (h *Handler) handleCall(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	var req core.Request
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.svc.Call(r.Context(), h.caller(r), req)
	if err != nil {
		h.logger.Error("call failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleInit returns the page-bootstrap payload for the calling identity.
func (h *Handler) handleInit(w http.ResponseWriter, r *http.Request) {
	caller := h.caller(r)
	resp, err := h.svc.Fetch(r.Context(), caller)
	if err != nil {
		h.logger.Error("init failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	isAdmin := false
	if caller != "" && resp.State != nil {
		for _, admin := range resp.State.Admins {
			if admin == caller {
				isAdmin = true
				break
			}
		}
	}
	writeJSON(w, http.StatusOK, initResponse{
		Username:            caller,
		IsAdmin:             isAdmin,
		ReservationsEnabled: h.svc.ReservationsOpen(),
		ServerData:          resp,
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
