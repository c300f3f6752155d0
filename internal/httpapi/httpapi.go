// Package httpapi exposes the command layer over HTTP for the desktop shell.
// Handlers stay thin: decode, call the service with the caller's bearer
// token, map the error to a status. All authorization lives in the service.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"fogonpos/backend/internal/service"
	"fogonpos/backend/internal/session"
	"fogonpos/backend/internal/store"
)

type API struct {
	service *service.Service
	logger  *zap.Logger
}

func New(svc *service.Service, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{service: svc, logger: logger}
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(a.requestLogger)
	r.Use(metricsMiddleware)

	r.Get("/healthz", a.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", a.handleLogin)
		r.Post("/auth/logout", a.handleLogout)
		r.Get("/auth/session", a.handleSession)

		r.Get("/products", a.handleListProducts)
		r.Post("/products", a.handleCreateProduct)
		r.Patch("/products/{id}", a.handleUpdateProduct)
		r.Delete("/products/{id}", a.handleDeleteProduct)

		r.Post("/orders", a.handleCreateOrder)
		r.Get("/orders", a.handleListOrders)
		r.Get("/orders/{id}", a.handleGetOrder)
		r.Patch("/orders/{id}/status", a.handleOrderStatus)
		r.Delete("/orders/{id}", a.handleDeleteOrder)

		r.Route("/cash/shifts", func(r chi.Router) {
			r.Post("/open", a.handleShiftOpen)
			r.Get("/active", a.handleShiftActive)
			r.Post("/{id}/movements", a.handleShiftMovement)
			r.Post("/{id}/close", a.handleShiftClose)
			r.Get("/", a.handleListShifts)
		})

		r.Get("/users", a.handleListUsers)
		r.Post("/users", a.handleCreateUser)
		r.Patch("/users/{id}", a.handleUpdateUser)
		r.Delete("/users/{id}", a.handleDeleteUser)

		r.Get("/expenses", a.handleListExpenses)
		r.Post("/expenses", a.handleCreateExpense)
		r.Delete("/expenses/{id}", a.handleDeleteExpense)

		r.Get("/reports/overview", a.handleSalesOverview)
		r.Get("/reports/pnl", a.handleProfitLoss)
		r.Get("/reports/monthly", a.handleMonthlyPnL)
	})

	return r
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		a.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// bearerToken extracts the opaque session token; an absent header surfaces
// later as ErrNoSession from the service.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return token
	}
	return ""
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func queryInt64(r *http.Request, key string, fallback int64) int64 {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 {
		return parsed
	}
	return fallback
}

// queryTime accepts YYYY-MM-DD or RFC 3339.
func queryTime(r *http.Request, key string, fallback time.Time) time.Time {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	return fallback
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNoSession), errors.Is(err, service.ErrBadCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, store.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= 500 {
		// Storage errors carry connection strings and SQL; the client gets
		// an opaque message and the detail goes to the log.
		a.logger.Error("internal error", zap.Error(err))
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
