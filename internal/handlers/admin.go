package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/deimos91-cmyk/felpe-scuola/internal/domain"
	"github.com/deimos91-cmyk/felpe-scuola/internal/platform/auth"
	"github.com/deimos91-cmyk/felpe-scuola/internal/platform/httpx"
	"github.com/deimos91-cmyk/felpe-scuola/internal/platform/observability"
	"github.com/deimos91-cmyk/felpe-scuola/internal/platform/requestctx"
	"github.com/deimos91-cmyk/felpe-scuola/internal/platform/session"
	"github.com/deimos91-cmyk/felpe-scuola/internal/services"
)

const maxLoginBodySize = 4 * 1024

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type orderPayload struct {
	ID          string    `json:"id"`
	ProductType string    `json:"productType"`
	ModelKey    string    `json:"modelKey"`
	Variant     string    `json:"variant"`
	Color       string    `json:"color"`
	Size        string    `json:"size,omitempty"`
	Qty         int       `json:"qty"`
	Name        string    `json:"name"`
	ClassName   string    `json:"className"`
	Contact     string    `json:"contact"`
	Notes       string    `json:"notes,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

type orderListResponse struct {
	Orders []orderPayload `json:"orders"`
}

// AdminHandlers exposes the session-guarded triage API.
type AdminHandlers struct {
	orders    services.OrderService
	sessions  *session.Manager
	passwords *auth.PasswordClient
	verifier  *auth.FirebaseVerifier
}

// NewAdminHandlers constructs the admin API handlers.
func NewAdminHandlers(orders services.OrderService, sessions *session.Manager, passwords *auth.PasswordClient, verifier *auth.FirebaseVerifier) *AdminHandlers {
	return &AdminHandlers{
		orders:    orders,
		sessions:  sessions,
		passwords: passwords,
		verifier:  verifier,
	}
}

// Routes registers the admin endpoints. Everything below /orders requires a
// valid session cookie.
func (h *AdminHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
	r.Group(func(r chi.Router) {
		r.Use(h.requireSession)
		r.Get("/orders", h.listOrders)
		r.Get("/orders/stream", h.streamOrders)
		r.Post("/orders/{orderID}/seen", h.markSeen)
		r.Delete("/orders/{orderID}", h.deleteOrder)
		r.Delete("/orders", h.deleteAllOrders)
	})
}

// login verifies the credentials against Identity Toolkit and issues the
// session cookie. Every rejection maps to the same generic envelope.
func (h *AdminHandlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	body := http.MaxBytesReader(w, r.Body, maxLoginBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	result, err := h.passwords.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_credentials", "invalid email or password", http.StatusUnauthorized))
			return
		}
		requestctx.Logger(ctx).Error("admin sign-in failed", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("auth_unavailable", "authentication backend unavailable", http.StatusServiceUnavailable))
		return
	}

	token, err := h.verifier.VerifyIDToken(ctx, result.IDToken)
	if err != nil {
		requestctx.Logger(ctx).Error("id token verification failed", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("invalid_credentials", "invalid email or password", http.StatusUnauthorized))
		return
	}

	if err := h.sessions.Issue(w, session.User{UID: token.UID, Email: result.Email}); err != nil {
		requestctx.Logger(ctx).Error("session issue failed", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "could not establish session", http.StatusInternalServerError))
		return
	}

	requestctx.Logger(ctx).Info("admin signed in", zap.String("uid", observability.SanitizeUserID(token.UID)))
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Destroy(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := h.sessions.Load(r); err != nil {
			httpx.WriteError(r.Context(), w, httpx.NewError("unauthorized", "admin session required", http.StatusUnauthorized))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *AdminHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := services.OrderListFilter{OnlyNew: r.URL.Query().Get("only_new") == "1"}
	orders, err := h.orders.List(ctx, filter)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderListResponse(orders))
}

// streamOrders pushes full-list replacements over SSE until the client
// disconnects.
func (h *AdminHandlers) streamOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	flusher, ok := w.(http.Flusher)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("streaming_unsupported", "response writer does not support streaming", http.StatusInternalServerError))
		return
	}

	feed, err := h.orders.Watch(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	defer feed.Stop()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case orders, open := <-feed.Updates():
			if !open {
				if err := feed.Err(); err != nil {
					requestctx.Logger(ctx).Error("order feed closed", zap.Error(err))
				}
				return
			}
			payload, err := json.Marshal(toOrderListResponse(orders))
			if err != nil {
				requestctx.Logger(ctx).Error("order feed encode failed", zap.Error(err))
				return
			}
			fmt.Fprintf(w, "event: orders\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

func (h *AdminHandlers) markSeen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.orders.MarkSeen(ctx, chi.URLParam(r, "orderID")); err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) deleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.orders.Delete(ctx, chi.URLParam(r, "orderID")); err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deleteAllOrders wipes the collection. Batches committed before a failure
// stay deleted; the error envelope reports the partial progress.
func (h *AdminHandlers) deleteAllOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.orders.DeleteAll(ctx)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("bulk_delete_failed", "bulk delete did not complete", http.StatusServiceUnavailable).
			WithDetails(map[string]any{"deleted": result.Deleted, "batches": result.Batches}))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"deleted": result.Deleted, "batches": result.Batches})
}

func (h *AdminHandlers) writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_input", "invalid order reference", http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("backend_unavailable", "order backend unavailable", http.StatusServiceUnavailable))
	default:
		requestctx.Logger(ctx).Error("admin order operation failed", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "internal error", http.StatusInternalServerError))
	}
}

func toOrderListResponse(orders []domain.Order) orderListResponse {
	payloads := make([]orderPayload, 0, len(orders))
	for _, order := range orders {
		payloads = append(payloads, orderPayload{
			ID:          order.ID,
			ProductType: order.ProductType,
			ModelKey:    string(order.ModelKey),
			Variant:     string(order.Variant),
			Color:       order.Color,
			Size:        order.Size,
			Qty:         order.Qty,
			Name:        order.Name,
			ClassName:   order.ClassName,
			Contact:     order.Contact,
			Notes:       order.Notes,
			Status:      string(order.EffectiveStatus()),
			CreatedAt:   order.CreatedAt,
		})
	}
	return orderListResponse{Orders: payloads}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
