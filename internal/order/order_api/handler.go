package order_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"gba-rental/internal/auth"
	"gba-rental/internal/logger"
	"gba-rental/internal/models"
	"gba-rental/internal/order"
	orderdb "gba-rental/internal/order/db"
	"gba-rental/internal/voucher"
)

type Handler struct {
	OrderService *order.OrderService
	Reconciler   *order.Reconciler
	Vouchers     *voucher.Generator
	Logger       *logger.Logger

	validate *validator.Validate
}

func NewHandler(orderService *order.OrderService, reconciler *order.Reconciler, vouchers *voucher.Generator, log *logger.Logger) *Handler {
	return &Handler{
		OrderService: orderService,
		Reconciler:   reconciler,
		Vouchers:     vouchers,
		Logger:       log,
		validate:     validator.New(),
	}
}

// CreateOrder handles checkout: validates the request, then runs the
// order/payment-intent flow for the authenticated user.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "CreateOrder: received request")

	var orderReq models.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&orderReq); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateOrder: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(orderReq); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("CreateOrder: validation failed: %v", err))
		http.Error(w, "Invalid order request: "+err.Error(), http.StatusBadRequest)
		return
	}

	userID := auth.UserID(r.Context())
	response, err := h.OrderService.CreateOrder(userID, orderReq)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrVehicleNotFound):
			h.Logger.Warn("API", fmt.Sprintf("CreateOrder: vehicle not found: %v", err))
			http.Error(w, "Vehicle not found", http.StatusNotFound)
		case errors.Is(err, order.ErrPaymentUpstream):
			h.Logger.Error("API", fmt.Sprintf("CreateOrder: payment gateway failure: %v", err))
			http.Error(w, "Payment gateway error", http.StatusInternalServerError)
		default:
			h.Logger.Error("API", fmt.Sprintf("CreateOrder: failed to create order: %v", err))
			http.Error(w, "Failed to create order", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateOrder: failed to encode response: %v", err))
		return
	}
	h.Logger.Info("API", fmt.Sprintf("CreateOrder: order %s created", response.OrderID))
}

// GetOrder returns a single order. Owners see their own orders, admins
// see everything.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	h.Logger.Info("API", fmt.Sprintf("GetOrder: orderId=%s", orderID))

	orderData, err := h.OrderService.GetOrder(orderID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetOrder: order not found: %v", err))
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}

	if !h.callerOwns(r, orderData) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(orderData); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetOrder: failed to encode response: %v", err))
	}
}

// CheckOrderStatus returns the order with diagnostic gateway cross-check
// fields. Read-only; never mutates order state.
func (h *Handler) CheckOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	h.Logger.Info("API", fmt.Sprintf("CheckOrderStatus: orderId=%s", orderID))

	view, err := h.OrderService.CheckOrderStatus(orderID)
	if err != nil {
		if errors.Is(err, orderdb.ErrOrderNotFound) {
			http.Error(w, "Order not found", http.StatusNotFound)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("CheckOrderStatus: failed: %v", err))
		http.Error(w, "Failed to check order status", http.StatusInternalServerError)
		return
	}

	if !h.callerOwns(r, view.Order) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(view); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CheckOrderStatus: failed to encode response: %v", err))
	}
}

// ListMyOrders returns the authenticated user's orders.
func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	h.Logger.Info("API", fmt.Sprintf("ListMyOrders: userId=%s", userID))

	orders, err := h.OrderService.ListOrdersByUser(userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListMyOrders: failed: %v", err))
		http.Error(w, "Failed to list orders", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(orders); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListMyOrders: failed to encode response: %v", err))
	}
}

// StripeWebhook receives signed provider events and hands them to the
// reconciler. The raw body is read before any parsing so signature
// verification sees the exact bytes the provider signed.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "StripeWebhook: received webhook event")

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("StripeWebhook: failed to read payload: %v", err))
		http.Error(w, "Invalid webhook payload", http.StatusBadRequest)
		return
	}

	if err := h.Reconciler.HandleEvent(payload, r.Header.Get("Stripe-Signature")); err != nil {
		h.Logger.Error("API", fmt.Sprintf("StripeWebhook: failed to process webhook: %v", err))

		var webhookErr *order.WebhookError
		if errors.As(err, &webhookErr) {
			http.Error(w, webhookErr.PublicError, webhookErr.StatusCode)
			return
		}
		http.Error(w, "Webhook processing error", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"received": true}`))
	h.Logger.Info("API", "StripeWebhook: event acknowledged")
}

// GetPickupVoucher renders the encrypted pickup QR for a paid order.
func (h *Handler) GetPickupVoucher(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	orderData, err := h.OrderService.GetOrder(orderID)
	if err != nil {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}
	if !h.callerOwns(r, orderData) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if orderData.Status != models.OrderPaid {
		http.Error(w, "Voucher is only available for paid orders", http.StatusConflict)
		return
	}

	png, err := h.Vouchers.GeneratePickupQR(*orderData)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetPickupVoucher: failed to render QR: %v", err))
		http.Error(w, "Failed to generate voucher", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (h *Handler) callerOwns(r *http.Request, o *models.Order) bool {
	if auth.Role(r.Context()) == "admin" {
		return true
	}
	return o.UserID == auth.UserID(r.Context())
}
