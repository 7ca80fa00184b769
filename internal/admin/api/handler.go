package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"gba-rental/internal/admin"
	"gba-rental/internal/logger"
	"gba-rental/internal/models"
	"gba-rental/internal/notification"
	"gba-rental/internal/order"
	orderdb "gba-rental/internal/order/db"
	"gba-rental/internal/user"
	userdb "gba-rental/internal/user/db"
)

type Handler struct {
	AdminService *admin.Service
	OrderService *order.OrderService
	UserService  *user.UserService
	Dispatcher   *notification.Dispatcher
	Logger       *logger.Logger

	validate *validator.Validate
}

func NewHandler(adminService *admin.Service, orderService *order.OrderService, userService *user.UserService, dispatcher *notification.Dispatcher, log *logger.Logger) *Handler {
	return &Handler{
		AdminService: adminService,
		OrderService: orderService,
		UserService:  userService,
		Dispatcher:   dispatcher,
		Logger:       log,
		validate:     validator.New(),
	}
}

// Stats serves the dashboard aggregates.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.AdminService.Stats()
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Stats: failed: %v", err))
		http.Error(w, "Failed to compute dashboard stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Stats: failed to encode response: %v", err))
	}
}

// ListUsers returns every registered user.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.UserService.ListUsers()
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListUsers: failed: %v", err))
		http.Error(w, "Failed to list users", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(users); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListUsers: failed to encode response: %v", err))
	}
}

// UpdateUser patches a user's profile or role.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	var req models.UserUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, "Invalid update: "+err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.UserService.UpdateUser(userID, req)
	if err != nil {
		if errors.Is(err, userdb.ErrUserNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("UpdateUser: failed: %v", err))
		http.Error(w, "Failed to update user", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(updated); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateUser: failed to encode response: %v", err))
	}
}

// DeleteUser removes an account.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	if err := h.UserService.DeleteUser(userID); err != nil {
		if errors.Is(err, userdb.ErrUserNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("DeleteUser: failed: %v", err))
		http.Error(w, "Failed to delete user", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListOrders returns every order in the system.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.OrderService.ListAllOrders()
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListOrders: failed: %v", err))
		http.Error(w, "Failed to list orders", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(orders); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListOrders: failed to encode response: %v", err))
	}
}

// UpdateOrderStatus is the manual admin override for an order's status.
// It never touches payment fields; those belong to the reconciler.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	var req models.OrderStatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, "Invalid status: "+err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.OrderService.UpdateOrderStatus(orderID, req.Status)
	if err != nil {
		if errors.Is(err, orderdb.ErrOrderNotFound) {
			http.Error(w, "Order not found", http.StatusNotFound)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("UpdateOrderStatus: failed: %v", err))
		http.Error(w, "Failed to update order status", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(updated); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateOrderStatus: failed to encode response: %v", err))
	}
}

// ApproveOrder queues the approval email for an order's customer.
func (h *Handler) ApproveOrder(w http.ResponseWriter, r *http.Request) {
	h.notifyCustomer(w, r, h.Dispatcher.OrderApproved, "approval")
}

// RejectOrder queues the rejection email for an order's customer.
func (h *Handler) RejectOrder(w http.ResponseWriter, r *http.Request) {
	h.notifyCustomer(w, r, h.Dispatcher.OrderRejected, "rejection")
}

// SendPaymentReminder queues a payment nudge for an unpaid order.
func (h *Handler) SendPaymentReminder(w http.ResponseWriter, r *http.Request) {
	h.notifyCustomer(w, r, h.Dispatcher.PaymentReminder, "payment reminder")
}

// SendRentalSummary queues the recap email for a finished rental.
func (h *Handler) SendRentalSummary(w http.ResponseWriter, r *http.Request) {
	h.notifyCustomer(w, r, h.Dispatcher.RentalSummary, "rental summary")
}

func (h *Handler) notifyCustomer(w http.ResponseWriter, r *http.Request, dispatch func(models.Order, models.User) error, label string) {
	orderID := chi.URLParam(r, "orderId")

	orderData, err := h.OrderService.GetOrder(orderID)
	if err != nil {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}

	customer, err := h.UserService.GetProfile(orderData.UserID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("notifyCustomer: customer %s not found for order %s: %v", orderData.UserID, orderID, err))
		http.Error(w, "Customer not found", http.StatusNotFound)
		return
	}

	if err := dispatch(*orderData, *customer); err != nil {
		h.Logger.Error("API", fmt.Sprintf("notifyCustomer: failed to queue %s notification: %v", label, err))
		http.Error(w, "Failed to queue notification", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": label + " notification queued"})
}
