package vehicle_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"gba-rental/internal/logger"
	"gba-rental/internal/models"
	"gba-rental/internal/vehicle"
	vehicledb "gba-rental/internal/vehicle/db"
)

type Handler struct {
	VehicleService *vehicle.VehicleService
	Importer       *vehicle.Importer
	Logger         *logger.Logger

	validate *validator.Validate
}

func NewHandler(service *vehicle.VehicleService, importer *vehicle.Importer, log *logger.Logger) *Handler {
	return &Handler{
		VehicleService: service,
		Importer:       importer,
		Logger:         log,
		validate:       validator.New(),
	}
}

// SearchVehicles lists the catalog with optional brand/model/year filters
// and pagination. Public endpoint.
func (h *Handler) SearchVehicles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.VehicleFilter{
		Brand: q.Get("brand"),
		Model: q.Get("model"),
	}
	filter.Year, _ = strconv.Atoi(q.Get("year"))
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	page, err := h.VehicleService.SearchVehicles(filter)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("SearchVehicles: failed: %v", err))
		http.Error(w, "Failed to search vehicles", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(page); err != nil {
		h.Logger.Error("API", fmt.Sprintf("SearchVehicles: failed to encode response: %v", err))
	}
}

// GetVehicle returns a single catalog entry. Public endpoint.
func (h *Handler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	vehicleID := chi.URLParam(r, "vehicleId")

	v, err := h.VehicleService.GetVehicle(vehicleID)
	if err != nil {
		if errors.Is(err, vehicledb.ErrVehicleNotFound) {
			http.Error(w, "Vehicle not found", http.StatusNotFound)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("GetVehicle: failed: %v", err))
		http.Error(w, "Failed to fetch vehicle", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetVehicle: failed to encode response: %v", err))
	}
}

// CreateVehicle adds a catalog entry (admin).
func (h *Handler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var req models.VehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, "Invalid vehicle: "+err.Error(), http.StatusBadRequest)
		return
	}

	v, err := h.VehicleService.CreateVehicle(req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateVehicle: failed: %v", err))
		http.Error(w, "Failed to create vehicle", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateVehicle: failed to encode response: %v", err))
	}
}

// UpdateVehicle replaces a catalog entry (admin).
func (h *Handler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	vehicleID := chi.URLParam(r, "vehicleId")

	var req models.VehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, "Invalid vehicle: "+err.Error(), http.StatusBadRequest)
		return
	}

	v, err := h.VehicleService.UpdateVehicle(vehicleID, req)
	if err != nil {
		if errors.Is(err, vehicledb.ErrVehicleNotFound) {
			http.Error(w, "Vehicle not found", http.StatusNotFound)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("UpdateVehicle: failed: %v", err))
		http.Error(w, "Failed to update vehicle", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateVehicle: failed to encode response: %v", err))
	}
}

// DeleteVehicle removes a catalog entry (admin).
func (h *Handler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	vehicleID := chi.URLParam(r, "vehicleId")

	if err := h.VehicleService.DeleteVehicle(vehicleID); err != nil {
		if errors.Is(err, vehicledb.ErrVehicleNotFound) {
			http.Error(w, "Vehicle not found", http.StatusNotFound)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("DeleteVehicle: failed: %v", err))
		http.Error(w, "Failed to delete vehicle", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ImportCatalog seeds the catalog from the public make registry (admin).
func (h *Handler) ImportCatalog(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "ImportCatalog: starting catalog import")

	imported, err := h.Importer.ImportCatalog(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ImportCatalog: failed: %v", err))
		http.Error(w, "Catalog import failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"imported": imported})
}

// ClearCatalog wipes the catalog before a fresh import (admin).
func (h *Handler) ClearCatalog(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.VehicleService.ClearCatalog()
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ClearCatalog: failed: %v", err))
		http.Error(w, "Failed to clear catalog", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int64{"deleted": deleted})
}
