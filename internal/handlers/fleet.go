package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/schedule"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FleetHandler handles vehicle, alert and work-order requests
type FleetHandler struct {
	vehicles db.VehicleStore
	orders   db.WorkOrderStore
	alerts   db.AlertStore
	sched    *schedule.Service
}

// NewFleetHandler creates a new fleet handler
func NewFleetHandler(vehicles db.VehicleStore, orders db.WorkOrderStore, alerts db.AlertStore, sched *schedule.Service) *FleetHandler {
	return &FleetHandler{
		vehicles: vehicles,
		orders:   orders,
		alerts:   alerts,
		sched:    sched,
	}
}

// Vehicles handles vehicle creation and listing
func (h *FleetHandler) Vehicles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listVehicles(w, r)
	case http.MethodPost:
		h.createVehicle(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *FleetHandler) listVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.vehicles.FindVehicles(r.Context())
	if err != nil {
		http.Error(w, "Failed to list vehicles", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}

func (h *FleetHandler) createVehicle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var v models.Vehicle
	if err := json.Unmarshal(body, &v); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	v.Plate = models.NormalizePlate(v.Plate)
	if v.Plate == "" {
		http.Error(w, "Plate is required", http.StatusBadRequest)
		return
	}
	if !models.IsValidFuelType(v.FuelType) {
		http.Error(w, "Invalid fuel type", http.StatusBadRequest)
		return
	}

	id, err := h.vehicles.InsertVehicle(r.Context(), v)
	if err != nil {
		if db.IsDuplicate(err) {
			http.Error(w, "Vehicle with this plate already exists", http.StatusConflict)
			return
		}
		http.Error(w, "Failed to create vehicle", http.StatusInternalServerError)
		return
	}
	v.ID = id

	// every vehicle gets its plan at creation time
	if err := h.sched.EnsurePlanForVehicle(r.Context(), v); err != nil {
		http.Error(w, "Vehicle created but plan assignment failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, v)
}

// Alerts lists alerts; ?open=1 restricts to open ones
func (h *FleetHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	openOnly := r.URL.Query().Get("open") == "1"
	out, err := h.alerts.FindAlerts(r.Context(), openOnly)
	if err != nil {
		http.Error(w, "Failed to list alerts", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// WorkOrders creates a work order
func (h *FleetHandler) WorkOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var o models.WorkOrder
	if err := json.Unmarshal(body, &o); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if o.VehicleID.IsZero() {
		http.Error(w, "vehicle_id is required", http.StatusBadRequest)
		return
	}
	if o.OrderType == "" {
		o.OrderType = models.OrderCorrective
	}
	if o.Status == "" {
		o.Status = models.OrderScheduled
	}

	id, err := h.orders.InsertWorkOrder(r.Context(), o)
	if err != nil {
		http.Error(w, "Failed to create work order", http.StatusInternalServerError)
		return
	}
	o.ID = id
	writeJSON(w, http.StatusCreated, o)
}

// CompleteWorkOrderRequest marks an order completed
type CompleteWorkOrderRequest struct {
	OrderID           string `json:"order_id"`
	OdometerAtService int    `json:"odometer_at_service,omitempty"`
}

// CompleteWorkOrder completes a work order; a completed preventive order
// resets and activates the vehicle's maintenance plan
func (h *FleetHandler) CompleteWorkOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req CompleteWorkOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	orderID, err := primitive.ObjectIDFromHex(req.OrderID)
	if err != nil {
		http.Error(w, "Invalid order ID", http.StatusBadRequest)
		return
	}

	order, err := h.orders.FindWorkOrderByID(r.Context(), orderID)
	if err != nil {
		http.Error(w, "Work order not found", http.StatusNotFound)
		return
	}

	if err := h.orders.SetWorkOrderStatus(r.Context(), orderID, models.OrderCompleted); err != nil {
		http.Error(w, "Failed to complete work order", http.StatusInternalServerError)
		return
	}
	order.Status = models.OrderCompleted
	if req.OdometerAtService > 0 {
		order.OdometerAtService = req.OdometerAtService
	}

	if err := h.sched.ActivatePlan(r.Context(), *order, time.Now()); err != nil {
		http.Error(w, "Order completed but plan update failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
