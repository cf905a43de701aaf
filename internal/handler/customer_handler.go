package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"backoffice-api/internal/domain"
	"backoffice-api/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// CustomerHandler handles the protected customer endpoints. Every route
// here sits behind the request gate, so an authenticated identity is
// always on the context.
type CustomerHandler struct {
	customers domain.CustomerRepository
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customers domain.CustomerRepository) *CustomerHandler {
	return &CustomerHandler{
		customers: customers,
	}
}

// CreateCustomerRequest represents customer creation request
type CreateCustomerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// List retrieves customers
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	customers, err := h.customers.List(r.Context(), limit)
	if err != nil {
		http.Error(w, `{"error":"Failed to retrieve customers"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"customers": customers,
	})
}

// Create creates a new customer record owned by the caller
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.GetOwnerID(r.Context())
	if !ok {
		http.Error(w, `{"error":"Not authenticated"}`, http.StatusUnauthorized)
		return
	}

	var req CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, `{"error":"Customer name is required"}`, http.StatusBadRequest)
		return
	}

	customer := &domain.Customer{
		Name:      req.Name,
		Email:     req.Email,
		CreatedBy: ownerID,
	}
	if err := h.customers.Create(r.Context(), customer); err != nil {
		if errors.Is(err, domain.ErrCustomerExists) {
			http.Error(w, `{"error":"Customer already exists"}`, http.StatusConflict)
			return
		}
		http.Error(w, `{"error":"Failed to create customer"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(customer)
}

// GetByID retrieves a single customer
func (h *CustomerHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "id")
	if customerID == "" {
		http.Error(w, `{"error":"Customer ID required"}`, http.StatusBadRequest)
		return
	}

	customer, err := h.customers.GetByID(r.Context(), customerID)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			http.Error(w, `{"error":"Customer not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"Failed to retrieve customer"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(customer)
}
