package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/invoiceregistry/apiserver/internal/services"
	"github.com/invoiceregistry/apiserver/internal/store"
	"github.com/invoiceregistry/apiserver/types"
)

// CustomerHandler exposes customer CRUD endpoints.
type CustomerHandler struct {
	customers *services.CustomerService
}

func NewCustomerHandler(customers *services.CustomerService) *CustomerHandler {
	return &CustomerHandler{customers: customers}
}

// CustomerRouter registers customer routes. Every operation is open to
// both regular users and admins.
func CustomerRouter(r chi.Router, customers *services.CustomerService) {
	handler := NewCustomerHandler(customers)

	r.Use(RequireRoles("ROLE_ADMIN", "ROLE_USER"))
	r.Get("/", handler.List)
	r.Get("/{id}", handler.Get)
	r.Post("/", handler.Create)
	r.Put("/{id}", handler.Update)
	r.Delete("/{id}", handler.Delete)
}

type CustomerRequest struct {
	Name      string `json:"name" validate:"required,min=3,max=32"`
	Phone     string `json:"phone" validate:"omitempty,len=10,numeric"`
	Email     string `json:"email" validate:"omitempty,email"`
	VATNumber string `json:"vatNumber" validate:"required,len=9,numeric"`
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customers.GetAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list customers")
		return
	}
	if customers == nil {
		customers = []types.Customer{}
	}
	writeJSON(w, http.StatusOK, customers)
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	customer, err := h.customers.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "customer not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load customer")
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CustomerRequest
	if err := decodeValid(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer details")
		return
	}

	customer, err := h.customers.Create(r.Context(), types.Customer{
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		VATNumber: req.VATNumber,
	})
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "failed to create customer")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("%s/%d", strings.TrimSuffix(r.URL.Path, "/"), customer.ID))
	writeJSON(w, http.StatusCreated, customer)
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	var req CustomerRequest
	if err := decodeValid(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer details")
		return
	}

	customer, err := h.customers.Update(r.Context(), types.Customer{
		ID:        id,
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		VATNumber: req.VATNumber,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "customer not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update customer")
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	customer, err := h.customers.Delete(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "customer not found")
		case errors.Is(err, services.ErrCustomerHasInvoices):
			writeError(w, http.StatusBadRequest, "Cannot delete customer because related invoices exist")
		default:
			writeError(w, http.StatusInternalServerError, "failed to delete customer")
		}
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
