package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/invoiceregistry/apiserver/internal/services"
	"github.com/invoiceregistry/apiserver/internal/store"
	"github.com/invoiceregistry/apiserver/types"
)

// InvoiceHandler exposes invoice CRUD endpoints.
type InvoiceHandler struct {
	invoices *services.InvoiceService
}

func NewInvoiceHandler(invoices *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// InvoiceRouter registers invoice routes. Reads are open to users and
// admins; writes are admin-only.
func InvoiceRouter(r chi.Router, invoices *services.InvoiceService) {
	handler := NewInvoiceHandler(invoices)

	r.With(RequireRoles("ROLE_ADMIN", "ROLE_USER")).Get("/", handler.List)
	r.With(RequireRoles("ROLE_ADMIN", "ROLE_USER")).Get("/{id}", handler.Get)
	r.With(RequireRoles("ROLE_ADMIN")).Post("/", handler.Create)
	r.With(RequireRoles("ROLE_ADMIN")).Put("/{id}", handler.Update)
	r.With(RequireRoles("ROLE_ADMIN")).Delete("/{id}", handler.Delete)
}

type InvoiceRequest struct {
	Number      string  `json:"number" validate:"required,min=1,max=11"`
	Date        string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Status      string  `json:"status"`
	Description string  `json:"description"`
	TotalAmount float64 `json:"totalAmount"`
	CustomerID  int64   `json:"customerId" validate:"required"`
}

func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.invoices.GetAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list invoices")
		return
	}
	if invoices == nil {
		invoices = []types.Invoice{}
	}
	writeJSON(w, http.StatusOK, invoices)
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid invoice id")
		return
	}

	invoice, err := h.invoices.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "invoice not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load invoice")
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}

func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req InvoiceRequest
	if err := decodeValid(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid invoice details")
		return
	}

	invoice, err := h.invoices.Create(r.Context(), invoiceFromRequest(0, req))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvoiceNumberTaken):
			writeError(w, http.StatusConflict, fmt.Sprintf("Invoice %s already exists", req.Number))
		case errors.Is(err, services.ErrCustomerNotFound):
			writeError(w, http.StatusNotFound, "customer not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to create invoice")
		}
		return
	}

	w.Header().Set("Location", fmt.Sprintf("%s/%d", strings.TrimSuffix(r.URL.Path, "/"), invoice.ID))
	writeJSON(w, http.StatusCreated, invoice)
}

func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid invoice id")
		return
	}

	var req InvoiceRequest
	if err := decodeValid(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid invoice details")
		return
	}

	invoice, err := h.invoices.Update(r.Context(), invoiceFromRequest(id, req))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "invoice not found")
		case errors.Is(err, services.ErrCustomerNotFound):
			writeError(w, http.StatusNotFound, "customer not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update invoice")
		}
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}

func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid invoice id")
		return
	}

	invoice, err := h.invoices.Delete(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "invoice not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete invoice")
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}

func invoiceFromRequest(id int64, req InvoiceRequest) types.Invoice {
	return types.Invoice{
		ID:          id,
		Number:      req.Number,
		Date:        req.Date,
		Status:      req.Status,
		Description: req.Description,
		TotalAmount: req.TotalAmount,
		CustomerID:  req.CustomerID,
	}
}
