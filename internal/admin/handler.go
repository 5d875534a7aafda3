package admin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/edulend/loan-management/internal/auth"
	"github.com/edulend/loan-management/internal/loan"
	"github.com/edulend/loan-management/internal/transport"
	"github.com/edulend/loan-management/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(service *Service) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// UpdateStatus handles PATCH /admin/loans/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	admin, ok := auth.UserFromContext(r.Context())
	if !ok || admin == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	loanID := chi.URLParam(r, "id")

	var dto loan.UpdateStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateStatus: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.Service.SetStatus(r.Context(), loanID, admin.ID, dto)
	if err != nil {
		h.writeLoanError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Loan status updated successfully",
		"loan":    updated,
	})
}

// VerifyDocuments handles POST /admin/loans/{id}/verify-documents.
func (h *Handler) VerifyDocuments(w http.ResponseWriter, r *http.Request) {
	admin, ok := auth.UserFromContext(r.Context())
	if !ok || admin == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	loanID := chi.URLParam(r, "id")

	var dto loan.VerifyDocumentsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("VerifyDocuments: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.Service.VerifyDocuments(r.Context(), loanID, admin.ID, dto)
	if err != nil {
		h.writeLoanError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Document verification recorded",
		"loan":    updated,
	})
}

// UpdatePrincipal handles PATCH /admin/loans/{id}/amount.
func (h *Handler) UpdatePrincipal(w http.ResponseWriter, r *http.Request) {
	admin, ok := auth.UserFromContext(r.Context())
	if !ok || admin == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	loanID := chi.URLParam(r, "id")

	var dto loan.UpdatePrincipalDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdatePrincipal: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.Service.UpdatePrincipal(r.Context(), loanID, admin.ID, dto)
	if err != nil {
		h.writeLoanError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Loan amount updated successfully",
		"loan":    updated,
	})
}

// ListLoans handles GET /admin/loans?status=&limit=&offset=.
func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
	statusFilter := r.URL.Query().Get("status")
	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	loans, err := h.Service.ListLoans(r.Context(), statusFilter, limit, offset)
	if err != nil {
		h.writeLoanError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(loans),
		"loans": loans,
	})
}

// GetStats handles GET /admin/stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.GetStats(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) writeLoanError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, loan.ErrLoanNotFound):
		h.WriteError(w, http.StatusNotFound, "Loan not found")
	case errors.Is(err, loan.ErrInvalidStatus):
		h.WriteError(w, http.StatusBadRequest, "invalid loan status")
	case errors.Is(err, loan.ErrInvalidVerificationStatus):
		h.WriteError(w, http.StatusBadRequest, "invalid document verification status")
	default:
		h.HandleServiceError(w, err)
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
