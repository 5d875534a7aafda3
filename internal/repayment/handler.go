package repayment

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

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

// MakePayment handles POST /loans/{id}/repayments.
func (h *Handler) MakePayment(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	loanID := chi.URLParam(r, "id")

	var dto MakePaymentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("MakePayment: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	receipt, err := h.Service.MakePayment(r.Context(), loanID, user.ID, user.IsAdmin(), dto)
	if err != nil {
		h.writePaymentError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message":       "Payment recorded successfully",
		"receiptNumber": receipt.ReceiptNumber,
		"loan": map[string]interface{}{
			"id":               receipt.LoanID,
			"status":           receipt.Status,
			"remainingBalance": receipt.RemainingBalance,
			"receiptNumber":    receipt.ReceiptNumber,
		},
	})
}

func (h *Handler) writePaymentError(w http.ResponseWriter, err error) {
	var exceeds *ExceedsBalanceError
	switch {
	case errors.Is(err, loan.ErrLoanNotFound):
		h.WriteError(w, http.StatusNotFound, "Loan not found")
	case errors.Is(err, loan.ErrUnauthorizedAccess):
		h.WriteError(w, http.StatusForbidden, "unauthorized access to loan")
	case errors.Is(err, loan.ErrNotPayable):
		h.WriteError(w, http.StatusBadRequest, loan.ErrNotPayable.Error())
	case errors.Is(err, ErrInvalidAmount):
		h.WriteError(w, http.StatusBadRequest, ErrInvalidAmount.Error())
	case errors.As(err, &exceeds):
		h.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"message":          exceeds.Error(),
			"remainingBalance": exceeds.RemainingBalance,
		})
	default:
		h.HandleServiceError(w, err)
	}
}

// History handles GET /loans/{id}/repayments.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	loanID := chi.URLParam(r, "id")

	history, err := h.Service.History(r.Context(), loanID, user.ID, user.IsAdmin())
	if err != nil {
		switch {
		case errors.Is(err, loan.ErrLoanNotFound):
			h.WriteError(w, http.StatusNotFound, "Loan not found")
		case errors.Is(err, loan.ErrUnauthorizedAccess):
			h.WriteError(w, http.StatusForbidden, "unauthorized access to loan")
		default:
			h.HandleServiceError(w, err)
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"repaymentHistory": history,
	})
}

// ListUserRepayments handles GET /users/{userId}/repayments.
func (h *Handler) ListUserRepayments(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	userID := chi.URLParam(r, "userId")

	summaries, err := h.Service.ListUserRepayments(r.Context(), userID, user.ID, user.IsAdmin())
	if err != nil {
		switch {
		case errors.Is(err, loan.ErrUnauthorizedAccess):
			h.WriteError(w, http.StatusForbidden, "unauthorized access to repayments")
		default:
			h.Logger.Error("ListUserRepayments: service error", "error", err, "user_id", userID)
			h.HandleServiceError(w, err)
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, summaries)
}
