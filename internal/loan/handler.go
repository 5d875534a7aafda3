package loan

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/edulend/loan-management/internal/auth"
	"github.com/edulend/loan-management/internal/eligibility"
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

// SubmitApplication handles POST /loans.
func (h *Handler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateLoanDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("SubmitApplication: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	application, err := h.Service.Submit(r.Context(), user.ID, dto)
	if err != nil {
		var notEligible *NotEligibleError
		if errors.As(err, &notEligible) {
			h.writeEligibilityFailure(w, notEligible.Result)
			return
		}
		h.Logger.Error("SubmitApplication: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message":     "Loan application submitted successfully",
		"application": application,
	})
}

// writeEligibilityFailure mirrors the remediation contract: the first failing
// category decides the message, and the full missing list rides along.
func (h *Handler) writeEligibilityFailure(w http.ResponseWriter, result eligibility.Result) {
	body := map[string]interface{}{
		"missing": result.Missing,
	}

	switch {
	case result.IsMissing(eligibility.RequirementIdentification):
		body["message"] = "You must upload identification documents before applying for a loan."
		body["missingDocuments"] = "identification"
	case result.IsMissing(eligibility.RequirementFinancialDocuments):
		body["message"] = "You must upload financial documents before applying for a loan."
		body["missingDocuments"] = "financial"
	default:
		body["message"] = "You must complete your financial information before applying for a loan."
		body["missingData"] = "financial"
	}

	h.WriteJSON(w, http.StatusForbidden, body)
}

// GetLoan handles GET /loans/{id}.
func (h *Handler) GetLoan(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	loanID := chi.URLParam(r, "id")

	application, err := h.Service.Get(r.Context(), loanID, user.ID, user.IsAdmin())
	if err != nil {
		switch err {
		case ErrLoanNotFound:
			h.WriteError(w, http.StatusNotFound, "Loan not found")
		case ErrUnauthorizedAccess:
			h.WriteError(w, http.StatusForbidden, "unauthorized access to loan")
		default:
			h.Logger.Error("GetLoan: service error", "error", err, "loan_id", loanID)
			h.HandleServiceError(w, err)
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, application)
}

// ListUserLoans handles GET /users/{userId}/loans.
func (h *Handler) ListUserLoans(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	userID := chi.URLParam(r, "userId")

	applications, err := h.Service.ListForUser(r.Context(), userID, user.ID, user.IsAdmin())
	if err != nil {
		switch err {
		case ErrUnauthorizedAccess:
			h.WriteError(w, http.StatusForbidden, "unauthorized access to loans")
		default:
			h.Logger.Error("ListUserLoans: service error", "error", err, "user_id", userID)
			h.HandleServiceError(w, err)
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, applications)
}
