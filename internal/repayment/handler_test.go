package repayment_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/edulend/loan-management/internal/auth"
	"github.com/edulend/loan-management/internal/core/events"
	"github.com/edulend/loan-management/internal/loan"
	"github.com/edulend/loan-management/internal/repayment"
	"github.com/edulend/loan-management/pkg/logger"
)

var _ = Describe("RepaymentHandler", func() {
	var (
		handler *repayment.Handler
		store   *mockLoanStore
		router  *chi.Mux
		student *auth.User
	)

	request := func(user *auth.User, method, target, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		req = req.WithContext(auth.ContextWithUser(req.Context(), user))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	BeforeEach(func() {
		store = newMockLoanStore()
		lg := logger.LoggerWrapper()
		service := repayment.NewService(store, events.NewEventBus(lg), lg)
		handler = repayment.NewHandler(service)

		router = chi.NewRouter()
		router.Post("/loans/{id}/repayments", handler.MakePayment)
		router.Get("/loans/{id}/repayments", handler.History)

		student = &auth.User{ID: "user-1", Email: "amina@student.edu", Role: auth.RoleStudent}
		store.put(approvedLoan("loan-1", "user-1", "5000"))
	})

	Describe("POST /loans/{id}/repayments", func() {
		It("returns 201 with the receipt and loan envelope", func() {
			rec := request(student, http.MethodPost, "/loans/loan-1/repayments", `{"amountPaid":1500,"paymentMethod":"bank transfer"}`)

			Expect(rec.Code).To(Equal(http.StatusCreated))

			var body struct {
				ReceiptNumber string `json:"receiptNumber"`
				Loan          struct {
					ID               string          `json:"id"`
					Status           string          `json:"status"`
					RemainingBalance decimal.Decimal `json:"remainingBalance"`
				} `json:"loan"`
			}
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body.ReceiptNumber).To(HavePrefix("RCPT-"))
			Expect(body.Loan.ID).To(Equal("loan-1"))
			Expect(body.Loan.Status).To(Equal("Approved"))
			Expect(body.Loan.RemainingBalance.String()).To(Equal("3500"))
		})

		It("maps an over-payment to 400 with the remaining balance", func() {
			rec := request(student, http.MethodPost, "/loans/loan-1/repayments", `{"amountPaid":5000.01}`)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))

			var body struct {
				Message          string          `json:"message"`
				RemainingBalance decimal.Decimal `json:"remainingBalance"`
			}
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Message).To(Equal("repayment amount exceeds the remaining balance"))
			Expect(body.RemainingBalance.String()).To(Equal("5000"))
		})

		It("maps a payment on a pending loan to 400", func() {
			store.put(loan.NewLoanApplication("loan-2", "user-1", loan.CreateLoanDTO{
				Organization: "State University",
				Course:       "History",
				Amount:       decimal.RequireFromString("2000"),
			}))

			rec := request(student, http.MethodPost, "/loans/loan-2/repayments", `{"amountPaid":100}`)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(rec.Body.String()).To(ContainSubstring("can only make payments on approved loans"))
		})

		It("returns 404 for an unknown loan", func() {
			rec := request(student, http.MethodPost, "/loans/nope/repayments", `{"amountPaid":100}`)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 403 for another student's loan", func() {
			other := &auth.User{ID: "user-2", Role: auth.RoleStudent}
			rec := request(other, http.MethodPost, "/loans/loan-1/repayments", `{"amountPaid":100}`)
			Expect(rec.Code).To(Equal(http.StatusForbidden))
		})
	})

	Describe("GET /loans/{id}/repayments", func() {
		It("returns the ledger under repaymentHistory", func() {
			created := request(student, http.MethodPost, "/loans/loan-1/repayments", `{"amountPaid":500}`)
			Expect(created.Code).To(Equal(http.StatusCreated))

			rec := request(student, http.MethodGet, "/loans/loan-1/repayments", "")
			Expect(rec.Code).To(Equal(http.StatusOK))

			var body struct {
				RepaymentHistory []loan.Repayment `json:"repaymentHistory"`
			}
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body.RepaymentHistory).To(HaveLen(1))
			Expect(body.RepaymentHistory[0].AmountPaid.String()).To(Equal("500"))
		})
	})
})
