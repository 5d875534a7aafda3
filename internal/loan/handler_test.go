package loan_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/edulend/loan-management/internal/auth"
	"github.com/edulend/loan-management/internal/core/events"
	"github.com/edulend/loan-management/internal/eligibility"
	"github.com/edulend/loan-management/internal/loan"
	"github.com/edulend/loan-management/pkg/logger"
)

var _ = Describe("LoanHandler", func() {
	var (
		handler  *loan.Handler
		mockRepo *mockLoanRepository
		mockGate *mockEligibilityGate
		router   *chi.Mux
		student  *auth.User
	)

	request := func(user *auth.User, method, target, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		req = req.WithContext(auth.ContextWithUser(req.Context(), user))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	BeforeEach(func() {
		mockRepo = newMockLoanRepository()
		mockGate = &mockEligibilityGate{
			result:     eligibility.Result{Eligible: true},
			userExists: true,
		}
		lg := logger.LoggerWrapper()
		service := loan.NewService(mockRepo, mockGate, events.NewEventBus(lg), lg)
		handler = loan.NewHandler(service)

		router = chi.NewRouter()
		router.Post("/loans", handler.SubmitApplication)
		router.Get("/loans/{id}", handler.GetLoan)
		router.Get("/users/{userId}/loans", handler.ListUserLoans)

		student = &auth.User{ID: "user-1", Email: "amina@student.edu", Role: auth.RoleStudent}
	})

	Describe("POST /loans", func() {
		It("returns 201 with the created application", func() {
			rec := request(student, http.MethodPost, "/loans", `{"organization":"State University","course":"Biology","amount":2500}`)

			Expect(rec.Code).To(Equal(http.StatusCreated))

			var body struct {
				Message     string               `json:"message"`
				Application loan.LoanApplication `json:"application"`
			}
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Application.Status).To(Equal(loan.StatusPending))
			Expect(body.Application.UserID).To(Equal("user-1"))
		})

		It("maps a missing-identification failure to 403 with remediation hints", func() {
			mockGate.result = eligibility.Result{
				Eligible: false,
				Missing:  []eligibility.Requirement{eligibility.RequirementIdentification, eligibility.RequirementFinancialData},
			}

			rec := request(student, http.MethodPost, "/loans", `{"organization":"State University","course":"Biology","amount":2500}`)

			Expect(rec.Code).To(Equal(http.StatusForbidden))

			var body map[string]interface{}
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body["missingDocuments"]).To(Equal("identification"))
			Expect(body["missing"]).To(HaveLen(2))
		})

		It("maps a missing-profile failure to missingData", func() {
			mockGate.result = eligibility.Result{
				Eligible: false,
				Missing:  []eligibility.Requirement{eligibility.RequirementFinancialData},
			}

			rec := request(student, http.MethodPost, "/loans", `{"organization":"State University","course":"Biology","amount":2500}`)

			Expect(rec.Code).To(Equal(http.StatusForbidden))

			var body map[string]interface{}
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body["missingData"]).To(Equal("financial"))
			Expect(body).NotTo(HaveKey("missingDocuments"))
		})

		It("rejects a malformed body with 400", func() {
			rec := request(student, http.MethodPost, "/loans", `{"amount":`)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects an invalid payload with 400", func() {
			rec := request(student, http.MethodPost, "/loans", `{"organization":"","course":"Biology","amount":2500}`)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 404 for an unknown user", func() {
			mockGate.userExists = false

			rec := request(student, http.MethodPost, "/loans", `{"organization":"State University","course":"Biology","amount":2500}`)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 401 without a principal in context", func() {
			req := httptest.NewRequest(http.MethodPost, "/loans", strings.NewReader(`{}`))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("GET /loans/{id}", func() {
		It("returns 404 for an unknown loan", func() {
			rec := request(student, http.MethodGet, "/loans/nope", "")
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 403 for another student's loan", func() {
			created := request(student, http.MethodPost, "/loans", `{"organization":"State University","course":"Biology","amount":2500}`)
			var body struct {
				Application loan.LoanApplication `json:"application"`
			}
			Expect(json.Unmarshal(created.Body.Bytes(), &body)).To(Succeed())

			other := &auth.User{ID: "user-2", Role: auth.RoleStudent}
			rec := request(other, http.MethodGet, "/loans/"+body.Application.ID, "")
			Expect(rec.Code).To(Equal(http.StatusForbidden))
		})

		It("lets an admin read any loan", func() {
			created := request(student, http.MethodPost, "/loans", `{"organization":"State University","course":"Biology","amount":2500}`)
			var body struct {
				Application loan.LoanApplication `json:"application"`
			}
			Expect(json.Unmarshal(created.Body.Bytes(), &body)).To(Succeed())

			adminUser := &auth.User{ID: "admin-1", Role: auth.RoleAdmin}
			rec := request(adminUser, http.MethodGet, "/loans/"+body.Application.ID, "")
			Expect(rec.Code).To(Equal(http.StatusOK))
		})
	})

	Describe("GET /users/{userId}/loans", func() {
		It("returns 403 when a student asks for someone else's loans", func() {
			rec := request(student, http.MethodGet, "/users/user-2/loans", "")
			Expect(rec.Code).To(Equal(http.StatusForbidden))
		})
	})
})
