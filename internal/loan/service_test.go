package loan_test

import (
	"context"
	"errors"
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	internalErrors "github.com/edulend/loan-management/internal"
	"github.com/edulend/loan-management/internal/core/events"
	"github.com/edulend/loan-management/internal/eligibility"
	"github.com/edulend/loan-management/internal/loan"
)

type mockLoanRepository struct {
	loans       map[string]*loan.LoanApplication
	createError error
	saveError   error
}

func newMockLoanRepository() *mockLoanRepository {
	return &mockLoanRepository{loans: make(map[string]*loan.LoanApplication)}
}

func (m *mockLoanRepository) Create(ctx context.Context, l *loan.LoanApplication) error {
	if m.createError != nil {
		return m.createError
	}
	m.loans[l.ID] = l
	return nil
}

func (m *mockLoanRepository) GetByID(ctx context.Context, id string) (*loan.LoanApplication, error) {
	l, ok := m.loans[id]
	if !ok {
		return nil, loan.ErrLoanNotFound
	}
	return l, nil
}

func (m *mockLoanRepository) GetByUserID(ctx context.Context, userID string) ([]*loan.LoanApplication, error) {
	var result []*loan.LoanApplication
	for _, l := range m.loans {
		if l.UserID == userID {
			result = append(result, l)
		}
	}
	return result, nil
}

func (m *mockLoanRepository) Save(ctx context.Context, l *loan.LoanApplication) error {
	if m.saveError != nil {
		return m.saveError
	}
	m.loans[l.ID] = l
	return nil
}

func (m *mockLoanRepository) ListByStatus(ctx context.Context, status *loan.Status, limit, offset int) ([]*loan.LoanApplication, error) {
	var result []*loan.LoanApplication
	for _, l := range m.loans {
		if status == nil || l.Status == *status {
			result = append(result, l)
		}
	}
	return result, nil
}

func (m *mockLoanRepository) CountByStatus(ctx context.Context) (map[loan.Status]int64, error) {
	counts := make(map[loan.Status]int64)
	for _, l := range m.loans {
		counts[l.Status]++
	}
	return counts, nil
}

func (m *mockLoanRepository) SumOutstandingBalance(ctx context.Context) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, l := range m.loans {
		if l.Status == loan.StatusApproved {
			sum = sum.Add(l.RemainingBalance)
		}
	}
	return sum, nil
}

type mockEligibilityGate struct {
	result      eligibility.Result
	checkError  error
	userExists  bool
	existsError error
}

func (m *mockEligibilityGate) Check(ctx context.Context, userID string) (eligibility.Result, error) {
	if m.checkError != nil {
		return eligibility.Result{}, m.checkError
	}
	return m.result, nil
}

func (m *mockEligibilityGate) UserExists(ctx context.Context, userID string) (bool, error) {
	if m.existsError != nil {
		return false, m.existsError
	}
	return m.userExists, nil
}

var _ = Describe("LoanService", func() {
	var (
		service  *loan.Service
		mockRepo *mockLoanRepository
		mockGate *mockEligibilityGate
		logger   *slog.Logger
		ctx      context.Context
	)

	BeforeEach(func() {
		mockRepo = newMockLoanRepository()
		mockGate = &mockEligibilityGate{
			result:     eligibility.Result{Eligible: true},
			userExists: true,
		}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = loan.NewService(mockRepo, mockGate, events.NewEventBus(logger), logger)
		ctx = context.Background()
	})

	Describe("Submit", func() {
		var dto loan.CreateLoanDTO

		BeforeEach(func() {
			dto = loan.CreateLoanDTO{
				Organization: "State University",
				Course:       "Data Engineering",
				Amount:       decimal.RequireFromString("7500"),
			}
		})

		Context("when the user passes the eligibility gate", func() {
			It("creates a Pending application with an interest-free balance", func() {
				result, err := service.Submit(ctx, "user-1", dto)

				Expect(err).NotTo(HaveOccurred())
				Expect(result.Status).To(Equal(loan.StatusPending))
				Expect(result.UserID).To(Equal("user-1"))
				Expect(result.RemainingBalance.String()).To(Equal("7500"))
				Expect(result.InterestRate.IsZero()).To(BeTrue())
				Expect(mockRepo.loans).To(HaveKey(result.ID))
			})
		})

		Context("when the user is missing identification documents", func() {
			BeforeEach(func() {
				mockGate.result = eligibility.Result{
					Eligible: false,
					Missing:  []eligibility.Requirement{eligibility.RequirementIdentification},
				}
			})

			It("blocks the submission and reports what is missing", func() {
				result, err := service.Submit(ctx, "user-1", dto)

				Expect(result).To(BeNil())
				var notEligible *loan.NotEligibleError
				Expect(errors.As(err, &notEligible)).To(BeTrue())
				Expect(notEligible.Result.Missing).To(ConsistOf(eligibility.RequirementIdentification))
				Expect(mockRepo.loans).To(BeEmpty())
			})
		})

		Context("when the user does not exist", func() {
			BeforeEach(func() {
				mockGate.userExists = false
			})

			It("returns a not-found error without running the gate", func() {
				result, err := service.Submit(ctx, "ghost", dto)

				Expect(result).To(BeNil())
				appErr, ok := internalErrors.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(internalErrors.ErrCodeUserNotFound))
			})
		})

		Context("when the payload is invalid", func() {
			It("rejects a zero amount before touching the gate", func() {
				dto.Amount = decimal.Zero

				result, err := service.Submit(ctx, "user-1", dto)

				Expect(result).To(BeNil())
				Expect(err).To(HaveOccurred())
				Expect(mockRepo.loans).To(BeEmpty())
			})

			It("rejects a missing organization", func() {
				dto.Organization = ""

				_, err := service.Submit(ctx, "user-1", dto)
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Get", func() {
		var existing *loan.LoanApplication

		BeforeEach(func() {
			var err error
			existing, err = service.Submit(ctx, "user-1", loan.CreateLoanDTO{
				Organization: "State University",
				Course:       "Physics",
				Amount:       decimal.RequireFromString("3000"),
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns the loan to its owner", func() {
			result, err := service.Get(ctx, existing.ID, "user-1", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.ID).To(Equal(existing.ID))
		})

		It("returns the loan to an admin", func() {
			result, err := service.Get(ctx, existing.ID, "admin-1", true)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.ID).To(Equal(existing.ID))
		})

		It("refuses another student", func() {
			result, err := service.Get(ctx, existing.ID, "user-2", false)
			Expect(result).To(BeNil())
			Expect(err).To(Equal(loan.ErrUnauthorizedAccess))
		})

		It("reports a missing loan", func() {
			_, err := service.Get(ctx, "nope", "user-1", false)
			Expect(err).To(Equal(loan.ErrLoanNotFound))
		})
	})

	Describe("ListForUser", func() {
		It("refuses listing another user's loans", func() {
			result, err := service.ListForUser(ctx, "user-1", "user-2", false)
			Expect(result).To(BeNil())
			Expect(err).To(Equal(loan.ErrUnauthorizedAccess))
		})

		It("lets an admin list any user's loans", func() {
			_, err := service.ListForUser(ctx, "user-1", "admin-1", true)
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
