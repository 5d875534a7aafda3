package admin_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/edulend/loan-management/internal"
	"github.com/edulend/loan-management/internal/admin"
	"github.com/edulend/loan-management/internal/core/events"
	"github.com/edulend/loan-management/internal/loan"
)

func TestAdmin(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Admin Suite")
}

type mockLoanRepository struct {
	loans     map[string]*loan.LoanApplication
	saveError error
}

func newMockLoanRepository() *mockLoanRepository {
	return &mockLoanRepository{loans: make(map[string]*loan.LoanApplication)}
}

func (m *mockLoanRepository) Create(ctx context.Context, l *loan.LoanApplication) error {
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

func pendingLoan(id, userID, amount string) *loan.LoanApplication {
	return loan.NewLoanApplication(id, userID, loan.CreateLoanDTO{
		Organization: "State University",
		Course:       "Economics",
		Amount:       decimal.RequireFromString(amount),
	})
}

var _ = Describe("AdminService", func() {
	var (
		service  *admin.Service
		mockRepo *mockLoanRepository
		logger   *slog.Logger
		ctx      context.Context
	)

	newService := func(resetOnApprove bool) *admin.Service {
		return admin.NewService(mockRepo, internal.LoanPolicyConfig{ResetBalanceOnApprove: resetOnApprove}, events.NewEventBus(logger), logger)
	}

	BeforeEach(func() {
		mockRepo = newMockLoanRepository()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = newService(true)
		ctx = context.Background()
	})

	Describe("SetStatus", func() {
		BeforeEach(func() {
			mockRepo.loans["loan-1"] = pendingLoan("loan-1", "user-1", "4000")
		})

		It("approves a loan with zeroed interest and a fresh balance", func() {
			updated, err := service.SetStatus(ctx, "loan-1", "admin-1", loan.UpdateStatusDTO{
				Status:     "Approved",
				AdminNotes: "meets all criteria",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(loan.StatusApproved))
			Expect(updated.InterestRate.IsZero()).To(BeTrue())
			Expect(updated.TotalAmountWithInterest.String()).To(Equal("4000"))
			Expect(updated.RemainingBalance.String()).To(Equal("4000"))
			Expect(updated.AdminNotes).To(Equal("meets all criteria"))
			Expect(updated.UpdatedBy).To(Equal("admin-1"))
		})

		It("rejects an unknown status value", func() {
			_, err := service.SetStatus(ctx, "loan-1", "admin-1", loan.UpdateStatusDTO{Status: "Disbursed"})
			Expect(err).To(HaveOccurred())
		})

		It("requires a status value", func() {
			_, err := service.SetStatus(ctx, "loan-1", "admin-1", loan.UpdateStatusDTO{})
			Expect(err).To(HaveOccurred())
		})

		It("reports a missing loan", func() {
			_, err := service.SetStatus(ctx, "nope", "admin-1", loan.UpdateStatusDTO{Status: "Approved"})
			Expect(errors.Is(err, loan.ErrLoanNotFound)).To(BeTrue())
		})

		Context("re-approving a loan with repayment progress", func() {
			BeforeEach(func() {
				l := mockRepo.loans["loan-1"]
				l.SetStatus(loan.StatusApproved, "", "admin-1", true)
				l.ApplyPayment(loan.Repayment{AmountPaid: decimal.RequireFromString("1000"), PaidAt: time.Now()})
			})

			It("resets the balance when the policy says so", func() {
				updated, err := service.SetStatus(ctx, "loan-1", "admin-1", loan.UpdateStatusDTO{Status: "Approved"})
				Expect(err).NotTo(HaveOccurred())
				Expect(updated.RemainingBalance.String()).To(Equal("4000"))
			})

			It("preserves the balance when the policy is disabled", func() {
				service = newService(false)

				updated, err := service.SetStatus(ctx, "loan-1", "admin-1", loan.UpdateStatusDTO{Status: "Approved"})
				Expect(err).NotTo(HaveOccurred())
				Expect(updated.RemainingBalance.String()).To(Equal("3000"))
			})
		})
	})

	Describe("VerifyDocuments", func() {
		BeforeEach(func() {
			mockRepo.loans["loan-1"] = pendingLoan("loan-1", "user-1", "4000")
		})

		It("promotes a Pending loan to Pending Review on verified", func() {
			updated, err := service.VerifyDocuments(ctx, "loan-1", "admin-1", loan.VerifyDocumentsDTO{
				VerificationStatus: "verified",
				VerificationNotes:  "complete set",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(loan.StatusPendingReview))
			Expect(updated.DocumentVerification.Status).To(Equal(loan.VerificationVerified))
			Expect(updated.DocumentVerification.Notes).To(Equal("complete set"))
		})

		It("forces Rejected on a rejected verification", func() {
			mockRepo.loans["loan-1"].SetStatus(loan.StatusApproved, "", "admin-1", true)

			updated, err := service.VerifyDocuments(ctx, "loan-1", "admin-1", loan.VerifyDocumentsDTO{
				VerificationStatus: "rejected",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(loan.StatusRejected))
		})

		It("records moreInfo without a lifecycle change", func() {
			updated, err := service.VerifyDocuments(ctx, "loan-1", "admin-1", loan.VerifyDocumentsDTO{
				VerificationStatus: "moreInfo",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(loan.StatusPending))
		})

		It("rejects an unknown verification status", func() {
			_, err := service.VerifyDocuments(ctx, "loan-1", "admin-1", loan.VerifyDocumentsDTO{
				VerificationStatus: "approved",
			})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("UpdatePrincipal", func() {
		BeforeEach(func() {
			mockRepo.loans["loan-1"] = pendingLoan("loan-1", "user-1", "4000")
		})

		It("re-derives the repayable total from the new amount", func() {
			updated, err := service.UpdatePrincipal(ctx, "loan-1", "admin-1", loan.UpdatePrincipalDTO{
				Amount: decimal.RequireFromString("4500"),
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Amount.String()).To(Equal("4500"))
			Expect(updated.TotalAmountWithInterest.String()).To(Equal("4500"))
			Expect(updated.RemainingBalance.String()).To(Equal("4500"))
		})

		It("rejects a non-positive amount", func() {
			_, err := service.UpdatePrincipal(ctx, "loan-1", "admin-1", loan.UpdatePrincipalDTO{
				Amount: decimal.Zero,
			})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ListLoans", func() {
		BeforeEach(func() {
			mockRepo.loans["loan-1"] = pendingLoan("loan-1", "user-1", "4000")
			approved := pendingLoan("loan-2", "user-2", "2000")
			approved.SetStatus(loan.StatusApproved, "", "admin-1", true)
			mockRepo.loans["loan-2"] = approved
		})

		It("filters by status", func() {
			loans, err := service.ListLoans(ctx, "Approved", 0, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(loans).To(HaveLen(1))
			Expect(loans[0].ID).To(Equal("loan-2"))
		})

		It("returns everything without a filter", func() {
			loans, err := service.ListLoans(ctx, "", 0, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(loans).To(HaveLen(2))
		})

		It("rejects an unknown status filter", func() {
			_, err := service.ListLoans(ctx, "Disbursed", 0, 0)
			Expect(errors.Is(err, loan.ErrInvalidStatus)).To(BeTrue())
		})
	})

	Describe("GetStats", func() {
		It("aggregates counts and the outstanding balance", func() {
			mockRepo.loans["loan-1"] = pendingLoan("loan-1", "user-1", "4000")
			approved := pendingLoan("loan-2", "user-2", "2000")
			approved.SetStatus(loan.StatusApproved, "", "admin-1", true)
			mockRepo.loans["loan-2"] = approved

			stats, err := service.GetStats(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TotalApplications).To(Equal(int64(2)))
			Expect(stats.ByStatus[loan.StatusPending]).To(Equal(int64(1)))
			Expect(stats.ByStatus[loan.StatusApproved]).To(Equal(int64(1)))
			Expect(stats.ByStatus[loan.StatusRejected]).To(Equal(int64(0)))
			Expect(stats.OutstandingBalance.String()).To(Equal("2000"))
		})
	})
})
