package eligibility_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/edulend/loan-management/internal/eligibility"
)

func TestEligibility(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Eligibility Suite")
}

type mockEligibilityRepository struct {
	userExists        bool
	identityDocs      bool
	financialDocCount int64
	financialProfile  bool
	lookupError       error
}

func (m *mockEligibilityRepository) UserExists(ctx context.Context, userID string) (bool, error) {
	return m.userExists, nil
}

func (m *mockEligibilityRepository) HasIdentityDocuments(ctx context.Context, userID string) (bool, error) {
	if m.lookupError != nil {
		return false, m.lookupError
	}
	return m.identityDocs, nil
}

func (m *mockEligibilityRepository) CountFinancialDocuments(ctx context.Context, userID string) (int64, error) {
	return m.financialDocCount, nil
}

func (m *mockEligibilityRepository) HasFinancialProfile(ctx context.Context, userID string) (bool, error) {
	return m.financialProfile, nil
}

var _ = Describe("EligibilityService", func() {
	var (
		service  *eligibility.Service
		mockRepo *mockEligibilityRepository
		ctx      context.Context
	)

	BeforeEach(func() {
		mockRepo = &mockEligibilityRepository{
			userExists:        true,
			identityDocs:      true,
			financialDocCount: 1,
			financialProfile:  true,
		}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = eligibility.NewService(mockRepo, logger)
		ctx = context.Background()
	})

	Describe("Check", func() {
		It("passes when all three signals are present", func() {
			result, err := service.Check(ctx, "user-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Eligible).To(BeTrue())
			Expect(result.Missing).To(BeEmpty())
		})

		It("reports missing identification documents", func() {
			mockRepo.identityDocs = false

			result, err := service.Check(ctx, "user-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Eligible).To(BeFalse())
			Expect(result.Missing).To(ConsistOf(eligibility.RequirementIdentification))
		})

		It("reports missing financial documents", func() {
			mockRepo.financialDocCount = 0

			result, err := service.Check(ctx, "user-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Missing).To(ConsistOf(eligibility.RequirementFinancialDocuments))
		})

		It("reports a missing financial profile", func() {
			mockRepo.financialProfile = false

			result, err := service.Check(ctx, "user-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Missing).To(ConsistOf(eligibility.RequirementFinancialData))
		})

		It("reports every missing requirement at once", func() {
			mockRepo.identityDocs = false
			mockRepo.financialDocCount = 0
			mockRepo.financialProfile = false

			result, err := service.Check(ctx, "user-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Missing).To(ConsistOf(
				eligibility.RequirementIdentification,
				eligibility.RequirementFinancialDocuments,
				eligibility.RequirementFinancialData,
			))
		})

		It("propagates lookup failures instead of guessing", func() {
			mockRepo.lookupError = errors.New("connection refused")

			_, err := service.Check(ctx, "user-1")
			Expect(err).To(HaveOccurred())
		})
	})
})
