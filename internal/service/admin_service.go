package service

import (
	"context"
	"fmt"

	"exam_portal_backend/internal/config"
	"exam_portal_backend/internal/model"
	"exam_portal_backend/internal/repository"

	"github.com/shopspring/decimal"
)

// AdminService aggregates platform figures for the admin dashboard.
type AdminService struct {
	Entitlement  *EntitlementService
	QuestionRepo *repository.QuestionRepository
	AttemptRepo  *repository.AttemptRepository
	Cfg          *config.Config
}

func NewAdminService(entitlement *EntitlementService, questionRepo *repository.QuestionRepository, attemptRepo *repository.AttemptRepository, cfg *config.Config) *AdminService {
	return &AdminService{
		Entitlement:  entitlement,
		QuestionRepo: questionRepo,
		AttemptRepo:  attemptRepo,
		Cfg:          cfg,
	}
}

type PlatformStats struct {
	TotalStudents   int             `json:"totalStudents"`
	ActiveTrials    int             `json:"activeTrials"`
	PaidUsers       int             `json:"paidUsers"`
	ExpiredUsers    int             `json:"expiredUsers"`
	PendingPayments int             `json:"pendingPayments"`
	Revenue         decimal.Decimal `json:"revenue"`
	Currency        string          `json:"currency"`
	TotalQuestions  int             `json:"totalQuestions"`
	TotalAttempts   int             `json:"totalAttempts"`
}

// PlanPrice parses auth.plan_price.
func PlanPrice(cfg *config.Config) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(cfg.Auth.PlanPrice)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid plan price %q: %w", cfg.Auth.PlanPrice, err)
	}
	return price, nil
}

// Stats counts students only. Revenue is paid students times the plan price.
func (s *AdminService) Stats(ctx context.Context) (*PlatformStats, error) {
	students, err := s.Entitlement.ListUsers(ctx, UserFilter{Role: model.Student})
	if err != nil {
		return nil, err
	}
	price, err := PlanPrice(s.Cfg)
	if err != nil {
		return nil, err
	}

	st := &PlatformStats{
		TotalStudents: len(students),
		Currency:      s.Cfg.Auth.PlanCurrency,
	}
	for _, u := range students {
		switch u.Status {
		case model.StatusTrial:
			st.ActiveTrials++
		case model.StatusPaid:
			st.PaidUsers++
		case model.StatusExpired:
			st.ExpiredUsers++
		}
		if u.PaymentStatus == model.PaymentPending {
			st.PendingPayments++
		}
	}
	st.Revenue = price.Mul(decimal.NewFromInt(int64(st.PaidUsers)))

	if st.TotalQuestions, err = s.QuestionRepo.Count(ctx); err != nil {
		return nil, err
	}
	attempts, err := s.AttemptRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	st.TotalAttempts = len(attempts)
	return st, nil
}
