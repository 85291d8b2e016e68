package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"exam_portal_backend/internal/config"
	"exam_portal_backend/internal/model"
	"exam_portal_backend/internal/repository"
	"exam_portal_backend/internal/util"
	"exam_portal_backend/pkg/logger"
	"exam_portal_backend/pkg/monitoring"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// EntitlementService owns accounts and their access level: registration,
// sign-in, the trial window and payment review.
type EntitlementService struct {
	UserRepo *repository.UserRepository
	Storage  *StorageService
	Cfg      *config.Config
	Now      func() time.Time
}

func NewEntitlementService(userRepo *repository.UserRepository, storage *StorageService, cfg *config.Config) *EntitlementService {
	return &EntitlementService{
		UserRepo: userRepo,
		Storage:  storage,
		Cfg:      cfg,
		Now:      time.Now,
	}
}

func (s *EntitlementService) isAdminEmail(email string) bool {
	for _, e := range s.Cfg.Auth.AdminEmails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

// Register creates a student on a fresh trial and signs them in.
func (s *EntitlementService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	trialStart := now
	trialEnd := now.AddDate(0, 0, s.Cfg.Auth.TrialDays)
	user := &model.User{
		ID:             model.GenerateUUID(),
		Email:          email,
		Name:           name,
		PasswordHash:   string(hashed),
		Role:           model.Student,
		Status:         model.StatusTrial,
		TrialStartDate: &trialStart,
		TrialEndDate:   &trialEnd,
		JoinDate:       now,
		LastActive:     now,
		PaymentStatus:  model.PaymentNone,
	}
	if s.isAdminEmail(email) {
		user.Role = model.Admin
	}

	if err := s.UserRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := s.UserRepo.SetCurrent(ctx, user); err != nil {
		return nil, err
	}

	monitoring.UsersRegistered.Inc()
	logger.Log.Info("User registered",
		zap.String("userID", user.ID),
		zap.String("role", string(user.Role)),
		zap.Time("trialEnd", trialEnd),
	)
	return user, nil
}

// Login signs in by email and returns the refreshed record plus a token.
// The password is only checked when auth.verify_password is on.
func (s *EntitlementService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.UserRepo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, "", err
	}

	if s.Cfg.Auth.VerifyPassword {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			return nil, "", util.ErrInvalidCredentials
		}
	}

	now := s.Now()
	s.expire(user, now)
	if err := (model.TouchLastActive{At: now}).Apply(user); err != nil {
		return nil, "", err
	}
	if err := s.UserRepo.Update(ctx, user); err != nil {
		return nil, "", err
	}
	if err := s.UserRepo.SetCurrent(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Logout forgets the current user. The account record stays.
func (s *EntitlementService) Logout(ctx context.Context) error {
	return s.UserRepo.ClearCurrent(ctx)
}

func (s *EntitlementService) expire(user *model.User, now time.Time) bool {
	if !user.ExpireTrialIfDue(now) {
		return false
	}
	monitoring.TrialsExpired.Inc()
	logger.Log.Info("Trial expired", zap.String("userID", user.ID))
	return true
}

// Resume restores the signed-in user, expiring the trial if it ran out.
func (s *EntitlementService) Resume(ctx context.Context) (*model.User, error) {
	user, err := s.UserRepo.Current(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, util.ErrNotLoggedIn
	}
	if s.expire(user, s.Now()) {
		err := s.UserRepo.Update(ctx, user)
		if errors.Is(err, util.ErrUserNotFound) {
			err = s.UserRepo.SetCurrent(ctx, user)
		}
		if err != nil {
			return nil, err
		}
	}
	return user, nil
}

// Load fetches a user by id with the same lazy expiry check as Resume.
func (s *EntitlementService) Load(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.expire(user, s.Now()) {
		if err := s.UserRepo.Update(ctx, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// Apply runs cmds in order against the stored user. Nothing is written if
// any command is rejected.
func (s *EntitlementService) Apply(ctx context.Context, userID string, cmds ...model.UserCommand) (*model.User, error) {
	user, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, cmd := range cmds {
		if err := cmd.Apply(user); err != nil {
			return nil, err
		}
	}
	if err := model.CheckConsistency(user); err != nil {
		return nil, err
	}
	if err := s.UserRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *EntitlementService) UpdateCurrent(ctx context.Context, cmds ...model.UserCommand) (*model.User, error) {
	current, err := s.UserRepo.Current(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, util.ErrNotLoggedIn
	}
	return s.Apply(ctx, current.ID, cmds...)
}

// RequireAccess rejects students whose entitlement has expired.
func (s *EntitlementService) RequireAccess(user *model.User) error {
	if user == nil {
		return util.ErrNotLoggedIn
	}
	if !user.HasAccess() {
		return util.ErrEntitlementExpired
	}
	return nil
}

// Receipt is an uploaded proof of payment.
type Receipt struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type PaymentSubmission struct {
	Reference string
	Receipt   *Receipt
}

// SubmitPayment records a receipt upload or a transfer reference and puts
// the user in the review queue.
func (s *EntitlementService) SubmitPayment(ctx context.Context, userID string, sub PaymentSubmission) (*model.User, error) {
	var cmds []model.UserCommand
	if sub.Receipt != nil {
		key := ReceiptKey(userID, sub.Receipt.Filename, s.Now())
		url, err := s.Storage.Upload(ctx, key, sub.Receipt.Body, sub.Receipt.Size, sub.Receipt.ContentType)
		if err != nil {
			return nil, fmt.Errorf("store receipt: %w", err)
		}
		cmds = append(cmds, model.SubmitPaymentReceipt{Filename: sub.Receipt.Filename, URL: url})
	}
	if strings.TrimSpace(sub.Reference) != "" || len(cmds) == 0 {
		cmds = append(cmds, model.SubmitPaymentReference{Reference: sub.Reference})
	}

	user, err := s.Apply(ctx, userID, cmds...)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("Payment submitted for review", zap.String("userID", userID))
	return user, nil
}

// ReviewPayment settles a pending payment. Approval grants paid access,
// rejection closes access until the student pays again.
func (s *EntitlementService) ReviewPayment(ctx context.Context, userID string, approve bool) (*model.User, error) {
	user, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.PaymentStatus != model.PaymentPending {
		return nil, util.ErrPaymentNotPending
	}

	decision := "rejected"
	cmds := []model.UserCommand{
		model.SetPaymentStatus{PaymentStatus: model.PaymentRejected},
		model.SetStatus{Status: model.StatusExpired},
	}
	if approve {
		decision = "approved"
		cmds = []model.UserCommand{model.SetPaymentStatus{PaymentStatus: model.PaymentApproved}}
	}

	user, err = s.Apply(ctx, userID, cmds...)
	if err != nil {
		return nil, err
	}
	monitoring.PaymentsReviewed.WithLabelValues(decision).Inc()
	logger.Log.Info("Payment reviewed", zap.String("userID", userID), zap.String("decision", decision))
	return user, nil
}

type UserFilter struct {
	Role          model.UserRole
	Status        model.UserStatus
	PaymentStatus model.PaymentStatus
	// Query matches name or email, case-insensitively.
	Query string
}

func (f UserFilter) match(u *model.User) bool {
	if f.Role != "" && u.Role != f.Role {
		return false
	}
	if f.Status != "" && u.Status != f.Status {
		return false
	}
	if f.PaymentStatus != "" && u.PaymentStatus != f.PaymentStatus {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		return strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Email), q)
	}
	return true
}

// ListUsers returns sanitized records in registration order. Expiry is
// evaluated on the returned copies only.
func (s *EntitlementService) ListUsers(ctx context.Context, filter UserFilter) ([]model.User, error) {
	users, err := s.UserRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	out := make([]model.User, 0, len(users))
	for i := range users {
		u := &users[i]
		u.ExpireTrialIfDue(now)
		if filter.match(u) {
			out = append(out, u.Sanitized())
		}
	}
	return out, nil
}

func (s *EntitlementService) PendingPayments(ctx context.Context) ([]model.User, error) {
	return s.ListUsers(ctx, UserFilter{PaymentStatus: model.PaymentPending})
}
