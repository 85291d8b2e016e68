package util

import (
	"errors"

	"exam_portal_backend/internal/examsession"
	"exam_portal_backend/internal/model"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailRegistered    = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotLoggedIn        = errors.New("no user is logged in")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrEntitlementExpired = errors.New("trial expired, upgrade required")
	ErrExamNotFound       = errors.New("exam not found")
	ErrSubjectNotFound    = errors.New("subject not found")
	ErrNoQuestions        = errors.New("no questions available for this exam")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrSessionNotFound    = errors.New("exam session not found")
	ErrAttemptNotFound    = errors.New("attempt not found")
	ErrPaymentNotPending  = errors.New("no pending payment for user")
	ErrInvalidQuestion    = model.ErrInvalidQuestion
	ErrInvalidUserCommand = model.ErrInvalidUserCommand
	ErrSessionNotActive   = examsession.ErrNotInProgress
	ErrInvalidOption      = examsession.ErrInvalidOption
	ErrQuestionOutOfRange = examsession.ErrIndexOutOfRange
)
