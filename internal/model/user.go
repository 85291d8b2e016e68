package model

import (
	"time"
)

type UserRole string

const (
	Student UserRole = "student"
	Admin   UserRole = "admin"
)

type UserStatus string

const (
	StatusTrial   UserStatus = "trial"
	StatusPaid    UserStatus = "paid"
	StatusExpired UserStatus = "expired"
)

func (s UserStatus) Valid() bool {
	switch s {
	case StatusTrial, StatusPaid, StatusExpired:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentNone     PaymentStatus = "none"
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
	PaymentRejected PaymentStatus = "rejected"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentNone, PaymentPending, PaymentApproved, PaymentRejected:
		return true
	}
	return false
}

// swagger:model User
type User struct {
	ID             string        `json:"id"`
	Email          string        `json:"email"`
	Name           string        `json:"name"`
	PasswordHash   string        `json:"passwordHash,omitempty"`
	Role           UserRole      `json:"role"`
	Status         UserStatus    `json:"status"`
	TrialStartDate *time.Time    `json:"trialStartDate,omitempty"`
	TrialEndDate   *time.Time    `json:"trialEndDate,omitempty"`
	JoinDate       time.Time     `json:"joinDate"`
	LastActive     time.Time     `json:"lastActive"`
	PaymentStatus  PaymentStatus `json:"paymentStatus"`
	PaymentReceipt string        `json:"paymentReceipt,omitempty"`
	// PaymentReceiptURL points at the stored upload.
	PaymentReceiptURL string `json:"paymentReceiptUrl,omitempty"`
	PaymentReference  string `json:"paymentReference,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u.Role == Admin
}

// ExpireTrialIfDue moves a trial whose end date has passed to expired.
// The transition is one-way; it reports whether the user changed.
func (u *User) ExpireTrialIfDue(now time.Time) bool {
	if u.Status != StatusTrial || u.TrialEndDate == nil {
		return false
	}
	if !u.TrialEndDate.Before(now) {
		return false
	}
	u.Status = StatusExpired
	return true
}

// HasAccess reports whether the user may use practice and exam features.
func (u *User) HasAccess() bool {
	return u.IsAdmin() || u.Status != StatusExpired
}

// TrialRemaining is zero once the trial is over or for non-trial users.
func (u *User) TrialRemaining(now time.Time) time.Duration {
	if u.Status != StatusTrial || u.TrialEndDate == nil {
		return 0
	}
	if d := u.TrialEndDate.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Sanitized returns a copy safe to hand to clients.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}
