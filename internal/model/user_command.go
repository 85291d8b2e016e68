package model

import (
	"fmt"
	"strings"
	"time"
)

// UserCommand is one validated mutation of a User record.
type UserCommand interface {
	Apply(u *User) error
}

// CheckConsistency rejects states a command sequence must not leave behind:
// an approved payment always means paid access.
func CheckConsistency(u *User) error {
	if u.PaymentStatus == PaymentApproved && u.Status != StatusPaid {
		return fmt.Errorf("%w: approved payment requires paid status, got %q", ErrInvalidUserCommand, u.Status)
	}
	return nil
}

type SetStatus struct {
	Status UserStatus `json:"status"`
}

func (c SetStatus) Apply(u *User) error {
	if !c.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidUserCommand, c.Status)
	}
	u.Status = c.Status
	return nil
}

// SetPaymentStatus changes the payment review state. Approval grants paid
// access; rejection leaves the entitlement status untouched.
type SetPaymentStatus struct {
	PaymentStatus PaymentStatus `json:"paymentStatus"`
}

func (c SetPaymentStatus) Apply(u *User) error {
	if !c.PaymentStatus.Valid() {
		return fmt.Errorf("%w: unknown payment status %q", ErrInvalidUserCommand, c.PaymentStatus)
	}
	u.PaymentStatus = c.PaymentStatus
	if c.PaymentStatus == PaymentApproved {
		u.Status = StatusPaid
	}
	return nil
}

type SetTrialDates struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (c SetTrialDates) Apply(u *User) error {
	if c.Start.IsZero() || c.End.IsZero() || !c.End.After(c.Start) {
		return fmt.Errorf("%w: trial end must be after trial start", ErrInvalidUserCommand)
	}
	start, end := c.Start, c.End
	u.TrialStartDate = &start
	u.TrialEndDate = &end
	return nil
}

type SubmitPaymentReceipt struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

func (c SubmitPaymentReceipt) Apply(u *User) error {
	name := strings.TrimSpace(c.Filename)
	if name == "" {
		return fmt.Errorf("%w: receipt filename is required", ErrInvalidUserCommand)
	}
	u.PaymentReceipt = name
	u.PaymentReceiptURL = c.URL
	u.PaymentStatus = PaymentPending
	return nil
}

type SubmitPaymentReference struct {
	Reference string `json:"reference"`
}

func (c SubmitPaymentReference) Apply(u *User) error {
	ref := strings.TrimSpace(c.Reference)
	if ref == "" {
		return fmt.Errorf("%w: payment reference is required", ErrInvalidUserCommand)
	}
	u.PaymentReference = ref
	u.PaymentStatus = PaymentPending
	return nil
}

type TouchLastActive struct {
	At time.Time `json:"at"`
}

func (c TouchLastActive) Apply(u *User) error {
	u.LastActive = c.At
	return nil
}
