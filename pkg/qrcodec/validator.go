package qrcodec

import (
	"fmt"
	"time"
)

// DefaultExpiryWindow bounds how long a patient token stays valid.
const DefaultExpiryWindow = 24 * time.Hour

const (
	MsgPatientIDRequired = "Patient ID is required"
	MsgNameRequired      = "Patient name is required"
	MsgTimestampRequired = "Timestamp is required"
	MsgTimestampInvalid  = "QR code timestamp is invalid"
	MsgExpired           = "QR code has expired (older than 24 hours)"
	MsgFutureTimestamp   = "QR code timestamp is in the future"
)

// ValidationResult lists every problem found with a token.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// Validator checks patient tokens against a clock.
type Validator struct {
	clock  Clock
	window time.Duration
}

// NewValidator uses SystemClock and DefaultExpiryWindow for zero arguments.
func NewValidator(clock Clock, window time.Duration) *Validator {
	if clock == nil {
		clock = SystemClock
	}
	if window <= 0 {
		window = DefaultExpiryWindow
	}
	return &Validator{clock: clock, window: window}
}

// Validate runs all checks and reports every failure at once.
func (v *Validator) Validate(t PatientToken) ValidationResult {
	errs := make([]string, 0, 4)

	if t.PatientID == "" {
		errs = append(errs, MsgPatientIDRequired)
	}
	if t.Name == "" {
		errs = append(errs, MsgNameRequired)
	}
	if t.Timestamp == "" {
		errs = append(errs, MsgTimestampRequired)
	} else {
		errs = append(errs, v.checkFreshness(t.Timestamp)...)
	}

	return ValidationResult{
		IsValid: len(errs) == 0,
		Errors:  errs,
	}
}

func (v *Validator) checkFreshness(ts string) []string {
	issued, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return []string{MsgTimestampInvalid}
	}

	now := v.clock.Now()
	var errs []string

	age := now.Sub(issued)
	if age < 0 {
		age = -age
	}
	if age > v.window {
		errs = append(errs, expiredMessage(v.window))
	}
	if issued.After(now) {
		errs = append(errs, MsgFutureTimestamp)
	}
	return errs
}

func expiredMessage(window time.Duration) string {
	if window == DefaultExpiryWindow {
		return MsgExpired
	}
	return fmt.Sprintf("QR code has expired (older than %s)", describeWindow(window))
}

// describeWindow renders whole hours as "N hours" and anything else as a
// duration, e.g. "30m0s".
func describeWindow(window time.Duration) string {
	switch {
	case window == time.Hour:
		return "1 hour"
	case window > 0 && window%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(window/time.Hour))
	default:
		return window.String()
	}
}
