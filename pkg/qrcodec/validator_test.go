package qrcodec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func tokenAt(ts time.Time) PatientToken {
	return PatientToken{
		PatientID: "PID-1",
		Name:      "Rajesh Kumar",
		Timestamp: ts.UTC().Format(TimestampLayout),
		Kind:      KindPatientIdentification,
	}
}

func TestValidator_Validate(t *testing.T) {
	now := testNow.Truncate(time.Millisecond)
	v := NewValidator(FixedClock(now), 0)

	tests := []struct {
		name   string
		token  PatientToken
		valid  bool
		errors []string
	}{
		{
			name:   "issued now",
			token:  tokenAt(now),
			valid:  true,
			errors: []string{},
		},
		{
			name:   "exactly at the window edge",
			token:  tokenAt(now.Add(-24 * time.Hour)),
			valid:  true,
			errors: []string{},
		},
		{
			name:   "25 hours old",
			token:  tokenAt(now.Add(-25 * time.Hour)),
			errors: []string{MsgExpired},
		},
		{
			name:   "one hour in the future",
			token:  tokenAt(now.Add(time.Hour)),
			errors: []string{MsgFutureTimestamp},
		},
		{
			name:   "far in the future",
			token:  tokenAt(now.Add(48 * time.Hour)),
			errors: []string{MsgExpired, MsgFutureTimestamp},
		},
		{
			name:   "everything missing",
			token:  PatientToken{},
			errors: []string{MsgPatientIDRequired, MsgNameRequired, MsgTimestampRequired},
		},
		{
			name: "garbage timestamp",
			token: PatientToken{
				PatientID: "PID-1",
				Name:      "A",
				Timestamp: "yesterday",
			},
			errors: []string{MsgTimestampInvalid},
		},
		{
			name: "missing name on stale token",
			token: func() PatientToken {
				tok := tokenAt(now.Add(-30 * time.Hour))
				tok.Name = ""
				return tok
			}(),
			errors: []string{MsgNameRequired, MsgExpired},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.Validate(tt.token)
			assert.Equal(t, tt.valid, result.IsValid)
			assert.Equal(t, tt.errors, result.Errors)
		})
	}
}

func TestValidator_AcceptsOffsetTimestamps(t *testing.T) {
	v := NewValidator(FixedClock(testNow), 0)
	ist := time.FixedZone("IST", 5*3600+1800)

	result := v.Validate(PatientToken{
		PatientID: "PID-1",
		Name:      "A",
		Timestamp: testNow.Add(-time.Hour).In(ist).Format(time.RFC3339),
	})

	assert.True(t, result.IsValid)
}

func TestValidator_CustomWindow(t *testing.T) {
	v := NewValidator(FixedClock(testNow), 12*time.Hour)

	result := v.Validate(tokenAt(testNow.Add(-13 * time.Hour)))

	assert.False(t, result.IsValid)
	assert.Equal(t, []string{"QR code has expired (older than 12 hours)"}, result.Errors)
}

func TestValidator_SubHourWindow(t *testing.T) {
	v := NewValidator(FixedClock(testNow), 30*time.Minute)

	result := v.Validate(tokenAt(testNow.Add(-time.Hour)))

	assert.Equal(t, []string{"QR code has expired (older than 30m0s)"}, result.Errors)
}
