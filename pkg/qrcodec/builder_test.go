package qrcodec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 5, 10, 15, 30, 123456789, time.UTC)

func TestBuildPatientToken(t *testing.T) {
	rec := PatientRecord{
		ID:               "PID-2024-001",
		Name:             "Rajesh Kumar",
		EmergencyContact: "+91 9876543210",
		BloodGroup:       "O+",
		Allergies:        []string{"Penicillin", "Sulfa"},
		DoctorID:         "DOC-7",
	}

	token := BuildPatientToken(rec, FixedClock(testNow))

	assert.Equal(t, SchemaVersion, token.Version)
	assert.Equal(t, "PID-2024-001", token.PatientID)
	assert.Equal(t, "Rajesh Kumar", token.Name)
	assert.Equal(t, "+91 9876543210", token.EmergencyContact)
	assert.Equal(t, "O+", token.BloodGroup)
	assert.Equal(t, []string{"Penicillin", "Sulfa"}, token.Allergies)
	assert.Equal(t, "DOC-7", token.DoctorID)
	assert.Equal(t, "2024-03-05T10:15:30.123Z", token.Timestamp)
	assert.Equal(t, KindPatientIdentification, token.Kind)

	issued, err := token.IssuedAt()
	require.NoError(t, err)
	assert.True(t, testNow.Truncate(time.Millisecond).Equal(issued))
}

func TestBuildPatientToken_DoesNotAliasAllergies(t *testing.T) {
	rec := PatientRecord{ID: "P1", Name: "A", Allergies: []string{"Latex"}}

	token := BuildPatientToken(rec, FixedClock(testNow))
	rec.Allergies[0] = "changed"

	assert.Equal(t, []string{"Latex"}, token.Allergies)
}

func TestBuildPatientToken_PassesMissingFieldsThrough(t *testing.T) {
	token := BuildPatientToken(PatientRecord{}, FixedClock(testNow))

	assert.Empty(t, token.PatientID)
	assert.Empty(t, token.Name)
	assert.Nil(t, token.Allergies)
	assert.NotEmpty(t, token.Timestamp)
}

func TestBuildThenValidate_Scenario(t *testing.T) {
	clock := FixedClock(testNow)
	rec := PatientRecord{
		ID:         "PID-1",
		Name:       "Rajesh Kumar",
		BloodGroup: "O+",
		Allergies:  []string{"Penicillin"},
	}

	result := NewValidator(clock, 0).Validate(BuildPatientToken(rec, clock))

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
}

func TestBuildFacilityToken(t *testing.T) {
	token := BuildFacilityToken(FacilityRecord{
		ID:         "FAC-3",
		Name:       "Ward 3B",
		Department: "Orthopedics",
		Location:   "Block B, Floor 3",
		Contact:    "ext. 3301",
	})

	assert.Equal(t, FacilityToken{
		Version:    SchemaVersion,
		FacilityID: "FAC-3",
		Name:       "Ward 3B",
		Department: "Orthopedics",
		Location:   "Block B, Floor 3",
		Contact:    "ext. 3301",
		Kind:       KindFacilityAccess,
	}, token)
}

func TestKindFamilies(t *testing.T) {
	for _, k := range []Kind{KindPatientIdentification, KindMedicalAccess, KindQuickInfo} {
		assert.True(t, k.IsPatient(), k)
		assert.False(t, k.IsFacility(), k)
	}
	for _, k := range []Kind{KindFacilityAccess, KindRoomAccess, KindEquipmentAccess} {
		assert.True(t, k.IsFacility(), k)
		assert.False(t, k.IsPatient(), k)
	}
	assert.False(t, Kind("visitor_pass").IsPatient())

	assert.True(t, KindPatientIdentification.IsIssuablePatient())
	assert.False(t, KindMedicalAccess.IsIssuablePatient())
	assert.False(t, KindQuickInfo.IsIssuablePatient())
	assert.False(t, KindRoomAccess.IsIssuablePatient())
	assert.False(t, Kind("").IsFacility())
}
