package qrcodec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_PatientRoundTrip(t *testing.T) {
	token := BuildPatientToken(PatientRecord{
		ID:               "PID-2024-001",
		Name:             "Rajesh Kumar",
		EmergencyContact: "+91 9876543210",
		BloodGroup:       "O+",
		Allergies:        []string{"Penicillin", "Sulfa"},
		DoctorID:         "DOC-7",
	}, FixedClock(testNow))

	raw, err := Serialize(token)
	require.NoError(t, err)

	result := Parse(raw)

	require.Equal(t, ScanPatient, result.Kind)
	require.NotNil(t, result.Patient)
	assert.Nil(t, result.Facility)
	assert.Equal(t, token, *result.Patient)
	assert.Equal(t, raw, result.Raw)
}

func TestParse_FacilityRoundTrip(t *testing.T) {
	token := BuildFacilityToken(FacilityRecord{ID: "FAC-1", Name: "ICU", Location: "Block A"})

	raw, err := Serialize(token)
	require.NoError(t, err)

	result := Parse(raw)

	require.Equal(t, ScanFacility, result.Kind)
	require.NotNil(t, result.Facility)
	assert.Equal(t, token, *result.Facility)
}

func TestParse_PlainText(t *testing.T) {
	result := Parse("not json at all")

	assert.Equal(t, ScanText, result.Kind)
	assert.Equal(t, "not json at all", result.Raw)
	assert.Nil(t, result.Patient)
	assert.Nil(t, result.Facility)
}

func TestParse_UnrecognizedShapes(t *testing.T) {
	cases := map[string]string{
		"number":                 `123`,
		"null":                   `null`,
		"array":                  `[{"patientId":"P1","type":"patient_identification"}]`,
		"empty patient id":       `{"patientId":"","type":"patient_identification"}`,
		"patient id wrong kind":  `{"patientId":"P1","type":"facility_access"}`,
		"facility id wrong kind": `{"facilityId":"F1","type":"patient_identification"}`,
		"no kind":                `{"patientId":"P1","name":"A"}`,
		"numeric kind":           `{"patientId":"P1","type":7}`,
		"numeric patient id":     `{"patientId":42,"type":"patient_identification"}`,
		"url":                    `https://example.org/ward/3`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			result := Parse(raw)
			assert.Equal(t, ScanText, result.Kind)
			assert.Equal(t, raw, result.Raw)
		})
	}
}

func TestParse_KindVariants(t *testing.T) {
	// Only kinds naming "patient" are recognized as patient tokens.
	for _, kind := range []Kind{KindMedicalAccess, KindQuickInfo} {
		raw := `{"patientId":"P1","name":"A","type":"` + string(kind) + `"}`
		result := Parse(raw)
		assert.Equal(t, ScanText, result.Kind, string(kind))
		assert.Equal(t, raw, result.Raw)
	}

	result := Parse(`{"facilityId":"F1","name":"MRI","type":"equipment_access"}`)
	require.Equal(t, ScanFacility, result.Kind)
	assert.Equal(t, KindEquipmentAccess, result.Facility.Kind)
}

func TestParse_AcceptsKindKeyAlias(t *testing.T) {
	result := Parse(`{"patientId":"P1","name":"A","kind":"patient_identification","timestamp":"2024-03-05T10:15:30.123Z"}`)

	require.Equal(t, ScanPatient, result.Kind)
	assert.Equal(t, KindPatientIdentification, result.Patient.Kind)
	assert.Equal(t, "2024-03-05T10:15:30.123Z", result.Patient.Timestamp)
}

func TestParse_LegacyCodeWithoutVersion(t *testing.T) {
	result := Parse(`{"patientId":"PID-2024-001","name":"Rajesh Kumar","emergencyContact":"+91 9876543210","timestamp":"2024-03-05T10:15:30.123Z","type":"patient_identification"}`)

	require.Equal(t, ScanPatient, result.Kind)
	assert.Equal(t, 0, result.Patient.Version)
	assert.Equal(t, "+91 9876543210", result.Patient.EmergencyContact)
}

func TestScanResult_JSON(t *testing.T) {
	b, err := json.Marshal(Parse("hello"))
	require.NoError(t, err)

	assert.JSONEq(t, `{"kind":"text","raw":"hello"}`, string(b))
}

func TestScanResult_JSONRoundTrip(t *testing.T) {
	in := Parse(`{"facilityId":"FAC-3","name":"Ward 3B","type":"equipment_access"}`)
	b, err := json.Marshal(in)
	require.NoError(t, err)

	var out ScanResult
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)

	var k ScanKind
	assert.Error(t, k.UnmarshalText([]byte("barcode")))
}
