// Package qrcodec builds, encodes, parses and validates the identity tokens
// carried by PostOpPal QR codes.
package qrcodec

import (
	"strings"
	"time"
)

// Kind tags a token with the use it was issued for.
type Kind string

const (
	KindPatientIdentification Kind = "patient_identification"
	KindMedicalAccess         Kind = "medical_access"
	KindQuickInfo             Kind = "quick_info"

	KindFacilityAccess  Kind = "facility_access"
	KindRoomAccess      Kind = "room_access"
	KindEquipmentAccess Kind = "equipment_access"
)

// IsPatient reports whether k is one of the patient token kinds.
func (k Kind) IsPatient() bool {
	switch k {
	case KindPatientIdentification, KindMedicalAccess, KindQuickInfo:
		return true
	}
	return false
}

// ScansAsPatient reports whether a scanned token of kind k is read back as a
// patient token. Only kinds naming "patient" are.
func (k Kind) ScansAsPatient() bool {
	return strings.Contains(string(k), "patient")
}

// ScansAsFacility reports whether a scanned token of kind k is read back as a
// facility token.
func (k Kind) ScansAsFacility() bool {
	return strings.Contains(string(k), "access")
}

// IsIssuablePatient reports whether a patient code may be issued as kind k.
// medical_access and quick_info codes scan back as plain text, so they are
// recognized but never issued.
func (k Kind) IsIssuablePatient() bool {
	return k.IsPatient() && k.ScansAsPatient()
}

// IsFacility reports whether k is one of the facility token kinds.
func (k Kind) IsFacility() bool {
	switch k {
	case KindFacilityAccess, KindRoomAccess, KindEquipmentAccess:
		return true
	}
	return false
}

// SchemaVersion is stamped into every token built by this package.
// Tokens without a version are legacy codes and are still accepted.
const SchemaVersion = 1

// TimestampLayout is the ISO-8601 form used for token timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// PatientToken identifies a patient. It expires 24 hours after Timestamp.
type PatientToken struct {
	Version          int      `json:"v,omitempty"`
	PatientID        string   `json:"patientId"`
	Name             string   `json:"name"`
	EmergencyContact string   `json:"emergencyContact,omitempty"`
	BloodGroup       string   `json:"bloodGroup,omitempty"`
	Allergies        []string `json:"allergies,omitempty"`
	DoctorID         string   `json:"doctorId,omitempty"`
	Timestamp        string   `json:"timestamp,omitempty"`
	Kind             Kind     `json:"type"`
}

// IssuedAt parses Timestamp.
func (t PatientToken) IssuedAt() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, t.Timestamp)
}

// FacilityToken identifies a facility, room or piece of equipment. It is not
// time-boxed.
type FacilityToken struct {
	Version    int    `json:"v,omitempty"`
	FacilityID string `json:"facilityId"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
	Location   string `json:"location,omitempty"`
	Contact    string `json:"contact,omitempty"`
	Kind       Kind   `json:"type"`
}
