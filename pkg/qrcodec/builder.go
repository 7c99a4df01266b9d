package qrcodec

// PatientRecord is the subset of a patient directory entry embedded in a QR code.
type PatientRecord struct {
	ID               string
	Name             string
	EmergencyContact string
	BloodGroup       string
	Allergies        []string
	DoctorID         string
}

// FacilityRecord is the subset of a facility directory entry embedded in a QR code.
type FacilityRecord struct {
	ID         string
	Name       string
	Department string
	Location   string
	Contact    string
}

// BuildPatientToken maps a patient record onto a patient identification token
// stamped with the clock's current time. Fields are copied as-is; no validation
// happens here.
func BuildPatientToken(rec PatientRecord, clock Clock) PatientToken {
	if clock == nil {
		clock = SystemClock
	}

	var allergies []string
	if len(rec.Allergies) > 0 {
		allergies = append(allergies, rec.Allergies...)
	}

	return PatientToken{
		Version:          SchemaVersion,
		PatientID:        rec.ID,
		Name:             rec.Name,
		EmergencyContact: rec.EmergencyContact,
		BloodGroup:       rec.BloodGroup,
		Allergies:        allergies,
		DoctorID:         rec.DoctorID,
		Timestamp:        clock.Now().UTC().Format(TimestampLayout),
		Kind:             KindPatientIdentification,
	}
}

// BuildFacilityToken maps a facility record onto a facility access token.
func BuildFacilityToken(rec FacilityRecord) FacilityToken {
	return FacilityToken{
		Version:    SchemaVersion,
		FacilityID: rec.ID,
		Name:       rec.Name,
		Department: rec.Department,
		Location:   rec.Location,
		Contact:    rec.Contact,
		Kind:       KindFacilityAccess,
	}
}
