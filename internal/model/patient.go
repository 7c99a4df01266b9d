package model

import (
	"github.com/lib/pq"

	"github.com/jwalitptl/postoppal-api/pkg/qrcodec"
)

type PatientStatus string

const (
	PatientStatusActive     PatientStatus = "active"
	PatientStatusDischarged PatientStatus = "discharged"
)

type Patient struct {
	Base
	Name             string         `db:"name" json:"name"`
	Email            string         `db:"email" json:"email,omitempty"`
	EmergencyContact string         `db:"emergency_contact" json:"emergency_contact,omitempty"`
	BloodGroup       string         `db:"blood_group" json:"blood_group,omitempty"`
	Allergies        pq.StringArray `db:"allergies" json:"allergies,omitempty"`
	DoctorID         string         `db:"doctor_id" json:"doctor_id,omitempty"`
	Status           string         `db:"status" json:"status"`
}

// QRRecord is the part of the patient embedded in an identity token.
func (p *Patient) QRRecord() qrcodec.PatientRecord {
	return qrcodec.PatientRecord{
		ID:               p.ID,
		Name:             p.Name,
		EmergencyContact: p.EmergencyContact,
		BloodGroup:       p.BloodGroup,
		Allergies:        p.Allergies,
		DoctorID:         p.DoctorID,
	}
}
