package model

import (
	"github.com/jwalitptl/postoppal-api/pkg/qrcodec"
)

type Facility struct {
	Base
	Name       string `db:"name" json:"name"`
	Department string `db:"department" json:"department,omitempty"`
	Location   string `db:"location" json:"location,omitempty"`
	Contact    string `db:"contact" json:"contact,omitempty"`
}

func (f *Facility) QRRecord() qrcodec.FacilityRecord {
	return qrcodec.FacilityRecord{
		ID:         f.ID,
		Name:       f.Name,
		Department: f.Department,
		Location:   f.Location,
		Contact:    f.Contact,
	}
}
