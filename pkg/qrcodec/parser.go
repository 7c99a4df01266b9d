package qrcodec

import (
	"encoding/json"
	"fmt"
)

// ScanKind discriminates the outcome of Parse.
type ScanKind int

const (
	ScanText ScanKind = iota
	ScanPatient
	ScanFacility
)

func (k ScanKind) String() string {
	switch k {
	case ScanPatient:
		return "patient"
	case ScanFacility:
		return "facility"
	default:
		return "text"
	}
}

func (k ScanKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ScanKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "patient":
		*k = ScanPatient
	case "facility":
		*k = ScanFacility
	case "text":
		*k = ScanText
	default:
		return fmt.Errorf("unknown scan kind %q", text)
	}
	return nil
}

// ScanResult is what a scanned code turned out to be. Exactly one of Patient
// or Facility is set for structured kinds; Raw always holds the scanned text.
type ScanResult struct {
	Kind     ScanKind       `json:"kind"`
	Patient  *PatientToken  `json:"patient,omitempty"`
	Facility *FacilityToken `json:"facility,omitempty"`
	Raw      string         `json:"raw"`
}

type payloadShape struct {
	PatientID  any `json:"patientId"`
	FacilityID any `json:"facilityId"`
	Type       any `json:"type"`
	Kind       any `json:"kind"`
}

func (p payloadShape) kind() string {
	if s, ok := p.Type.(string); ok && s != "" {
		return s
	}
	if s, ok := p.Kind.(string); ok {
		return s
	}
	return ""
}

// Parse recognizes patient and facility tokens in scanned text. Anything that
// is not JSON, or JSON of an unrecognized shape, comes back as ScanText with
// the input untouched. Parse never fails.
func Parse(raw string) ScanResult {
	text := ScanResult{Kind: ScanText, Raw: raw}

	var shape payloadShape
	if err := json.Unmarshal([]byte(raw), &shape); err != nil {
		return text
	}
	kind := shape.kind()

	switch {
	case truthy(shape.PatientID) && Kind(kind).ScansAsPatient():
		var t PatientToken
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return text
		}
		t.Kind = Kind(kind)
		return ScanResult{Kind: ScanPatient, Patient: &t, Raw: raw}

	case truthy(shape.FacilityID) && Kind(kind).ScansAsFacility():
		var t FacilityToken
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return text
		}
		t.Kind = Kind(kind)
		return ScanResult{Kind: ScanFacility, Facility: &t, Raw: raw}
	}

	return text
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0
	default:
		return true
	}
}
