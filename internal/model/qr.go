package model

import (
	"encoding/json"

	"github.com/jwalitptl/postoppal-api/pkg/qrcodec"
)

type PatientQRQuery struct {
	Kind string `form:"kind" binding:"omitempty,qrkind"`
}

type EncodeRequest struct {
	Data     json.RawMessage `json:"data" binding:"required"`
	Size     int             `json:"size" binding:"omitempty,min=100,max=1000"`
	AutoSize bool            `json:"auto_size"`
}

type BatchItemRequest struct {
	Data  json.RawMessage `json:"data" binding:"required"`
	Label string          `json:"label" binding:"max=200"`
}

type BatchRequest struct {
	Items []BatchItemRequest `json:"items" binding:"required,min=1,max=100,dive"`
}

type ScanRequest struct {
	Raw string `json:"raw" binding:"required,max=4096"`
}

type ValidateRequest struct {
	Token qrcodec.PatientToken `json:"token"`
}

type PrintableRequest struct {
	Data           json.RawMessage `json:"data" binding:"required"`
	IncludeCaption *bool           `json:"include_caption"`
}

type PrintRequest struct {
	Data json.RawMessage `json:"data" binding:"required"`
}

type ShareRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// QRCodeResponse pairs a token with its rendered image.
type QRCodeResponse struct {
	Token   any    `json:"token"`
	DataURL string `json:"data_url"`
}

type EncodeResponse struct {
	DataURL string `json:"data_url"`
}

type ScanResponse struct {
	EventID    string                    `json:"event_id"`
	Result     qrcodec.ScanResult        `json:"result"`
	Validation *qrcodec.ValidationResult `json:"validation,omitempty"`
}
