package qr

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/postoppal-api/internal/email"
	"github.com/jwalitptl/postoppal-api/internal/model"
	"github.com/jwalitptl/postoppal-api/internal/repository"
	apperrors "github.com/jwalitptl/postoppal-api/pkg/errors"
	"github.com/jwalitptl/postoppal-api/pkg/logger"
	"github.com/jwalitptl/postoppal-api/pkg/messaging"
	"github.com/jwalitptl/postoppal-api/pkg/metrics"
	"github.com/jwalitptl/postoppal-api/pkg/qrcodec"
)

type Service interface {
	PatientQR(ctx context.Context, patientID string, kind qrcodec.Kind) (*PatientQR, error)
	FacilityQR(ctx context.Context, facilityID string) (*FacilityQR, error)
	Encode(ctx context.Context, payload any, size int, autoSize bool) (string, error)
	Batch(ctx context.Context, items []qrcodec.BatchItem) ([]qrcodec.BatchResult, error)
	Scan(ctx context.Context, scannerID, raw string) (*ScanOutcome, error)
	ListScans(ctx context.Context, filters *model.ScanEventFilters) ([]*model.ScanEvent, error)
	Validate(token qrcodec.PatientToken) qrcodec.ValidationResult
	Printable(ctx context.Context, payload any, includeCaption bool) (string, error)
	Print(ctx context.Context, payload any)
	ShareByEmail(ctx context.Context, patientID, to string) error
}

type PatientQR struct {
	Token   qrcodec.PatientToken `json:"token"`
	DataURL string               `json:"data_url"`
}

type FacilityQR struct {
	Token   qrcodec.FacilityToken `json:"token"`
	DataURL string                `json:"data_url"`
}

type ScanOutcome struct {
	Result     qrcodec.ScanResult        `json:"result"`
	Validation *qrcodec.ValidationResult `json:"validation,omitempty"`
	EventID    uuid.UUID                 `json:"event_id"`
}

// Deps are the collaborators of the QR service. Publisher, Mailer, Printer,
// Metrics and Logger may be nil.
type Deps struct {
	Patients   repository.PatientRepository
	Facilities repository.FacilityRepository
	Scans      repository.ScanEventRepository
	Publisher  messaging.Publisher
	Mailer     email.Service
	Encoder    *qrcodec.Encoder
	Printer    *qrcodec.Printer
	Validator  *qrcodec.Validator
	Clock      qrcodec.Clock
	Metrics    *metrics.Metrics
	Logger     *logger.Logger
	// FacilityCacheTTL of zero disables the facility cache.
	FacilityCacheTTL time.Duration
}

type service struct {
	Deps
	facilityCache *cache.Cache
}

func NewService(deps Deps) Service {
	if deps.Clock == nil {
		deps.Clock = qrcodec.SystemClock
	}
	if deps.Encoder == nil {
		deps.Encoder = qrcodec.NewEncoder(qrcodec.DefaultOptions())
	}
	if deps.Validator == nil {
		deps.Validator = qrcodec.NewValidator(deps.Clock, 0)
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New("qr")
	}
	if deps.Printer == nil {
		deps.Printer = qrcodec.NewPrinter(qrcodec.PrinterConfig{}, nil, deps.Clock, deps.Logger)
	}

	s := &service{Deps: deps}
	if deps.FacilityCacheTTL > 0 {
		s.facilityCache = cache.New(deps.FacilityCacheTTL, 2*deps.FacilityCacheTTL)
	}
	return s
}

func (s *service) PatientQR(ctx context.Context, patientID string, kind qrcodec.Kind) (*PatientQR, error) {
	if kind != "" && !kind.IsIssuablePatient() {
		return nil, apperrors.BadRequest(fmt.Sprintf("patient QR codes cannot be issued as %q", kind), nil)
	}

	patient, err := s.loadPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	token := qrcodec.BuildPatientToken(patient.QRRecord(), s.Clock)
	if kind != "" {
		token.Kind = kind
	}

	dataURL, err := s.encode(s.Encoder, token, string(token.Kind))
	if err != nil {
		return nil, err
	}
	return &PatientQR{Token: token, DataURL: dataURL}, nil
}

func (s *service) FacilityQR(ctx context.Context, facilityID string) (*FacilityQR, error) {
	if s.facilityCache != nil {
		if cached, ok := s.facilityCache.Get(facilityID); ok {
			s.Metrics.QRCacheHits.WithLabelValues("hit").Inc()
			return cached.(*FacilityQR), nil
		}
		s.Metrics.QRCacheHits.WithLabelValues("miss").Inc()
	}

	facility, err := s.Facilities.Get(ctx, facilityID)
	if err != nil {
		return nil, lookupError("facility", err)
	}

	token := qrcodec.BuildFacilityToken(facility.QRRecord())
	dataURL, err := s.encode(s.Encoder, token, string(token.Kind))
	if err != nil {
		return nil, err
	}

	qr := &FacilityQR{Token: token, DataURL: dataURL}
	if s.facilityCache != nil {
		s.facilityCache.SetDefault(facilityID, qr)
	}
	return qr, nil
}

func (s *service) Encode(ctx context.Context, payload any, size int, autoSize bool) (string, error) {
	enc := s.Encoder
	if autoSize {
		content, err := qrcodec.Serialize(payload)
		if err != nil {
			return "", s.encodingFailure(err)
		}
		size = qrcodec.OptimalSize(content)
	}
	if size > 0 {
		enc = enc.WithSize(size)
	}
	return s.encode(enc, payload, "custom")
}

func (s *service) Batch(ctx context.Context, items []qrcodec.BatchItem) ([]qrcodec.BatchResult, error) {
	s.Metrics.QRBatchSize.Observe(float64(len(items)))

	timer := prometheus.NewTimer(s.Metrics.QREncodeLatency)
	results, err := s.Encoder.EncodeBatch(items)
	timer.ObserveDuration()
	if err != nil {
		return nil, s.encodingFailure(err)
	}

	s.Metrics.QRCodesEncoded.WithLabelValues("batch").Add(float64(len(results)))
	return results, nil
}

func (s *service) Scan(ctx context.Context, scannerID, raw string) (*ScanOutcome, error) {
	outcome := &ScanOutcome{Result: qrcodec.Parse(raw)}

	event := &model.ScanEvent{
		ID:        uuid.New(),
		ScannedBy: scannerID,
		RequestID: logger.RequestIDFromContext(ctx),
		Kind:      outcome.Result.Kind.String(),
		CreatedAt: s.Clock.Now().UTC(),
	}

	switch outcome.Result.Kind {
	case qrcodec.ScanPatient:
		validation := s.Validator.Validate(*outcome.Result.Patient)
		outcome.Validation = &validation
		event.SubjectID = outcome.Result.Patient.PatientID
		event.Valid = validation.IsValid
		event.Errors = validation.Errors
	case qrcodec.ScanFacility:
		event.SubjectID = outcome.Result.Facility.FacilityID
		event.Valid = true
	}
	outcome.EventID = event.ID

	s.Metrics.QRScans.WithLabelValues(event.Kind, strconv.FormatBool(event.Valid)).Inc()

	if err := s.Scans.Create(ctx, event); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("record scan: %w", err))
	}

	if s.Publisher != nil {
		if err := s.Publisher.Publish(ctx, messaging.ChannelScans, event); err != nil {
			s.Metrics.RedisOperations.WithLabelValues("publish_scan", "error").Inc()
			s.Logger.Ctx(ctx).Warn("failed to publish scan event", "event_id", event.ID.String(), "error", err.Error())
		} else {
			s.Metrics.RedisOperations.WithLabelValues("publish_scan", "success").Inc()
		}
	}

	s.Logger.Ctx(ctx).Info("QR code scanned",
		"event_id", event.ID.String(),
		"scanned_by", scannerID,
		"kind", event.Kind,
		"valid", event.Valid)

	return outcome, nil
}

func (s *service) ListScans(ctx context.Context, filters *model.ScanEventFilters) ([]*model.ScanEvent, error) {
	events, err := s.Scans.List(ctx, filters)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("list scans: %w", err))
	}
	return events, nil
}

func (s *service) Validate(token qrcodec.PatientToken) qrcodec.ValidationResult {
	return s.Validator.Validate(token)
}

func (s *service) Printable(ctx context.Context, payload any, includeCaption bool) (string, error) {
	doc, err := s.Printer.BuildPrintableDocument(payload, includeCaption)
	if err != nil {
		return "", s.encodingFailure(err)
	}
	return doc, nil
}

// Print sends the payload to the print surface. It never fails; problems are
// logged by the printer.
func (s *service) Print(ctx context.Context, payload any) {
	s.Metrics.QRPrintJobs.WithLabelValues("requested").Inc()
	s.Printer.PrintViaNewWindow(ctx, payload)
}

func (s *service) ShareByEmail(ctx context.Context, patientID, to string) error {
	if s.Mailer == nil {
		return apperrors.Unavailable("email sharing is not configured", nil)
	}

	patient, err := s.loadPatient(ctx, patientID)
	if err != nil {
		return err
	}
	token := qrcodec.BuildPatientToken(patient.QRRecord(), s.Clock)

	doc, err := s.Printer.BuildPrintableDocument(token, true)
	if err != nil {
		return s.encodingFailure(err)
	}
	content, err := qrcodec.Serialize(token)
	if err != nil {
		return s.encodingFailure(err)
	}
	png, err := s.Encoder.Render(content)
	if err != nil {
		return s.encodingFailure(err)
	}

	err = s.Mailer.SendQRCard(ctx, email.QRCard{
		To:       to,
		Subject:  fmt.Sprintf("Medical QR code for %s", patient.Name),
		HTML:     doc,
		PNG:      png,
		Filename: fmt.Sprintf("patient-%s.png", patient.ID),
	})
	if err != nil {
		return apperrors.Unavailable("failed to send QR code", err)
	}

	s.Logger.Info("QR code shared", "patient_id", patient.ID)
	return nil
}

func (s *service) loadPatient(ctx context.Context, id string) (*model.Patient, error) {
	patient, err := s.Patients.Get(ctx, id)
	if err != nil {
		return nil, lookupError("patient", err)
	}
	return patient, nil
}

func (s *service) encode(enc *qrcodec.Encoder, payload any, kind string) (string, error) {
	timer := prometheus.NewTimer(s.Metrics.QREncodeLatency)
	dataURL, err := enc.Encode(payload)
	timer.ObserveDuration()
	if err != nil {
		return "", s.encodingFailure(err)
	}
	s.Metrics.QRCodesEncoded.WithLabelValues(kind).Inc()
	return dataURL, nil
}

func (s *service) encodingFailure(err error) error {
	var encErr *qrcodec.EncodingError
	if errors.As(err, &encErr) {
		s.Metrics.QREncodeErrors.WithLabelValues(encErr.Op).Inc()
		return apperrors.BadRequest("QR code could not be generated", err)
	}
	return apperrors.Internal(err)
}

func lookupError(resource string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, err)
	}
	return apperrors.Internal(fmt.Errorf("load %s: %w", resource, err))
}
