package qr

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/postoppal-api/internal/email"
	"github.com/jwalitptl/postoppal-api/internal/model"
)

type mockPatientRepo struct{ mock.Mock }

func (m *mockPatientRepo) Create(ctx context.Context, p *model.Patient) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockPatientRepo) Get(ctx context.Context, id string) (*model.Patient, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*model.Patient)
	return p, args.Error(1)
}

func (m *mockPatientRepo) Update(ctx context.Context, p *model.Patient) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockPatientRepo) List(ctx context.Context, page model.Pagination) ([]*model.Patient, error) {
	args := m.Called(ctx, page)
	ps, _ := args.Get(0).([]*model.Patient)
	return ps, args.Error(1)
}

type mockFacilityRepo struct{ mock.Mock }

func (m *mockFacilityRepo) Create(ctx context.Context, f *model.Facility) error {
	return m.Called(ctx, f).Error(0)
}

func (m *mockFacilityRepo) Get(ctx context.Context, id string) (*model.Facility, error) {
	args := m.Called(ctx, id)
	f, _ := args.Get(0).(*model.Facility)
	return f, args.Error(1)
}

func (m *mockFacilityRepo) List(ctx context.Context, page model.Pagination) ([]*model.Facility, error) {
	args := m.Called(ctx, page)
	fs, _ := args.Get(0).([]*model.Facility)
	return fs, args.Error(1)
}

type mockScanRepo struct{ mock.Mock }

func (m *mockScanRepo) Create(ctx context.Context, e *model.ScanEvent) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockScanRepo) List(ctx context.Context, f *model.ScanEventFilters) ([]*model.ScanEvent, error) {
	args := m.Called(ctx, f)
	es, _ := args.Get(0).([]*model.ScanEvent)
	return es, args.Error(1)
}

func (m *mockScanRepo) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, channel string, message interface{}) error {
	return m.Called(ctx, channel, message).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendQRCard(ctx context.Context, card email.QRCard) error {
	return m.Called(ctx, card).Error(0)
}

func (m *mockMailer) SendCustom(ctx context.Context, to, subject, content string) error {
	return m.Called(ctx, to, subject, content).Error(0)
}
