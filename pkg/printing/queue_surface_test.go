package printing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/postoppal-api/pkg/messaging"
	"github.com/jwalitptl/postoppal-api/pkg/qrcodec"
)

type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) Publish(ctx context.Context, channel string, message interface{}) error {
	args := m.Called(ctx, channel, message)
	return args.Error(0)
}

func (m *mockQueue) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func fixedNow() time.Time {
	return time.Date(2024, 3, 5, 10, 15, 30, 0, time.UTC)
}

func TestQueueSurface_PrintPublishesJob(t *testing.T) {
	q := new(mockQueue)
	q.On("Ping", mock.Anything).Return(nil)
	q.On("Publish", mock.Anything, messaging.ChannelPrint, mock.MatchedBy(func(job PrintJob) bool {
		return job.Document == "<html>card</html>" && job.Station == "ward-3b" && job.RequestedAt.Equal(fixedNow())
	})).Return(nil).Once()

	s := NewQueueSurface(q, QueueSurfaceConfig{Station: "ward-3b"})
	s.now = fixedNow

	surface, err := s.Open(context.Background())
	require.NoError(t, err)
	require.NoError(t, surface.Write("<html>card</html>"))
	require.NoError(t, surface.Print(context.Background()))
	require.NoError(t, surface.Close())

	q.AssertExpectations(t)
}

func TestQueueSurface_OpenRefusedWhenQueueDown(t *testing.T) {
	q := new(mockQueue)
	q.On("Ping", mock.Anything).Return(errors.New("dial tcp: connection refused"))

	_, err := NewQueueSurface(q, QueueSurfaceConfig{}).Open(context.Background())

	require.Error(t, err)
	q.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestQueueSurface_RetriesPublish(t *testing.T) {
	q := new(mockQueue)
	q.On("Ping", mock.Anything).Return(nil)
	q.On("Publish", mock.Anything, "custom", mock.Anything).Return(errors.New("timeout")).Once()
	q.On("Publish", mock.Anything, "custom", mock.Anything).Return(nil).Once()

	s := NewQueueSurface(q, QueueSurfaceConfig{Channel: "custom", RetryAttempts: 3, RetryDelay: time.Millisecond})
	surface, err := s.Open(context.Background())
	require.NoError(t, err)
	require.NoError(t, surface.Write("doc"))

	assert.NoError(t, surface.Print(context.Background()))
	q.AssertNumberOfCalls(t, "Publish", 2)
}

func TestQueueSurface_SessionErrors(t *testing.T) {
	q := new(mockQueue)
	q.On("Ping", mock.Anything).Return(nil)

	surface, err := NewQueueSurface(q, QueueSurfaceConfig{}).Open(context.Background())
	require.NoError(t, err)

	assert.ErrorIs(t, surface.Print(context.Background()), ErrEmptyDocument)

	require.NoError(t, surface.Close())
	assert.ErrorIs(t, surface.Write("late"), ErrSurfaceClosed)
	assert.ErrorIs(t, surface.Print(context.Background()), ErrSurfaceClosed)
}

func TestQueueSurface_WithPrinter(t *testing.T) {
	q := new(mockQueue)
	q.On("Ping", mock.Anything).Return(nil)
	q.On("Publish", mock.Anything, messaging.ChannelPrint, mock.AnythingOfType("printing.PrintJob")).Return(nil).Once()

	printer := qrcodec.NewPrinter(qrcodec.PrinterConfig{Delay: time.Millisecond}, NewQueueSurface(q, QueueSurfaceConfig{}), nil, nil)
	printer.PrintViaNewWindow(context.Background(), map[string]string{"patientId": "PID-1"})

	q.AssertExpectations(t)
	job := q.Calls[1].Arguments.Get(2).(PrintJob)
	assert.Contains(t, job.Document, "Medical Access QR Code")
}
