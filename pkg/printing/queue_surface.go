package printing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/postoppal-api/pkg/messaging"
	"github.com/jwalitptl/postoppal-api/pkg/qrcodec"
)

var (
	ErrSurfaceClosed = errors.New("print surface is closed")
	ErrEmptyDocument = errors.New("nothing written to print surface")
)

// Queue is the part of a broker the surface needs.
type Queue interface {
	messaging.Publisher
	Ping(ctx context.Context) error
}

type QueueSurfaceConfig struct {
	Channel       string
	Station       string
	RetryAttempts int
	RetryDelay    time.Duration
}

// QueueSurface is a presentation surface whose print action publishes the
// written document to a print station queue.
type QueueSurface struct {
	queue  Queue
	config QueueSurfaceConfig
	now    func() time.Time
}

var _ qrcodec.PresentationSurface = (*QueueSurface)(nil)

func NewQueueSurface(queue Queue, config QueueSurfaceConfig) *QueueSurface {
	if config.Channel == "" {
		config.Channel = messaging.ChannelPrint
	}
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 1
	}
	return &QueueSurface{
		queue:  queue,
		config: config,
		now:    time.Now,
	}
}

// Open refuses when the queue is unreachable.
func (s *QueueSurface) Open(ctx context.Context) (qrcodec.Surface, error) {
	if err := s.queue.Ping(ctx); err != nil {
		return nil, fmt.Errorf("print queue unavailable: %w", err)
	}
	return &queueSession{surface: s}, nil
}

type queueSession struct {
	surface *QueueSurface
	doc     strings.Builder
	closed  bool
}

func (q *queueSession) Write(document string) error {
	if q.closed {
		return ErrSurfaceClosed
	}
	q.doc.WriteString(document)
	return nil
}

func (q *queueSession) Print(ctx context.Context) error {
	if q.closed {
		return ErrSurfaceClosed
	}
	if q.doc.Len() == 0 {
		return ErrEmptyDocument
	}

	job := PrintJob{
		ID:          uuid.New(),
		Station:     q.surface.config.Station,
		Document:    q.doc.String(),
		RequestedAt: q.surface.now().UTC(),
	}
	cfg := q.surface.config
	err := retry(ctx, cfg.RetryAttempts, cfg.RetryDelay, func() error {
		return q.surface.queue.Publish(ctx, cfg.Channel, job)
	})
	if err != nil {
		return fmt.Errorf("failed to queue print job %s: %w", job.ID, err)
	}
	return nil
}

func (q *queueSession) Close() error {
	q.closed = true
	return nil
}

func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return err
}
