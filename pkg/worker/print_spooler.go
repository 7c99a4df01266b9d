package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jwalitptl/postoppal-api/pkg/logger"
	"github.com/jwalitptl/postoppal-api/pkg/messaging"
	"github.com/jwalitptl/postoppal-api/pkg/metrics"
	"github.com/jwalitptl/postoppal-api/pkg/printing"
)

type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

type PrintSpoolerConfig struct {
	Channel string
	Dir     string
}

// PrintSpooler drains the print queue into HTML files a print station picks up.
type PrintSpooler struct {
	broker  Subscriber
	config  PrintSpoolerConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewPrintSpooler(
	broker Subscriber,
	config PrintSpoolerConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *PrintSpooler {
	if config.Dir == "" {
		panic("Dir must be set")
	}
	if config.Channel == "" {
		config.Channel = messaging.ChannelPrint
	}

	return &PrintSpooler{
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

// Start blocks until ctx is done or the subscription ends.
func (p *PrintSpooler) Start(ctx context.Context) error {
	if err := os.MkdirAll(p.config.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create spool dir: %w", err)
	}

	messages, err := p.broker.Subscribe(ctx, p.config.Channel)
	if err != nil {
		return fmt.Errorf("failed to subscribe to print queue: %w", err)
	}

	p.logger.Info("Starting print spooler", "channel", p.config.Channel, "dir", p.config.Dir)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down print spooler")
			return nil
		case msg, ok := <-messages:
			if !ok {
				p.logger.Warn("Print queue subscription closed")
				return nil
			}
			path, err := p.spool(msg)
			p.metrics.QRPrintJobs.WithLabelValues(spoolStatus(err)).Inc()
			if err != nil {
				p.logger.Error(err, "Failed to spool print job")
				continue
			}
			p.logger.Info("Print job spooled", "path", path)
		}
	}
}

func (p *PrintSpooler) spool(msg []byte) (string, error) {
	var job printing.PrintJob
	if err := json.Unmarshal(msg, &job); err != nil {
		return "", fmt.Errorf("invalid print job: %w", err)
	}
	if job.Document == "" {
		return "", fmt.Errorf("print job %s has no document", job.ID)
	}

	name := fmt.Sprintf("%s-%s.html", job.RequestedAt.UTC().Format("20060102T150405Z"), job.ID)
	path := filepath.Join(p.config.Dir, name)
	if err := os.WriteFile(path, []byte(job.Document), 0o644); err != nil {
		return "", fmt.Errorf("failed to write print job %s: %w", job.ID, err)
	}
	return path, nil
}

func spoolStatus(err error) string {
	if err != nil {
		return "failed"
	}
	return "spooled"
}
