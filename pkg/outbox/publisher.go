package outbox

import (
	"context"
	"errors"
	"time"

	"go.uber.org/multierr"

	"github.com/mensahkwame/bookmarket-backend/pkg/config"
	"github.com/mensahkwame/bookmarket-backend/pkg/logger"
	"github.com/mensahkwame/bookmarket-backend/pkg/redis"
)

// Publisher drains unpublished outbox rows onto a Redis pub/sub channel.
// Consumers (notifications, analytics) subscribe to the channel out of band.
type Publisher struct {
	repo *Repository
	pub  redis.Publisher
	logg *logger.Logger
	cfg  config.OutboxConfig
}

func NewPublisher(repo *Repository, pub redis.Publisher, logg *logger.Logger, cfg config.OutboxConfig) (*Publisher, error) {
	if repo == nil {
		return nil, errors.New("outbox repository is required")
	}
	if pub == nil {
		return nil, errors.New("publisher is required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.PollIntervalMS <= 0 {
		cfg.PollIntervalMS = 500
	}
	return &Publisher{repo: repo, pub: pub, logg: logg, cfg: cfg}, nil
}

// Run polls until the context is canceled.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(p.cfg.PollIntervalMS) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := p.PublishBatch(ctx); err != nil && p.logg != nil {
				p.logg.Error(ctx, "outbox publish batch failed", err)
			}
		}
	}
}

// PublishBatch pushes one batch of unpublished events and returns how many
// were delivered. Per-event failures are recorded and do not stop the batch.
func (p *Publisher) PublishBatch(ctx context.Context) (int, error) {
	rows, err := p.repo.FetchUnpublished(p.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	published := 0
	var errs error
	for _, row := range rows {
		if p.cfg.MaxAttempts > 0 && row.AttemptCount >= p.cfg.MaxAttempts {
			continue
		}
		if err := p.pub.Publish(ctx, p.cfg.Channel, []byte(row.Payload)); err != nil {
			errs = multierr.Append(errs, err)
			if markErr := p.repo.MarkFailed(row.ID, err); markErr != nil {
				errs = multierr.Append(errs, markErr)
			}
			continue
		}
		if err := p.repo.MarkPublished(row.ID); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		published++
	}
	return published, errs
}
