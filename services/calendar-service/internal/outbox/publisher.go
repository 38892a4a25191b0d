package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/clinicboard/libs/db"
	"github.com/md-rashed-zaman/clinicboard/libs/kafkax"
	"github.com/segmentio/kafka-go"
)

type PublisherConfig struct {
	Brokers   string
	PollEvery time.Duration
	BatchSize int
	// Retention is how long published rows are kept. Zero keeps them forever.
	Retention time.Duration
}

// Publisher relays committed outbox rows to Kafka, one topic per event type.
type Publisher struct {
	pool   *db.Pool
	repo   *Repository
	logger *slog.Logger
	cfg    PublisherConfig
}

func NewPublisher(pool *db.Pool, repo *Repository, logger *slog.Logger, cfg PublisherConfig) *Publisher {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Publisher{pool: pool, repo: repo, logger: logger, cfg: cfg}
}

// Run blocks until ctx is done. Without brokers it returns at once and rows accumulate.
func (p *Publisher) Run(ctx context.Context) {
	brokers := kafkax.SplitBrokers(p.cfg.Brokers)
	if len(brokers) == 0 {
		p.logger.Warn("outbox publisher disabled (no kafka brokers configured)")
		return
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	defer func() { _ = writer.Close() }()

	poll := time.NewTicker(p.cfg.PollEvery)
	defer poll.Stop()
	var prune <-chan time.Time
	if p.cfg.Retention > 0 {
		t := time.NewTicker(time.Hour)
		defer t.Stop()
		prune = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
			// Drain backlogs without waiting a full tick per batch.
			for {
				n, err := p.relay(ctx, writer)
				if err != nil {
					p.logger.Error("outbox publish failed", "err", err)
					break
				}
				if n > 0 {
					p.logger.Debug("outbox events published", "count", n)
				}
				if n < p.cfg.BatchSize {
					break
				}
			}
		case <-prune:
			removed, err := p.repo.Prune(ctx, time.Now().Add(-p.cfg.Retention))
			if err != nil {
				p.logger.Error("outbox prune failed", "err", err)
				continue
			}
			if removed > 0 {
				p.logger.Info("outbox pruned", "removed", removed)
			}
		}
	}
}

func (p *Publisher) relay(ctx context.Context, writer *kafka.Writer) (int, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	pending, err := p.repo.Claim(ctx, tx, p.cfg.BatchSize)
	if err != nil || len(pending) == 0 {
		return 0, err
	}

	msgs := make([]kafka.Message, len(pending))
	for i, pe := range pending {
		msgs[i] = message(ctx, pe)
	}
	if err := writer.WriteMessages(ctx, msgs...); err != nil {
		return 0, err
	}
	if err := p.repo.MarkPublished(ctx, tx, pending); err != nil {
		return 0, err
	}
	return len(pending), tx.Commit(ctx)
}

// message keys by appointment id so one appointment's events stay ordered on one partition.
func message(ctx context.Context, pe Pending) kafka.Message {
	return kafka.Message{
		Topic:   pe.EventType,
		Key:     []byte(pe.AggregateID),
		Value:   pe.Payload,
		Headers: kafkax.InjectTraceHeaders(pe.Trace.Into(ctx), kafkax.EventHeaders(pe.EventID, pe.EventType)),
	}
}
