package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Relay ships outbox rows to the board's Kafka audit topic. It runs as a
// background loop: claim a batch, produce, mark relayed, all inside one
// transaction so a crash re-ships at-least-once rather than losing rows.
type Relay struct {
	outbox   *PostgresOutbox
	client   *kgo.Client
	topic    string
	interval time.Duration
	batch    int
	logger   *slog.Logger
}

// RelayConfig holds broker settings for the audit relay.
type RelayConfig struct {
	Brokers  []string
	Topic    string
	Interval time.Duration
	Batch    int
}

// NewRelay connects to the brokers and makes sure the audit topic exists.
func NewRelay(ctx context.Context, outbox *PostgresOutbox, cfg RelayConfig, logger *slog.Logger) (*Relay, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("connect audit brokers: %w", err)
	}

	if err := ensureTopic(ctx, client, cfg.Topic); err != nil {
		client.Close()
		return nil, err
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	batch := cfg.Batch
	if batch <= 0 {
		batch = 100
	}
	return &Relay{
		outbox:   outbox,
		client:   client,
		topic:    cfg.Topic,
		interval: interval,
		batch:    batch,
		logger:   logger,
	}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	admin := kadm.NewClient(client)
	_, err := admin.CreateTopic(ctx, -1, -1, nil, topic)
	if err != nil && !errors.Is(err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("ensure audit topic %q: %w", topic, err)
	}
	return nil
}

// Run ships batches until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.shipBatch(ctx); err != nil {
				r.logger.ErrorContext(ctx, "audit relay batch failed", "error", err)
			}
		}
	}
}

func (r *Relay) shipBatch(ctx context.Context) error {
	tx, err := r.outbox.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin relay batch: %w", err)
	}
	defer tx.Rollback()

	batch, err := r.outbox.pendingBatch(ctx, tx, r.batch)
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	records := make([]*kgo.Record, len(batch))
	ids := make([]uuid.UUID, len(batch))
	for i, row := range batch {
		records[i] = &kgo.Record{
			Topic: r.topic,
			Key:   []byte(row.ID.String()),
			Value: row.Payload,
		}
		ids[i] = row.ID
	}
	if err := r.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce audit batch: %w", err)
	}

	if err := r.outbox.markRelayed(ctx, tx, ids, time.Now()); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit relay batch: %w", err)
	}
	r.logger.DebugContext(ctx, "audit batch relayed", "count", len(batch))
	return nil
}

// Close flushes buffered records and releases the broker connection.
func (r *Relay) Close() {
	r.client.Close()
}
