package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresOutbox persists events to the audit_outbox table. Rows are
// written in the request path and shipped to Kafka later by the Relay, so
// a broker outage never fails a registration or score update.
type PostgresOutbox struct {
	db *sql.DB
}

func NewPostgresOutbox(db *sql.DB) *PostgresOutbox {
	return &PostgresOutbox{db: db}
}

func (s *PostgresOutbox) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_outbox (id, action, registrant_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, event.ID, string(event.Action), nullUUID(event.RegistrantID), payload, event.Timestamp)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresOutbox) ListByRegistrant(ctx context.Context, registrantID uuid.UUID) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM audit_outbox
		WHERE registrant_id = $1
		ORDER BY created_at
	`, registrantID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		var event Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("unmarshal audit event: %w", err)
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

// pendingBatch claims up to limit unshipped rows, oldest first. The
// FOR UPDATE SKIP LOCKED clause lets multiple relay instances share the
// outbox without double-shipping.
func (s *PostgresOutbox) pendingBatch(ctx context.Context, tx *sql.Tx, limit int) ([]outboxRow, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, payload FROM audit_outbox
		WHERE relayed_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("claim outbox batch: %w", err)
	}
	defer rows.Close()

	var batch []outboxRow
	for rows.Next() {
		var row outboxRow
		if err := rows.Scan(&row.ID, &row.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		batch = append(batch, row)
	}
	return batch, rows.Err()
}

func (s *PostgresOutbox) markRelayed(ctx context.Context, tx *sql.Tx, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `
			UPDATE audit_outbox SET relayed_at = $2 WHERE id = $1
		`, id, at); err != nil {
			return fmt.Errorf("mark outbox row relayed: %w", err)
		}
	}
	return nil
}

type outboxRow struct {
	ID      uuid.UUID
	Payload []byte
}

func nullUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}
