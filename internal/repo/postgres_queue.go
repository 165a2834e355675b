package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/nextprop/wabridge/internal/model"
)

type PostgresQueueRepo struct {
	db *sql.DB
}

func NewPostgresQueueRepo(db *sql.DB) *PostgresQueueRepo {
	return &PostgresQueueRepo{db: db}
}

func (r *PostgresQueueRepo) Enqueue(ctx context.Context, p EnqueueParams) (int64, error) {
	if p.RecipientPhone == "" {
		return 0, errors.New("recipient phone must not be empty")
	}

	var params any
	if len(p.TemplateParams) > 0 {
		b, err := json.Marshal(p.TemplateParams)
		if err != nil {
			return 0, err
		}
		params = string(b)
	}

	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO wa_queue (source_message_id, recipient_phone, content, template_name, template_params, status, attempts)
		VALUES ($1, $2, $3, $4, $5, 'pending', 0)
		RETURNING id
	`, p.SourceMessageID, p.RecipientPhone, p.Content, p.TemplateName, params).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *PostgresQueueRepo) ClaimPending(ctx context.Context, limit int) ([]model.QueueItem, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be > 0")
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, source_message_id, recipient_phone, content, template_name, template_params,
		       status, attempts, created_at, updated_at
		FROM wa_queue
		WHERE status = 'pending' AND attempts < $1
		ORDER BY created_at ASC
		FOR UPDATE SKIP LOCKED
		LIMIT $2
	`, model.MaxAttempts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.QueueItem
	for rows.Next() {
		var it model.QueueItem
		var status string
		var sourceID sql.NullInt64
		var tplName sql.NullString
		var tplParams sql.NullString

		if err := rows.Scan(
			&it.ID,
			&sourceID,
			&it.RecipientPhone,
			&it.Content,
			&tplName,
			&tplParams,
			&status,
			&it.Attempts,
			&it.CreatedAt,
			&it.UpdatedAt,
		); err != nil {
			return nil, err
		}

		it.Status = model.Status(status)
		if sourceID.Valid {
			v := sourceID.Int64
			it.SourceMessageID = &v
		}
		if tplName.Valid {
			s := tplName.String
			it.TemplateName = &s
		}
		if tplParams.Valid && tplParams.String != "" {
			if err := json.Unmarshal([]byte(tplParams.String), &it.TemplateParams); err != nil {
				return nil, err
			}
		}

		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(items) == 0 {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	now := time.Now().UTC()
	for _, it := range items {
		if _, err := tx.ExecContext(ctx, `
			UPDATE wa_queue
			SET status = 'processing', updated_at = $2
			WHERE id = $1
		`, it.ID, now); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	for i := range items {
		items[i].Status = model.Processing
		items[i].UpdatedAt = now
	}
	return items, nil
}

func (r *PostgresQueueRepo) MarkSent(ctx context.Context, id int64, externalID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE wa_queue
		SET status = 'sent',
		    sent_at = now(),
		    external_id = $2,
		    updated_at = now()
		WHERE id = $1
	`, id, externalID)
	return err
}

func (r *PostgresQueueRepo) MarkAttemptFailed(ctx context.Context, id int64, reason string) error {
	// Third failure is terminal; earlier failures return the item to pending
	// for the next claim cycle.
	_, err := r.db.ExecContext(ctx, `
		UPDATE wa_queue
		SET attempts = attempts + 1,
		    last_error = $2,
		    status = CASE WHEN attempts + 1 >= $3 THEN 'failed' ELSE 'pending' END,
		    updated_at = now()
		WHERE id = $1
	`, id, reason, model.MaxAttempts)
	return err
}

func (r *PostgresQueueRepo) ReleaseStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	res, err := r.db.ExecContext(ctx, `
		UPDATE wa_queue
		SET status = 'pending', updated_at = now()
		WHERE status = 'processing' AND updated_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PostgresQueueRepo) FindByExternalID(ctx context.Context, externalID string) (*model.QueueItem, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, source_message_id, recipient_phone, content, template_name,
		       status, attempts, external_id, receipt_status, last_error,
		       sent_at, created_at, updated_at
		FROM wa_queue
		WHERE external_id = $1
	`, externalID)

	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (r *PostgresQueueRepo) ReconcileReceipt(ctx context.Context, externalID string, status model.ReceiptStatus) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE wa_queue
		SET receipt_status = $2, updated_at = now()
		WHERE external_id = $1
	`, externalID, string(status))
	return err
}

func (r *PostgresQueueRepo) ListByStatus(ctx context.Context, status model.Status, limit, offset int) ([]model.QueueItem, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, source_message_id, recipient_phone, content, template_name,
		       status, attempts, external_id, receipt_status, last_error,
		       sent_at, created_at, updated_at
		FROM wa_queue
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, string(status), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.QueueItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.QueueItem, error) {
	var it model.QueueItem
	var status string
	var sourceID sql.NullInt64
	var tplName, externalID, receipt, lastErr sql.NullString
	var sentAt sql.NullTime

	if err := row.Scan(
		&it.ID,
		&sourceID,
		&it.RecipientPhone,
		&it.Content,
		&tplName,
		&status,
		&it.Attempts,
		&externalID,
		&receipt,
		&lastErr,
		&sentAt,
		&it.CreatedAt,
		&it.UpdatedAt,
	); err != nil {
		return nil, err
	}

	it.Status = model.Status(status)
	if sourceID.Valid {
		v := sourceID.Int64
		it.SourceMessageID = &v
	}
	if tplName.Valid {
		s := tplName.String
		it.TemplateName = &s
	}
	if externalID.Valid {
		s := externalID.String
		it.ExternalID = &s
	}
	if receipt.Valid {
		rs := model.ReceiptStatus(receipt.String)
		it.ReceiptStatus = &rs
	}
	if lastErr.Valid {
		s := lastErr.String
		it.LastError = &s
	}
	if sentAt.Valid {
		t := sentAt.Time
		it.SentAt = &t
	}
	return &it, nil
}
