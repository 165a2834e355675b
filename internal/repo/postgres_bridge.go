package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nextprop/wabridge/internal/model"
)

type PostgresBridgeRepo struct {
	db *sql.DB
}

func NewPostgresBridgeRepo(db *sql.DB) *PostgresBridgeRepo {
	return &PostgresBridgeRepo{db: db}
}

func (r *PostgresBridgeRepo) FindUserByPhone(ctx context.Context, phone string) (*model.User, error) {
	var u model.User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, phone, name
		FROM users
		WHERE phone = $1 OR phone = '+' || $1
		LIMIT 1
	`, phone).Scan(&u.ID, &u.Phone, &u.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresBridgeRepo) FindActiveConversation(ctx context.Context, userID int64) (*model.Conversation, error) {
	var c model.Conversation
	err := r.db.QueryRowContext(ctx, `
		SELECT id, participant_one, participant_two, active, last_activity_at
		FROM conversations
		WHERE active = true AND (participant_one = $1 OR participant_two = $1)
		ORDER BY last_activity_at DESC
		LIMIT 1
	`, userID).Scan(&c.ID, &c.ParticipantOne, &c.ParticipantTwo, &c.Active, &c.LastActivityAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresBridgeRepo) AppendInboundMessage(ctx context.Context, conversationID, senderID int64, body string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO conversation_messages (conversation_id, sender_id, body, via_whatsapp)
		VALUES ($1, $2, $3, true)
		RETURNING id
	`, conversationID, senderID, body).Scan(&id)
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE conversations
		SET last_activity_at = now()
		WHERE id = $1
	`, conversationID); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *PostgresBridgeRepo) CreateNotification(ctx context.Context, userID, conversationID int64, preview string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (user_id, conversation_id, kind, preview)
		VALUES ($1, $2, 'whatsapp_reply', $3)
	`, userID, conversationID, preview)
	return err
}

func (r *PostgresBridgeRepo) MarkMessageRead(ctx context.Context, messageID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE conversation_messages
		SET read_at = now()
		WHERE id = $1 AND read_at IS NULL
	`, messageID)
	return err
}

type PostgresHoldingRepo struct {
	db *sql.DB
}

func NewPostgresHoldingRepo(db *sql.DB) *PostgresHoldingRepo {
	return &PostgresHoldingRepo{db: db}
}

func (r *PostgresHoldingRepo) Hold(ctx context.Context, fromPhone, body, externalID, reason string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO inbound_holding (from_phone, body, external_id, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, fromPhone, body, externalID, reason).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *PostgresHoldingRepo) List(ctx context.Context, limit, offset int) ([]model.HeldInbound, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, from_phone, body, external_id, reason, created_at
		FROM inbound_holding
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.HeldInbound
	for rows.Next() {
		var h model.HeldInbound
		if err := rows.Scan(&h.ID, &h.FromPhone, &h.Body, &h.ExternalID, &h.Reason, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
