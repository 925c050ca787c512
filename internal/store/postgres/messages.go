package postgres

import (
	"context"
	"errors"

	"taproom-services/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const messageColumns = "id, name, email, phone, subject, body, is_read, created_at"

type MessageStore struct {
	pool *pgxpool.Pool
}

func (s *MessageStore) List(ctx context.Context, filter store.MessageFilter) ([]store.Message, error) {
	query := "select " + messageColumns + " from messages"
	if filter.UnreadOnly {
		query += " where not is_read"
	}
	query += " order by created_at desc limit $1"

	rows, err := s.pool.Query(ctx, query, store.ClampLimit(filter.Limit, 100, 500))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]store.Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (s *MessageStore) Get(ctx context.Context, id string) (store.Message, error) {
	if _, err := uuid.Parse(id); err != nil {
		return store.Message{}, store.ErrNotFound
	}
	msg, err := scanMessage(s.pool.QueryRow(ctx, "select "+messageColumns+" from messages where id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Message{}, store.ErrNotFound
	}
	return msg, err
}

func (s *MessageStore) Create(ctx context.Context, msg store.Message) (store.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	return scanMessage(s.pool.QueryRow(ctx, `
		insert into messages (id, name, email, phone, subject, body, is_read, created_at)
		values ($1, $2, $3, $4, $5, $6, false, now())
		returning `+messageColumns,
		msg.ID, msg.Name, msg.Email, msg.Phone, msg.Subject, msg.Body,
	))
}

func (s *MessageStore) MarkRead(ctx context.Context, id string) (store.Message, error) {
	if _, err := uuid.Parse(id); err != nil {
		return store.Message{}, store.ErrNotFound
	}
	msg, err := scanMessage(s.pool.QueryRow(ctx, "update messages set is_read = true where id = $1 returning "+messageColumns, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Message{}, store.ErrNotFound
	}
	return msg, err
}

func (s *MessageStore) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return store.ErrNotFound
	}
	tag, err := s.pool.Exec(ctx, "delete from messages where id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanMessage(row pgx.Row) (store.Message, error) {
	var (
		msg store.Message
		id  uuid.UUID
	)
	if err := row.Scan(&id, &msg.Name, &msg.Email, &msg.Phone, &msg.Subject, &msg.Body, &msg.Read, &msg.CreatedAt); err != nil {
		return store.Message{}, err
	}
	msg.ID = id.String()
	return msg, nil
}
