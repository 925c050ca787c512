package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taproom-services/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const eventColumns = `
	id, title, description, location, starts_at, ends_at,
	ticket_url, flyer_url, flyer_thumb_url, published, created_at, updated_at
`

type EventStore struct {
	pool *pgxpool.Pool
}

func (s *EventStore) List(ctx context.Context, filter store.EventFilter) ([]store.Event, error) {
	conditions := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if !filter.IncludeDrafts {
		conditions = append(conditions, "published")
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("coalesce(ends_at, starts_at) >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("starts_at <= $%d", len(args)))
	}

	query := "select " + eventColumns + " from events"
	if len(conditions) > 0 {
		query += " where " + strings.Join(conditions, " and ")
	}
	args = append(args, store.ClampLimit(filter.Limit, 50, 200))
	query += fmt.Sprintf(" order by starts_at asc limit $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]store.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (s *EventStore) Get(ctx context.Context, id string) (store.Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return store.Event{}, store.ErrNotFound
	}
	event, err := scanEvent(s.pool.QueryRow(ctx, "select "+eventColumns+" from events where id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Event{}, store.ErrNotFound
	}
	return event, err
}

func (s *EventStore) Create(ctx context.Context, event store.Event) (store.Event, error) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	return scanEvent(s.pool.QueryRow(ctx, `
		insert into events (id, title, description, location, starts_at, ends_at,
			ticket_url, flyer_url, flyer_thumb_url, published, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		returning `+eventColumns,
		event.ID, event.Title, event.Description, event.Location, event.StartsAt, event.EndsAt,
		event.TicketURL, event.FlyerURL, event.FlyerThumbURL, event.Published,
	))
}

func (s *EventStore) Update(ctx context.Context, event store.Event) (store.Event, error) {
	if _, err := uuid.Parse(event.ID); err != nil {
		return store.Event{}, store.ErrNotFound
	}
	updated, err := scanEvent(s.pool.QueryRow(ctx, `
		update events set
			title = $2, description = $3, location = $4, starts_at = $5, ends_at = $6,
			ticket_url = $7, flyer_url = $8, flyer_thumb_url = $9, published = $10,
			updated_at = now()
		where id = $1
		returning `+eventColumns,
		event.ID, event.Title, event.Description, event.Location, event.StartsAt, event.EndsAt,
		event.TicketURL, event.FlyerURL, event.FlyerThumbURL, event.Published,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Event{}, store.ErrNotFound
	}
	return updated, err
}

func (s *EventStore) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return store.ErrNotFound
	}
	tag, err := s.pool.Exec(ctx, "delete from events where id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanEvent(row pgx.Row) (store.Event, error) {
	var (
		event  store.Event
		id     uuid.UUID
		endsAt pgtype.Timestamptz
	)
	if err := row.Scan(
		&id,
		&event.Title,
		&event.Description,
		&event.Location,
		&event.StartsAt,
		&endsAt,
		&event.TicketURL,
		&event.FlyerURL,
		&event.FlyerThumbURL,
		&event.Published,
		&event.CreatedAt,
		&event.UpdatedAt,
	); err != nil {
		return store.Event{}, err
	}
	event.ID = id.String()
	if endsAt.Valid {
		t := endsAt.Time
		event.EndsAt = &t
	}
	return event, nil
}
