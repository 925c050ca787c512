package postgres

import (
	"context"
	"errors"

	"taproom-services/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const applicationColumns = "id, name, email, phone, position, availability, experience, resume_url, created_at"

type ApplicationStore struct {
	pool *pgxpool.Pool
}

func (s *ApplicationStore) List(ctx context.Context, limit int) ([]store.JobApplication, error) {
	rows, err := s.pool.Query(ctx,
		"select "+applicationColumns+" from job_applications order by created_at desc limit $1",
		store.ClampLimit(limit, 100, 500),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := make([]store.JobApplication, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

func (s *ApplicationStore) Get(ctx context.Context, id string) (store.JobApplication, error) {
	if _, err := uuid.Parse(id); err != nil {
		return store.JobApplication{}, store.ErrNotFound
	}
	app, err := scanApplication(s.pool.QueryRow(ctx, "select "+applicationColumns+" from job_applications where id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return store.JobApplication{}, store.ErrNotFound
	}
	return app, err
}

func (s *ApplicationStore) Create(ctx context.Context, app store.JobApplication) (store.JobApplication, error) {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	return scanApplication(s.pool.QueryRow(ctx, `
		insert into job_applications (id, name, email, phone, position, availability, experience, resume_url, created_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, now())
		returning `+applicationColumns,
		app.ID, app.Name, app.Email, app.Phone, app.Position, app.Availability, app.Experience, app.ResumeURL,
	))
}

func scanApplication(row pgx.Row) (store.JobApplication, error) {
	var (
		app store.JobApplication
		id  uuid.UUID
	)
	if err := row.Scan(&id, &app.Name, &app.Email, &app.Phone, &app.Position, &app.Availability, &app.Experience, &app.ResumeURL, &app.CreatedAt); err != nil {
		return store.JobApplication{}, err
	}
	app.ID = id.String()
	return app, nil
}
