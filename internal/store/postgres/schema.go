package postgres

import (
	"context"
	"fmt"

	"taproom-services/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Menu tables use json rather than jsonb so category order survives storage.
const menuTableDDL = `
	create table if not exists %[1]s (
		id uuid primary key,
		menu json not null,
		version bigint not null,
		is_latest boolean not null default false,
		created_at timestamptz not null default now(),
		updated_at timestamptz not null default now()
	);
	create unique index if not exists %[1]s_single_latest on %[1]s (is_latest) where is_latest;
	create index if not exists %[1]s_created_at on %[1]s (created_at desc);
`

const schemaDDL = `
	create table if not exists categories (
		id text primary key,
		parent_categories text[] not null default '{}',
		child_categories text[] not null default '{}',
		parent_name text,
		updated_at timestamptz not null default now()
	);

	create table if not exists events (
		id uuid primary key,
		title text not null,
		description text not null default '',
		location text not null default '',
		starts_at timestamptz not null,
		ends_at timestamptz,
		ticket_url text not null default '',
		flyer_url text not null default '',
		flyer_thumb_url text not null default '',
		published boolean not null default false,
		created_at timestamptz not null default now(),
		updated_at timestamptz not null default now()
	);
	create index if not exists events_starts_at on events (starts_at);

	create table if not exists messages (
		id uuid primary key,
		name text not null,
		email text not null,
		phone text not null default '',
		subject text not null default '',
		body text not null,
		is_read boolean not null default false,
		created_at timestamptz not null default now()
	);
	create index if not exists messages_created_at on messages (created_at desc);

	create table if not exists job_applications (
		id uuid primary key,
		name text not null,
		email text not null,
		phone text not null default '',
		position text not null default '',
		availability text not null default '',
		experience text not null default '',
		resume_url text not null default '',
		created_at timestamptz not null default now()
	);
	create index if not exists job_applications_created_at on job_applications (created_at desc);
`

// EnsureSchema creates every table idempotently.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, table := range []string{store.MenusCollection, store.FallbackMenusCollection} {
		if _, err := pool.Exec(ctx, fmt.Sprintf(menuTableDDL, table)); err != nil {
			return fmt.Errorf("create %s: %w", table, err)
		}
	}
	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// New returns Postgres-backed stores sharing pool.
func New(pool *pgxpool.Pool) store.Stores {
	return store.Stores{
		Menus:         NewMenuStore(pool, store.MenusCollection, store.MenuRetention),
		FallbackMenus: NewMenuStore(pool, store.FallbackMenusCollection, store.FallbackRetention),
		Categories:    &CategoryStore{pool: pool},
		Events:        &EventStore{pool: pool},
		Messages:      &MessageStore{pool: pool},
		Applications:  &ApplicationStore{pool: pool},
	}
}
