package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"taproom-services/internal/catalog"
	"taproom-services/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type MenuStore struct {
	pool   *pgxpool.Pool
	table  string
	retain int
}

func NewMenuStore(pool *pgxpool.Pool, table string, retain int) *MenuStore {
	if retain < 1 {
		retain = 1
	}
	return &MenuStore{pool: pool, table: table, retain: retain}
}

func (s *MenuStore) Publish(ctx context.Context, menu catalog.MenuStructure) (store.MenuRecord, error) {
	payload, err := json.Marshal(menu)
	if err != nil {
		return store.MenuRecord{}, fmt.Errorf("encode menu: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return store.MenuRecord{}, err
	}
	defer tx.Rollback(ctx)

	// Serializes publishers; readers are not blocked.
	if _, err := tx.Exec(ctx, fmt.Sprintf("lock table %s in share row exclusive mode", s.table)); err != nil {
		return store.MenuRecord{}, fmt.Errorf("lock %s: %w", s.table, err)
	}

	var version int64
	if err := tx.QueryRow(ctx, fmt.Sprintf("select coalesce(max(version), 0) from %s", s.table)).Scan(&version); err != nil {
		return store.MenuRecord{}, fmt.Errorf("read %s version: %w", s.table, err)
	}

	prune := fmt.Sprintf(`
		delete from %[1]s
		where id not in (
			select id from %[1]s order by is_latest desc, created_at desc limit $1
		)
	`, s.table)
	if _, err := tx.Exec(ctx, prune, s.retain-1); err != nil {
		return store.MenuRecord{}, fmt.Errorf("prune %s: %w", s.table, err)
	}

	if _, err := tx.Exec(ctx, fmt.Sprintf("update %s set is_latest = false, updated_at = now() where is_latest", s.table)); err != nil {
		return store.MenuRecord{}, fmt.Errorf("retire latest %s: %w", s.table, err)
	}

	insert := fmt.Sprintf(`
		insert into %s (id, menu, version, is_latest, created_at, updated_at)
		values ($1, $2, $3, true, now(), now())
		returning id, menu, version, is_latest, created_at, updated_at
	`, s.table)
	record, err := scanMenuRecord(tx.QueryRow(ctx, insert, uuid.NewString(), payload, version+1))
	if err != nil {
		return store.MenuRecord{}, fmt.Errorf("insert %s: %w", s.table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return store.MenuRecord{}, err
	}
	return record, nil
}

func (s *MenuStore) Latest(ctx context.Context) (store.MenuRecord, error) {
	query := fmt.Sprintf(`
		select id, menu, version, is_latest, created_at, updated_at
		from %s where is_latest limit 1
	`, s.table)
	record, err := scanMenuRecord(s.pool.QueryRow(ctx, query))
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return store.MenuRecord{}, err
	}

	record, err = s.promoteNewest(ctx)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		// Another reader promoted a record first.
		return scanMenuRecord(s.pool.QueryRow(ctx, query))
	}
	return record, err
}

func (s *MenuStore) promoteNewest(ctx context.Context) (store.MenuRecord, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return store.MenuRecord{}, err
	}
	defer tx.Rollback(ctx)

	var id string
	err = tx.QueryRow(ctx, fmt.Sprintf("select id::text from %s order by created_at desc limit 1 for update", s.table)).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.MenuRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.MenuRecord{}, err
	}

	update := fmt.Sprintf(`
		update %s set is_latest = true, updated_at = now()
		where id = $1
		returning id, menu, version, is_latest, created_at, updated_at
	`, s.table)
	record, err := scanMenuRecord(tx.QueryRow(ctx, update, id))
	if err != nil {
		return store.MenuRecord{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return store.MenuRecord{}, err
	}
	return record, nil
}

func scanMenuRecord(row pgx.Row) (store.MenuRecord, error) {
	var (
		record store.MenuRecord
		id     uuid.UUID
		raw    []byte
	)
	if err := row.Scan(&id, &raw, &record.Version, &record.IsLatest, &record.CreatedAt, &record.UpdatedAt); err != nil {
		return store.MenuRecord{}, err
	}
	if err := json.Unmarshal(raw, &record.Menu); err != nil {
		return store.MenuRecord{}, fmt.Errorf("decode menu: %w", err)
	}
	record.ID = id.String()
	return record, nil
}
