package menu

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taproom-services/internal/catalog"
	"taproom-services/internal/store"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	ErrNoCategories  = errors.New("no menu categories configured")
	ErrNoFallback    = errors.New("square categories do not match the configured categories and no saved menu exists")
	ErrNotConfigured = errors.New("bar inventory location is not configured")

	ErrInvalidCategories = errors.New("invalid categories")
)

const (
	SourceLive     = "live"
	SourceFallback = "fallback"
)

// Notifier is told about every newly published menu.
type Notifier interface {
	MenuUpdated(record store.MenuRecord)
}

type Deps struct {
	Source     catalog.Source
	Rules      catalog.Rules
	Menus      store.MenuStore
	Fallback   store.MenuStore
	Categories store.CategoryStore
	Notifier   Notifier
	Logger     *zap.Logger
	// Timeout bounds one reconciliation run. Zero means no limit.
	Timeout time.Duration
}

type Service struct {
	deps  Deps
	group singleflight.Group
}

func NewService(deps Deps) *Service {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Service{deps: deps}
}

// Outcome describes the menu a reconciliation produced or fell back to.
type Outcome struct {
	Menu    catalog.MenuStructure
	Source  string
	Record  *store.MenuRecord
	Missing []string
}

// Reconcile rebuilds the menu from Square and publishes it. When Square's
// categories drift from the configured ones, the last saved menu is returned
// and nothing is written. Concurrent callers share one run.
func (s *Service) Reconcile(ctx context.Context) (Outcome, error) {
	ch := s.group.DoChan("reconcile", func() (any, error) {
		runCtx := context.WithoutCancel(ctx)
		if s.deps.Timeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(runCtx, s.deps.Timeout)
			defer cancel()
		}
		return s.reconcile(runCtx)
	})

	select {
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Outcome{}, res.Err
		}
		return res.Val.(Outcome), nil
	}
}

func (s *Service) reconcile(ctx context.Context) (Outcome, error) {
	log := s.deps.Logger
	if strings.TrimSpace(s.deps.Rules.BarLocationID) == "" {
		return Outcome{}, ErrNotConfigured
	}

	expected, err := s.deps.Categories.Get(ctx)
	if errors.Is(err, store.ErrNotFound) || (err == nil && expected.IsEmpty()) {
		return Outcome{}, ErrNoCategories
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("load categories: %w", err)
	}

	started := time.Now()
	result, err := catalog.Pipeline{Source: s.deps.Source, Rules: s.deps.Rules}.Run(ctx, expected)
	if err != nil {
		return Outcome{}, err
	}

	if !result.Valid {
		log.Warn("square categories differ from configured categories; serving saved menu",
			zap.Strings("missing", result.Missing),
		)
		record, err := s.savedMenu(ctx)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return Outcome{}, fmt.Errorf("%w (missing: %s)", ErrNoFallback, strings.Join(result.Missing, ", "))
			}
			return Outcome{}, err
		}
		return Outcome{Menu: record.Menu, Source: SourceFallback, Record: &record, Missing: result.Missing}, nil
	}

	record, err := s.deps.Menus.Publish(ctx, result.Menu)
	if err != nil {
		return Outcome{}, fmt.Errorf("publish menu: %w", err)
	}
	if s.deps.Fallback != nil {
		if _, err := s.deps.Fallback.Publish(ctx, result.Menu); err != nil {
			log.Error("publish fallback menu failed", zap.Error(err))
		}
	}

	log.Info("menu reconciled",
		zap.Int64("version", record.Version),
		zap.Strings("categories", result.Menu.Keys()),
		zap.Int("items", result.ItemCount),
		zap.Int("shown", result.ShownCount),
		zap.Duration("took", time.Since(started)),
	)

	if s.deps.Notifier != nil {
		s.deps.Notifier.MenuUpdated(record)
	}
	return Outcome{Menu: result.Menu, Source: SourceLive, Record: &record}, nil
}

// savedMenu prefers the fallback copy and falls back to the latest menu.
func (s *Service) savedMenu(ctx context.Context) (store.MenuRecord, error) {
	if s.deps.Fallback != nil {
		record, err := s.deps.Fallback.Latest(ctx)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return store.MenuRecord{}, err
		}
	}
	return s.deps.Menus.Latest(ctx)
}

func (s *Service) Latest(ctx context.Context) (store.MenuRecord, error) {
	return s.deps.Menus.Latest(ctx)
}

func (s *Service) Fallback(ctx context.Context) (store.MenuRecord, error) {
	if s.deps.Fallback == nil {
		return store.MenuRecord{}, store.ErrNotFound
	}
	return s.deps.Fallback.Latest(ctx)
}

// Categories returns the configured category taxonomy.
func (s *Service) Categories(ctx context.Context) (catalog.ExpectedCategories, error) {
	return s.deps.Categories.Get(ctx)
}

// SetCategories validates and stores a new taxonomy.
func (s *Service) SetCategories(ctx context.Context, expected catalog.ExpectedCategories) error {
	expected.ParentCategories = trimAll(expected.ParentCategories)
	expected.ChildCategories = trimAll(expected.ChildCategories)
	if expected.ParentName != nil {
		name := strings.TrimSpace(*expected.ParentName)
		if name == "" {
			expected.ParentName = nil
		} else {
			expected.ParentName = &name
		}
	}
	if err := expected.Check(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCategories, err)
	}
	return s.deps.Categories.Put(ctx, expected)
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}
