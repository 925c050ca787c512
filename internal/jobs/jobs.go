package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"taproom-services/internal/menu"
	"taproom-services/internal/notify"
	"taproom-services/internal/queue"
	"taproom-services/internal/store"

	"go.uber.org/zap"
)

const (
	KindCatalogRefresh   = "catalog.refresh"
	KindContactMail      = "contact." + notify.ChannelMail
	KindContactSheet     = "contact." + notify.ChannelSheet
	KindApplicationMail  = "application." + notify.ChannelMail
	KindApplicationSheet = "application." + notify.ChannelSheet
)

// ContactKinds and ApplicationKinds fan one submission out into a job per
// notification channel.
var (
	ContactKinds     = []string{KindContactMail, KindContactSheet}
	ApplicationKinds = []string{KindApplicationMail, KindApplicationSheet}
)

// Job is the envelope every queued job travels in.
type Job struct {
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	Attempt   int             `json:"attempt"`
}

func NewJob(kind string, payload any) (Job, error) {
	job := Job{Kind: kind, CreatedAt: time.Now().UTC(), Attempt: 1}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Job{}, fmt.Errorf("encode %s payload: %w", kind, err)
		}
		job.Payload = raw
	}
	return job, nil
}

// RefreshPayload records what triggered a catalog refresh.
type RefreshPayload struct {
	Reason  string `json:"reason"`
	EventID string `json:"eventId,omitempty"`
}

type Enqueuer interface {
	Enqueue(ctx context.Context, job Job) error
}

// Reconciler rebuilds the menu.
type Reconciler interface {
	Reconcile(ctx context.Context) (menu.Outcome, error)
}

// Notifier delivers form submissions to the venue staff.
type Notifier interface {
	ContactReceived(ctx context.Context, channel string, msg store.Message) error
	ApplicationReceived(ctx context.Context, channel string, app store.JobApplication) error
}

type Processor struct {
	Menu     Reconciler
	Notifier Notifier
	Logger   *zap.Logger
}

var ErrUnknownKind = errors.New("unknown job kind")

// Handle decodes and runs one job. It matches queue.HandlerFunc.
func (p *Processor) Handle(ctx context.Context, body []byte) error {
	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		// a malformed envelope will never succeed
		p.logger().Error("drop malformed job", zap.Error(err))
		return nil
	}
	err := p.Run(ctx, job)
	if errors.Is(err, ErrUnknownKind) {
		p.logger().Warn("drop job", zap.String("kind", job.Kind))
		return nil
	}
	return err
}

func (p *Processor) Run(ctx context.Context, job Job) error {
	log := p.logger().With(zap.String("kind", job.Kind))
	switch job.Kind {
	case KindCatalogRefresh:
		if p.Menu == nil {
			return errors.New("menu service not configured")
		}
		var payload RefreshPayload
		if len(job.Payload) > 0 {
			_ = json.Unmarshal(job.Payload, &payload)
		}
		outcome, err := p.Menu.Reconcile(ctx)
		if errors.Is(err, menu.ErrNoCategories) || errors.Is(err, menu.ErrNotConfigured) {
			log.Warn("catalog refresh skipped", zap.Error(err))
			return nil
		}
		if err != nil {
			return err
		}
		log.Info("catalog refreshed", zap.String("reason", payload.Reason), zap.String("source", outcome.Source))
		return nil

	case KindContactMail, KindContactSheet:
		var msg store.Message
		if err := json.Unmarshal(job.Payload, &msg); err != nil {
			log.Error("drop contact job", zap.Error(err))
			return nil
		}
		if p.Notifier == nil {
			return nil
		}
		return p.Notifier.ContactReceived(ctx, channelOf(job.Kind), msg)

	case KindApplicationMail, KindApplicationSheet:
		var app store.JobApplication
		if err := json.Unmarshal(job.Payload, &app); err != nil {
			log.Error("drop application job", zap.Error(err))
			return nil
		}
		if p.Notifier == nil {
			return nil
		}
		return p.Notifier.ApplicationReceived(ctx, channelOf(job.Kind), app)
	}
	return fmt.Errorf("%w: %q", ErrUnknownKind, job.Kind)
}

func channelOf(kind string) string {
	return kind[strings.LastIndexByte(kind, '.')+1:]
}

func (p *Processor) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

type publisher interface {
	PublishJSON(ctx context.Context, exchange, routingKey string, payload any) error
}

// QueueEnqueuer publishes jobs to the jobs exchange.
type QueueEnqueuer struct {
	Client publisher
}

func (q QueueEnqueuer) Enqueue(ctx context.Context, job Job) error {
	return q.Client.PublishJSON(ctx, queue.JobsExchange, queue.JobsRK, job)
}

// InlineEnqueuer runs jobs in background goroutines when no broker is
// configured. Failed jobs are logged, not retried.
type InlineEnqueuer struct {
	Processor *Processor
	Timeout   time.Duration
	Logger    *zap.Logger

	wg sync.WaitGroup
}

func (e *InlineEnqueuer) Enqueue(_ context.Context, job Job) error {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx := context.Background()
		if e.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, e.Timeout)
			defer cancel()
		}
		if err := e.Processor.Run(ctx, job); err != nil && e.Logger != nil {
			e.Logger.Error("inline job failed", zap.String("kind", job.Kind), zap.Error(err))
		}
	}()
	return nil
}

// Wait blocks until every started job has finished.
func (e *InlineEnqueuer) Wait() {
	e.wg.Wait()
}

// Enqueue builds a job and hands it to e.
func Enqueue(ctx context.Context, e Enqueuer, kind string, payload any) error {
	job, err := NewJob(kind, payload)
	if err != nil {
		return err
	}
	return e.Enqueue(ctx, job)
}
