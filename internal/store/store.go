package store

import (
	"context"
	"errors"
	"time"

	"taproom-services/internal/catalog"
)

var ErrNotFound = errors.New("not found")

const (
	MenusCollection         = "menus"
	FallbackMenusCollection = "fallbackmenus"
	CategoriesCollection    = "categories"

	// MenuRetention keeps the current menu and the one before it.
	MenuRetention = 2
	// FallbackRetention keeps only the current fallback menu.
	FallbackRetention = 1
)

type MenuRecord struct {
	ID        string                `json:"id"`
	Menu      catalog.MenuStructure `json:"menu"`
	Version   int64                 `json:"version"`
	IsLatest  bool                  `json:"isLatest"`
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

// MenuStore holds published menus. Publish atomically makes the new menu the
// only latest record and prunes older ones past the store's retention.
type MenuStore interface {
	Publish(ctx context.Context, menu catalog.MenuStructure) (MenuRecord, error)
	// Latest returns the latest record, promoting the newest record when none
	// is flagged. ErrNotFound when the store is empty.
	Latest(ctx context.Context) (MenuRecord, error)
}

type CategoryStore interface {
	Get(ctx context.Context) (catalog.ExpectedCategories, error)
	Put(ctx context.Context, expected catalog.ExpectedCategories) error
}

type Event struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Location      string     `json:"location"`
	StartsAt      time.Time  `json:"startsAt"`
	EndsAt        *time.Time `json:"endsAt"`
	TicketURL     string     `json:"ticketUrl,omitempty"`
	FlyerURL      string     `json:"flyerUrl,omitempty"`
	FlyerThumbURL string     `json:"flyerThumbUrl,omitempty"`
	Published     bool       `json:"published"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type EventFilter struct {
	From          *time.Time
	To            *time.Time
	IncludeDrafts bool
	Limit         int
}

type EventStore interface {
	List(ctx context.Context, filter EventFilter) ([]Event, error)
	Get(ctx context.Context, id string) (Event, error)
	Create(ctx context.Context, event Event) (Event, error)
	Update(ctx context.Context, event Event) (Event, error)
	Delete(ctx context.Context, id string) error
}

type Message struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Body      string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

type MessageFilter struct {
	UnreadOnly bool
	Limit      int
}

type MessageStore interface {
	List(ctx context.Context, filter MessageFilter) ([]Message, error)
	Get(ctx context.Context, id string) (Message, error)
	Create(ctx context.Context, msg Message) (Message, error)
	MarkRead(ctx context.Context, id string) (Message, error)
	Delete(ctx context.Context, id string) error
}

type JobApplication struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Position     string    `json:"position"`
	Availability string    `json:"availability"`
	Experience   string    `json:"experience"`
	ResumeURL    string    `json:"resumeUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type ApplicationStore interface {
	List(ctx context.Context, limit int) ([]JobApplication, error)
	Get(ctx context.Context, id string) (JobApplication, error)
	Create(ctx context.Context, app JobApplication) (JobApplication, error)
}

// Stores groups every store of one backend.
type Stores struct {
	Menus         MenuStore
	FallbackMenus MenuStore
	Categories    CategoryStore
	Events        EventStore
	Messages      MessageStore
	Applications  ApplicationStore
}

// ClampLimit bounds list sizes for every backend.
func ClampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
