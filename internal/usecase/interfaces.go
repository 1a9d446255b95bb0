package usecase

import (
	"context"
	"time"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/queue"
)

// Actor is the authenticated user an operation runs on behalf of.
type Actor struct {
	ID   string
	Name string
	Role entity.Role
}

func (a Actor) Reference() entity.UserReference {
	return entity.UserReference{ID: a.ID, Name: a.Name}
}

func (a Actor) Can(c entity.Capability) bool {
	return entity.HasPermission(a.Role, c)
}

type EventPublisher interface {
	PublishLeadEvent(ctx context.Context, event queue.LeadEvent) error
}

// UserCache is a read-through cache of user profiles. Get returns
// (nil, nil) on a miss.
type UserCache interface {
	Get(ctx context.Context, id string) (*entity.User, error)
	Set(ctx context.Context, u *entity.User, ttl time.Duration) error
	Invalidate(ctx context.Context, id string) error
}

// UserDirectory resolves users referenced by lifecycle operations.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (*entity.User, error)
}

// LifecycleMetrics receives one observation per attempted lifecycle
// operation. outcome is "ok" or an error code.
type LifecycleMetrics interface {
	ObserveOperation(operation, outcome string)
}

type noopPublisher struct{}

func (noopPublisher) PublishLeadEvent(context.Context, queue.LeadEvent) error { return nil }

type noopMetrics struct{}

func (noopMetrics) ObserveOperation(string, string) {}
