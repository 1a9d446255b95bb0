package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xavierca1/leadflow/internal/entity"
)

// LeadRepository keeps leads in process. Every read and write goes through
// copies so callers never share state with the store.
type LeadRepository struct {
	mu    sync.RWMutex
	leads map[string]*entity.Lead
}

func NewLeadRepository() *LeadRepository {
	return &LeadRepository{leads: make(map[string]*entity.Lead)}
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.leads[lead.ID]; exists {
		return fmt.Errorf("lead %s already exists", lead.ID)
	}
	if r.phoneTaken(lead.PhoneKey, lead.ID) {
		return entity.ErrDuplicatePhone
	}

	r.leads[lead.ID] = lead.Clone()
	return nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, entity.ErrLeadNotFound
	}
	return lead.Clone(), nil
}

func (r *LeadRepository) FindActiveByPhoneKey(ctx context.Context, phoneKey string) (*entity.Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, lead := range r.leads {
		if !lead.Deleted && lead.PhoneKey == phoneKey {
			return lead.Clone(), nil
		}
	}
	return nil, entity.ErrLeadNotFound
}

// Update stores lead when the stored revision equals expectedRevision and
// sets lead.Revision to the new revision.
func (r *LeadRepository) Update(ctx context.Context, lead *entity.Lead, expectedRevision int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.leads[lead.ID]
	if !ok {
		return entity.ErrLeadNotFound
	}
	if stored.Revision != expectedRevision {
		return entity.ErrRevisionConflict
	}
	if !lead.Deleted && r.phoneTaken(lead.PhoneKey, lead.ID) {
		return entity.ErrDuplicatePhone
	}

	lead.Revision = expectedRevision + 1
	r.leads[lead.ID] = lead.Clone()
	return nil
}

func (r *LeadRepository) List(ctx context.Context, filter entity.LeadFilter) ([]*entity.Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	out := make([]*entity.Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		if lead.Deleted && !filter.IncludeDeleted {
			continue
		}
		if filter.AddedByID != "" && lead.AddedBy.ID != filter.AddedByID {
			continue
		}
		if filter.AssignedToID != "" && !lead.IsAssignedTo(filter.AssignedToID) {
			continue
		}
		out = append(out, lead.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// phoneTaken must be called with mu held.
func (r *LeadRepository) phoneTaken(phoneKey, exceptID string) bool {
	for id, lead := range r.leads {
		if id != exceptID && !lead.Deleted && lead.PhoneKey == phoneKey {
			return true
		}
	}
	return false
}
