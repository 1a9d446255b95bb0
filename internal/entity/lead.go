package entity

import (
	"context"
	"fmt"
	"time"
)

type LeadStatus string

const (
	StatusNew           LeadStatus = "new"
	StatusAssigned      LeadStatus = "assigned"
	StatusCalled        LeadStatus = "called"
	StatusInterested    LeadStatus = "interested"
	StatusNotInterested LeadStatus = "not_interested"
	StatusClosed        LeadStatus = "closed"
	// StatusDeleted is the effective status of a soft-deleted lead. It is
	// never stored in Lead.Status; see Lead.EffectiveStatus.
	StatusDeleted LeadStatus = "deleted"
)

func (s LeadStatus) IsValid() bool {
	switch s {
	case StatusNew, StatusAssigned, StatusCalled, StatusInterested,
		StatusNotInterested, StatusClosed, StatusDeleted:
		return true
	}
	return false
}

type InterestStatus string

const (
	InterestInterested    InterestStatus = "interested"
	InterestNotInterested InterestStatus = "not_interested"
)

type WebsiteStatus string

const (
	WebsiteYes WebsiteStatus = "yes"
	WebsiteNo  WebsiteStatus = "no"
)

func (w WebsiteStatus) IsValid() bool {
	return w == WebsiteYes || w == WebsiteNo
}

type ActivityAction string

const (
	ActionCreated       ActivityAction = "created"
	ActionAssigned      ActivityAction = "assigned"
	ActionCalled        ActivityAction = "called"
	ActionStatusChanged ActivityAction = "status_changed"
	ActionNoteAdded     ActivityAction = "note_added"
	ActionDeleted       ActivityAction = "deleted"
	ActionRestored      ActivityAction = "restored"
)

// Soft caps. Appends past these are allowed and only reported.
const (
	MaxNotesPerLead       = 100
	MaxActivityLogEntries = 200
)

// UserReference is the denormalized {id, name} pair stored on a lead.
type UserReference struct {
	ID   string `json:"uid"`
	Name string `json:"name"`
}

type CallStatus struct {
	Called   bool           `json:"called"`
	CalledAt *time.Time     `json:"called_at"`
	CalledBy *UserReference `json:"called_by"`
}

type Note struct {
	Text      string    `json:"text"`
	AddedBy   string    `json:"added_by"`
	CreatedAt time.Time `json:"created_at"`
}

type ActivityLogEntry struct {
	Action  ActivityAction `json:"action"`
	By      string         `json:"by"`
	At      time.Time      `json:"at"`
	Details string         `json:"details,omitempty"`
}

// Message renders the entry the way the audit trail shows it.
func (e ActivityLogEntry) Message() string {
	switch e.Action {
	case ActionCreated:
		return "Lead created"
	case ActionAssigned:
		return fmt.Sprintf("Assigned to %s", e.Details)
	case ActionCalled:
		return "Lead called"
	case ActionStatusChanged:
		return fmt.Sprintf("Status changed to %s", e.Details)
	case ActionNoteAdded:
		return "Note added"
	case ActionDeleted:
		return "Lead deleted"
	case ActionRestored:
		return "Lead restored"
	}
	return string(e.Action)
}

type Lead struct {
	ID           string        `json:"id"`
	ClientName   string        `json:"client_name"`
	Phone        string        `json:"phone"`
	PhoneKey     string        `json:"-"`
	Address      string        `json:"address"`
	BusinessType string        `json:"business_type"`
	HasWebsite   WebsiteStatus `json:"has_website"`
	WebsiteURL   string        `json:"website_url"`

	Status LeadStatus `json:"status"`

	AddedBy    UserReference  `json:"added_by"`
	AssignedTo *UserReference `json:"assigned_to"`

	CallStatus     CallStatus      `json:"call_status"`
	InterestStatus *InterestStatus `json:"interest_status"`

	Notes       []Note             `json:"notes"`
	ActivityLog []ActivityLogEntry `json:"activity_log"`

	Deleted   bool       `json:"deleted"`
	DeletedAt *time.Time `json:"deleted_at"`
	DeletedBy *string    `json:"deleted_by"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Revision increments on every committed write; stores reject updates
	// whose expected revision is stale.
	Revision int64 `json:"revision"`
}

type NewLeadParams struct {
	ID           string
	ClientName   string
	Phone        string
	PhoneKey     string
	Address      string
	BusinessType string
	HasWebsite   WebsiteStatus
	WebsiteURL   string
	AddedBy      UserReference
}

// NewLead builds a lead in status new with its log seeded by a created entry.
func NewLead(p NewLeadParams, now time.Time) *Lead {
	return &Lead{
		ID:           p.ID,
		ClientName:   p.ClientName,
		Phone:        p.Phone,
		PhoneKey:     p.PhoneKey,
		Address:      p.Address,
		BusinessType: p.BusinessType,
		HasWebsite:   p.HasWebsite,
		WebsiteURL:   p.WebsiteURL,
		Status:       StatusNew,
		AddedBy:      p.AddedBy,
		Notes:        []Note{},
		ActivityLog: []ActivityLogEntry{
			{Action: ActionCreated, By: p.AddedBy.Name, At: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
		Revision:  1,
	}
}

// EffectiveStatus is the status used by queries: deleted overrides the
// stored status without replacing it.
func (l *Lead) EffectiveStatus() LeadStatus {
	if l.Deleted {
		return StatusDeleted
	}
	return l.Status
}

func (l *Lead) IsAssignedTo(userID string) bool {
	return l.AssignedTo != nil && l.AssignedTo.ID == userID
}

func (l *Lead) AppendActivity(action ActivityAction, by, details string, at time.Time) {
	l.ActivityLog = append(l.ActivityLog, ActivityLogEntry{
		Action:  action,
		By:      by,
		At:      at,
		Details: details,
	})
	l.UpdatedAt = at
}

func (l *Lead) AppendNote(text, by string, at time.Time) {
	l.Notes = append(l.Notes, Note{Text: text, AddedBy: by, CreatedAt: at})
}

// Clone returns a deep copy so callers can mutate it without touching the
// original's slices or pointers.
func (l *Lead) Clone() *Lead {
	c := *l
	if l.AssignedTo != nil {
		ref := *l.AssignedTo
		c.AssignedTo = &ref
	}
	if l.CallStatus.CalledAt != nil {
		t := *l.CallStatus.CalledAt
		c.CallStatus.CalledAt = &t
	}
	if l.CallStatus.CalledBy != nil {
		ref := *l.CallStatus.CalledBy
		c.CallStatus.CalledBy = &ref
	}
	if l.InterestStatus != nil {
		is := *l.InterestStatus
		c.InterestStatus = &is
	}
	if l.DeletedAt != nil {
		t := *l.DeletedAt
		c.DeletedAt = &t
	}
	if l.DeletedBy != nil {
		by := *l.DeletedBy
		c.DeletedBy = &by
	}
	c.Notes = append([]Note{}, l.Notes...)
	c.ActivityLog = append([]ActivityLogEntry{}, l.ActivityLog...)
	return &c
}

// LeadFilter selects leads for listing. Empty ID fields do not filter.
type LeadFilter struct {
	AddedByID      string
	AssignedToID   string
	IncludeDeleted bool
}

// LeadRepositoryInterface is the storage contract of the lifecycle manager.
// Implementations must enforce phone-key uniqueness among non-deleted leads
// atomically and must apply Update only when the stored revision equals
// expectedRevision.
type LeadRepositoryInterface interface {
	Create(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, id string) (*Lead, error)
	FindActiveByPhoneKey(ctx context.Context, phoneKey string) (*Lead, error)
	Update(ctx context.Context, lead *Lead, expectedRevision int64) error
	List(ctx context.Context, filter LeadFilter) ([]*Lead, error)
}
