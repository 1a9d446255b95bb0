package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/queue"
	"github.com/xavierca1/leadflow/internal/phone"
)

type LifecycleConfig struct {
	// StrictTransitions validates assign, interest and close against the
	// transition table. When false those accept any non-deleted status.
	StrictTransitions  bool
	MaxNotes           int
	MaxActivityEntries int
}

func DefaultLifecycleConfig() LifecycleConfig {
	return LifecycleConfig{
		StrictTransitions:  true,
		MaxNotes:           entity.MaxNotesPerLead,
		MaxActivityEntries: entity.MaxActivityLogEntries,
	}
}

type LeadLifecycle struct {
	Repo      entity.LeadRepositoryInterface
	Users     UserDirectory
	Publisher EventPublisher
	Metrics   LifecycleMetrics
	Log       *logrus.Logger
	Config    LifecycleConfig

	now   func() time.Time
	newID func() string
}

func NewLeadLifecycle(
	repo entity.LeadRepositoryInterface,
	users UserDirectory,
	publisher EventPublisher,
	metrics LifecycleMetrics,
	log *logrus.Logger,
	cfg LifecycleConfig,
) *LeadLifecycle {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LeadLifecycle{
		Repo:      repo,
		Users:     users,
		Publisher: publisher,
		Metrics:   metrics,
		Log:       log,
		Config:    cfg,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.New().String() },
	}
}

func (uc *LeadLifecycle) CreateLead(ctx context.Context, actor Actor, input CreateLeadInput) (out *CreateLeadOutput, err error) {
	defer uc.observe("create", &err)

	if !actor.Can(entity.CanAddLeads) {
		return nil, permissionDenied("only marketers can add leads")
	}

	input = trimCreateLeadInput(input)
	if verrs := ValidateCreateLeadInput(input); len(verrs) > 0 {
		return nil, validationFailed(verrs)
	}

	normalized := phone.Normalize(input.Phone)
	key := phone.Key(normalized)

	if err := uc.ensurePhoneAvailable(ctx, key, ""); err != nil {
		return nil, err
	}

	lead := entity.NewLead(entity.NewLeadParams{
		ID:           uc.newID(),
		ClientName:   input.ClientName,
		Phone:        normalized,
		PhoneKey:     key,
		Address:      input.Address,
		BusinessType: input.BusinessType,
		HasWebsite:   entity.WebsiteStatus(input.HasWebsite),
		WebsiteURL:   input.WebsiteURL,
		AddedBy:      actor.Reference(),
	}, uc.now())

	if err := uc.Repo.Create(ctx, lead); err != nil {
		return nil, translateError("create lead", err)
	}

	uc.Log.WithFields(logrus.Fields{
		"lead_id": lead.ID,
		"actor":   actor.Name,
		"action":  entity.ActionCreated,
	}).Info("lead created")

	uc.publish(ctx, lead, actor, queue.EventLeadCreated, nil)

	return &CreateLeadOutput{ID: lead.ID, Lead: NewLeadOutput(lead)}, nil
}

func (uc *LeadLifecycle) AssignLead(ctx context.Context, actor Actor, leadID, assigneeID string) (out *LeadOutput, err error) {
	defer uc.observe("assign", &err)

	if !actor.Can(entity.CanAssignLeads) {
		return nil, permissionDenied("only admins can assign leads")
	}

	if strings.TrimSpace(assigneeID) == "" {
		return nil, validationFailed([]ValidationError{{"assignee_id", "is required"}})
	}
	assignee, err := uc.Users.GetUser(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, entity.ErrUserNotFound) {
			return nil, validationFailed([]ValidationError{{"assignee_id", "does not reference a user"}})
		}
		return nil, translateError("load assignee", err)
	}
	if assignee.Role != entity.RoleSales {
		return nil, validationFailed([]ValidationError{{"assignee_id", "must reference a sales user"}})
	}

	lead, err := uc.mutate(ctx, actor, leadID, entity.ActionAssigned, func(l *entity.Lead, now time.Time) error {
		if err := uc.checkTransition(l, entity.StatusAssigned); err != nil {
			return err
		}
		ref := assignee.Reference()
		l.Status = entity.StatusAssigned
		l.AssignedTo = &ref
		l.AppendActivity(entity.ActionAssigned, actor.Name, assignee.Name, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.publish(ctx, lead, actor, queue.EventLeadAssigned, assignee)
	return NewLeadOutput(lead), nil
}

func (uc *LeadLifecycle) MarkLeadCalled(ctx context.Context, actor Actor, leadID string) (out *LeadOutput, err error) {
	defer uc.observe("call", &err)

	if !actor.Can(entity.CanCallLeads) {
		return nil, permissionDenied("only sales users can call leads")
	}

	lead, err := uc.mutate(ctx, actor, leadID, entity.ActionCalled, func(l *entity.Lead, now time.Time) error {
		if !l.IsAssignedTo(actor.ID) {
			return permissionDenied("lead is not assigned to you")
		}
		if l.CallStatus.Called {
			return entity.ErrAlreadyCalled
		}
		if err := uc.checkTransition(l, entity.StatusCalled); err != nil {
			return err
		}

		by := actor.Reference()
		calledAt := now
		l.Status = entity.StatusCalled
		l.CallStatus = entity.CallStatus{
			Called:   true,
			CalledAt: &calledAt,
			CalledBy: &by,
		}
		l.AppendActivity(entity.ActionCalled, actor.Name, "", now)
		return nil
	})
	if err != nil {
		// A concurrent writer may have marked it first.
		if ErrorCode(err) == CodeConflict {
			if current, ferr := uc.Repo.FindByID(ctx, leadID); ferr == nil && current.CallStatus.Called {
				return nil, translateError("mark called", entity.ErrAlreadyCalled)
			}
		}
		return nil, err
	}

	uc.publish(ctx, lead, actor, queue.EventLeadCalled, nil)
	return NewLeadOutput(lead), nil
}

func (uc *LeadLifecycle) UpdateLeadInterest(ctx context.Context, actor Actor, leadID string, interested bool) (out *LeadOutput, err error) {
	defer uc.observe("interest", &err)

	if !actor.Can(entity.CanCallLeads) {
		return nil, permissionDenied("only sales users can update interest")
	}

	target := entity.StatusNotInterested
	interest := entity.InterestNotInterested
	if interested {
		target = entity.StatusInterested
		interest = entity.InterestInterested
	}

	lead, err := uc.mutate(ctx, actor, leadID, entity.ActionStatusChanged, func(l *entity.Lead, now time.Time) error {
		if !l.IsAssignedTo(actor.ID) {
			return permissionDenied("lead is not assigned to you")
		}
		if err := uc.checkTransition(l, target); err != nil {
			return err
		}
		l.Status = target
		l.InterestStatus = &interest
		l.AppendActivity(entity.ActionStatusChanged, actor.Name, string(target), now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.publish(ctx, lead, actor, queue.EventLeadStatusChanged, nil)
	return NewLeadOutput(lead), nil
}

func (uc *LeadLifecycle) CloseLead(ctx context.Context, actor Actor, leadID string) (out *LeadOutput, err error) {
	defer uc.observe("close", &err)

	if !actor.Can(entity.CanCallLeads) {
		return nil, permissionDenied("only sales users can close leads")
	}

	lead, err := uc.mutate(ctx, actor, leadID, entity.ActionStatusChanged, func(l *entity.Lead, now time.Time) error {
		if !l.IsAssignedTo(actor.ID) {
			return permissionDenied("lead is not assigned to you")
		}
		if err := uc.checkTransition(l, entity.StatusClosed); err != nil {
			return err
		}
		l.Status = entity.StatusClosed
		l.AppendActivity(entity.ActionStatusChanged, actor.Name, string(entity.StatusClosed), now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.publish(ctx, lead, actor, queue.EventLeadStatusChanged, nil)
	return NewLeadOutput(lead), nil
}

func (uc *LeadLifecycle) AddLeadNote(ctx context.Context, actor Actor, leadID, text string) (out *LeadOutput, err error) {
	defer uc.observe("note", &err)

	if !actor.Role.IsValid() {
		return nil, permissionDenied("unknown role")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, validationFailed([]ValidationError{{"text", "is required"}})
	}

	lead, err := uc.mutate(ctx, actor, leadID, entity.ActionNoteAdded, func(l *entity.Lead, now time.Time) error {
		if !canAnnotate(actor, l) {
			return permissionDenied("you cannot add notes to this lead")
		}
		if l.Deleted {
			return deletedLeadError()
		}
		l.AppendNote(text, actor.Name, now)
		l.AppendActivity(entity.ActionNoteAdded, actor.Name, "", now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.publish(ctx, lead, actor, queue.EventLeadNoteAdded, nil)
	return NewLeadOutput(lead), nil
}

func (uc *LeadLifecycle) SoftDeleteLead(ctx context.Context, actor Actor, leadID string) (out *LeadOutput, err error) {
	defer uc.observe("delete", &err)

	if !actor.Can(entity.CanDeleteLeads) {
		return nil, permissionDenied("only admins can delete leads")
	}

	lead, err := uc.mutate(ctx, actor, leadID, entity.ActionDeleted, func(l *entity.Lead, now time.Time) error {
		if l.Deleted {
			return fmt.Errorf("%w: lead is already deleted", entity.ErrInvalidTransition)
		}
		by := actor.Name
		deletedAt := now
		l.Deleted = true
		l.DeletedAt = &deletedAt
		l.DeletedBy = &by
		l.AppendActivity(entity.ActionDeleted, actor.Name, "", now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.publish(ctx, lead, actor, queue.EventLeadDeleted, nil)
	return NewLeadOutput(lead), nil
}

func (uc *LeadLifecycle) RestoreLead(ctx context.Context, actor Actor, leadID string) (out *LeadOutput, err error) {
	defer uc.observe("restore", &err)

	if !actor.Can(entity.CanRestoreLeads) {
		return nil, permissionDenied("only admins can restore leads")
	}

	lead, err := uc.mutate(ctx, actor, leadID, entity.ActionRestored, func(l *entity.Lead, now time.Time) error {
		if !l.Deleted {
			return fmt.Errorf("%w: lead is not deleted", entity.ErrInvalidTransition)
		}
		if err := uc.ensurePhoneAvailable(ctx, l.PhoneKey, l.ID); err != nil {
			return err
		}
		l.Deleted = false
		l.DeletedAt = nil
		l.DeletedBy = nil
		l.AppendActivity(entity.ActionRestored, actor.Name, "", now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.publish(ctx, lead, actor, queue.EventLeadRestored, nil)
	return NewLeadOutput(lead), nil
}

func (uc *LeadLifecycle) GetLead(ctx context.Context, actor Actor, leadID string) (*LeadOutput, error) {
	lead, err := uc.Repo.FindByID(ctx, leadID)
	if err != nil {
		return nil, translateError("get lead", err)
	}

	if lead.Deleted && !actor.Can(entity.CanViewAllLeads) {
		return nil, translateError("get lead", entity.ErrLeadNotFound)
	}
	if !canView(actor, lead) {
		return nil, permissionDenied("you cannot view this lead")
	}

	return NewLeadOutput(lead), nil
}

// ListLeads returns the leads visible to actor, newest first. Only admins
// can include deleted leads.
func (uc *LeadLifecycle) ListLeads(ctx context.Context, actor Actor, includeDeleted bool) ([]*LeadOutput, error) {
	var filter entity.LeadFilter
	switch {
	case actor.Can(entity.CanViewAllLeads):
		filter.IncludeDeleted = includeDeleted
	case actor.Can(entity.CanAddLeads):
		filter.AddedByID = actor.ID
	case actor.Can(entity.CanCallLeads):
		filter.AssignedToID = actor.ID
	default:
		return nil, permissionDenied("you cannot list leads")
	}

	leads, err := uc.Repo.List(ctx, filter)
	if err != nil {
		return nil, translateError("list leads", err)
	}

	out := make([]*LeadOutput, 0, len(leads))
	for _, l := range leads {
		out = append(out, NewLeadOutput(l))
	}
	return out, nil
}

// CheckPhone reports whether raw is free to use for a new lead.
func (uc *LeadLifecycle) CheckPhone(ctx context.Context, actor Actor, raw string) (*PhoneCheckOutput, error) {
	if !actor.Can(entity.CanAddLeads) {
		return nil, permissionDenied("only marketers can check phone numbers")
	}
	if !phone.IsValid(raw) {
		return nil, validationFailed([]ValidationError{{"phone", "must be a valid phone number"}})
	}

	normalized := phone.Normalize(raw)
	out := &PhoneCheckOutput{
		Normalized: normalized,
		Display:    phone.FormatForDisplay(normalized),
		Region:     phone.Region(normalized),
		Available:  true,
	}

	existing, err := uc.Repo.FindActiveByPhoneKey(ctx, phone.Key(normalized))
	switch {
	case err == nil:
		out.Available = false
		if canView(actor, existing) {
			out.ExistingLeadID = existing.ID
		}
	case errors.Is(err, entity.ErrLeadNotFound):
	default:
		return nil, translateError("check phone", err)
	}

	return out, nil
}

// mutate loads the lead, applies fn to a copy and commits it guarded by the
// revision that was read. fn must append exactly one activity entry.
func (uc *LeadLifecycle) mutate(
	ctx context.Context,
	actor Actor,
	leadID string,
	action entity.ActivityAction,
	fn func(l *entity.Lead, now time.Time) error,
) (*entity.Lead, error) {
	current, err := uc.Repo.FindByID(ctx, leadID)
	if err != nil {
		return nil, translateError("load lead", err)
	}

	next := current.Clone()
	if err := fn(next, uc.now()); err != nil {
		return nil, translateError(string(action), err)
	}

	uc.warnOnSoftCaps(next)

	if err := uc.Repo.Update(ctx, next, current.Revision); err != nil {
		return nil, translateError("update lead", err)
	}

	uc.Log.WithFields(logrus.Fields{
		"lead_id":  next.ID,
		"actor":    actor.Name,
		"action":   action,
		"status":   next.EffectiveStatus(),
		"revision": next.Revision,
	}).Info("lead updated")

	return next, nil
}

// checkTransition applies the transition table. Deleted leads are always
// checked so that nothing but restore can move them.
func (uc *LeadLifecycle) checkTransition(l *entity.Lead, to entity.LeadStatus) error {
	if l.Deleted || uc.Config.StrictTransitions {
		return entity.AttemptTransition(l.EffectiveStatus(), to)
	}
	return nil
}

func (uc *LeadLifecycle) ensurePhoneAvailable(ctx context.Context, key, exceptID string) error {
	existing, err := uc.Repo.FindActiveByPhoneKey(ctx, key)
	if errors.Is(err, entity.ErrLeadNotFound) {
		return nil
	}
	if err != nil {
		return translateError("check phone", err)
	}
	if existing.ID == exceptID {
		return nil
	}
	return translateError("check phone", entity.ErrDuplicatePhone)
}

func (uc *LeadLifecycle) warnOnSoftCaps(l *entity.Lead) {
	if uc.Config.MaxNotes > 0 && len(l.Notes) > uc.Config.MaxNotes {
		uc.Log.WithFields(logrus.Fields{
			"lead_id": l.ID,
			"notes":   len(l.Notes),
			"cap":     uc.Config.MaxNotes,
		}).Warn("lead exceeds note cap")
	}
	if uc.Config.MaxActivityEntries > 0 && len(l.ActivityLog) > uc.Config.MaxActivityEntries {
		uc.Log.WithFields(logrus.Fields{
			"lead_id": l.ID,
			"entries": len(l.ActivityLog),
			"cap":     uc.Config.MaxActivityEntries,
		}).Warn("lead exceeds activity log cap")
	}
}

// publish emits the event for a committed change. Failures are logged and
// never undo the change.
func (uc *LeadLifecycle) publish(ctx context.Context, l *entity.Lead, actor Actor, eventType string, assignee *entity.User) {
	event := queue.LeadEvent{
		Type:       eventType,
		LeadID:     l.ID,
		ClientName: l.ClientName,
		Actor:      actor.Name,
		Status:     string(l.EffectiveStatus()),
		OccurredAt: l.UpdatedAt,
	}
	if assignee != nil {
		event.AssigneeID = assignee.ID
		event.AssigneeName = assignee.Name
		event.AssigneeEmail = assignee.Email
	}

	if err := uc.Publisher.PublishLeadEvent(ctx, event); err != nil {
		uc.Log.WithError(err).WithFields(logrus.Fields{
			"lead_id": l.ID,
			"event":   eventType,
		}).Error("failed to publish lead event")
	}
}

func (uc *LeadLifecycle) observe(operation string, err *error) {
	outcome := "ok"
	if *err != nil {
		outcome = ErrorCode(*err)
	}
	uc.Metrics.ObserveOperation(operation, outcome)
}

func canView(actor Actor, l *entity.Lead) bool {
	switch {
	case actor.Can(entity.CanViewAllLeads):
		return true
	case l.Deleted:
		return false
	case actor.Can(entity.CanAddLeads):
		return l.AddedBy.ID == actor.ID
	case actor.Can(entity.CanCallLeads):
		return l.IsAssignedTo(actor.ID)
	}
	return false
}

// canAnnotate: admins on any lead, sales on leads assigned to them,
// marketers on their own leads until they are picked up.
func canAnnotate(actor Actor, l *entity.Lead) bool {
	switch {
	case actor.Can(entity.CanViewAllLeads):
		return true
	case actor.Can(entity.CanCallLeads):
		return l.IsAssignedTo(actor.ID)
	case actor.Can(entity.CanAddLeads):
		return l.AddedBy.ID == actor.ID && l.Status == entity.StatusNew
	}
	return false
}

func deletedLeadError() error {
	return fmt.Errorf("%w: lead is deleted", entity.ErrInvalidTransition)
}
