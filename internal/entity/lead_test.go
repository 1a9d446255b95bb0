package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLead() *Lead {
	return NewLead(NewLeadParams{
		ID:           "lead-1",
		ClientName:   "ABC Corporation",
		Phone:        "+12345678900",
		PhoneKey:     "12345678900",
		Address:      "123 Main St",
		BusinessType: "Retail",
		HasWebsite:   WebsiteNo,
		AddedBy:      UserReference{ID: "m-1", Name: "Marta"},
	}, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
}

func TestNewLead(t *testing.T) {
	l := newTestLead()

	assert.Equal(t, StatusNew, l.Status)
	assert.False(t, l.Deleted)
	assert.False(t, l.CallStatus.Called)
	assert.Nil(t, l.AssignedTo)
	assert.Empty(t, l.Notes)
	assert.Equal(t, int64(1), l.Revision)
	if assert.Len(t, l.ActivityLog, 1) {
		assert.Equal(t, ActionCreated, l.ActivityLog[0].Action)
		assert.Equal(t, "Marta", l.ActivityLog[0].By)
	}
	assert.Equal(t, l.CreatedAt, l.UpdatedAt)
}

func TestLeadCloneIsDeep(t *testing.T) {
	l := newTestLead()
	l.AssignedTo = &UserReference{ID: "s-1", Name: "Sam"}
	by := "Admin"
	l.DeletedBy = &by

	c := l.Clone()
	c.AssignedTo.Name = "Other"
	*c.DeletedBy = "Someone"
	c.AppendActivity(ActionNoteAdded, "Sam", "", time.Now())
	c.AppendNote("hello", "Sam", time.Now())

	assert.Equal(t, "Sam", l.AssignedTo.Name)
	assert.Equal(t, "Admin", *l.DeletedBy)
	assert.Len(t, l.ActivityLog, 1)
	assert.Empty(t, l.Notes)
}

func TestEffectiveStatusKeepsStoredStatus(t *testing.T) {
	l := newTestLead()
	l.Status = StatusCalled
	l.Deleted = true

	assert.Equal(t, StatusDeleted, l.EffectiveStatus())
	assert.Equal(t, StatusCalled, l.Status)
}

func TestActivityLogEntryMessage(t *testing.T) {
	assert.Equal(t, "Lead created", ActivityLogEntry{Action: ActionCreated}.Message())
	assert.Equal(t, "Assigned to Sam", ActivityLogEntry{Action: ActionAssigned, Details: "Sam"}.Message())
	assert.Equal(t, "Status changed to closed", ActivityLogEntry{Action: ActionStatusChanged, Details: "closed"}.Message())
	assert.Equal(t, "Lead restored", ActivityLogEntry{Action: ActionRestored}.Message())
}
