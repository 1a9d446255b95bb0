package usecase

import (
	"time"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/phone"
)

type CreateLeadInput struct {
	ClientName   string `json:"client_name" validate:"required,max=200"`
	Phone        string `json:"phone" validate:"required,leadphone"`
	Address      string `json:"address" validate:"required,max=500"`
	BusinessType string `json:"business_type" validate:"required,max=100"`
	HasWebsite   string `json:"has_website" validate:"required,oneof=yes no"`
	WebsiteURL   string `json:"website_url" validate:"omitempty,url"`
}

type CreateLeadOutput struct {
	ID   string      `json:"id"`
	Lead *LeadOutput `json:"lead"`
}

type ActivityOutput struct {
	Action  entity.ActivityAction `json:"action"`
	By      string                `json:"by"`
	At      time.Time             `json:"at"`
	Details string                `json:"details,omitempty"`
	Message string                `json:"message"`
}

type LeadOutput struct {
	ID           string               `json:"id"`
	ClientName   string               `json:"client_name"`
	Phone        string               `json:"phone"`
	PhoneDisplay string               `json:"phone_display"`
	PhoneRegion  string               `json:"phone_region,omitempty"`
	Address      string               `json:"address"`
	BusinessType string               `json:"business_type"`
	HasWebsite   entity.WebsiteStatus `json:"has_website"`
	WebsiteURL   string               `json:"website_url"`

	// Status is the effective status (deleted for soft-deleted leads).
	// WorkflowStatus is the status the lead returns to on restore.
	Status         entity.LeadStatus `json:"status"`
	WorkflowStatus entity.LeadStatus `json:"workflow_status"`

	AddedBy        entity.UserReference   `json:"added_by"`
	AssignedTo     *entity.UserReference  `json:"assigned_to"`
	CallStatus     entity.CallStatus      `json:"call_status"`
	InterestStatus *entity.InterestStatus `json:"interest_status"`
	Notes          []entity.Note          `json:"notes"`
	ActivityLog    []ActivityOutput       `json:"activity_log"`

	Deleted   bool       `json:"deleted"`
	DeletedAt *time.Time `json:"deleted_at"`
	DeletedBy *string    `json:"deleted_by"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Revision  int64     `json:"revision"`
}

func NewLeadOutput(l *entity.Lead) *LeadOutput {
	log := make([]ActivityOutput, 0, len(l.ActivityLog))
	for _, e := range l.ActivityLog {
		log = append(log, ActivityOutput{
			Action:  e.Action,
			By:      e.By,
			At:      e.At,
			Details: e.Details,
			Message: e.Message(),
		})
	}

	notes := l.Notes
	if notes == nil {
		notes = []entity.Note{}
	}

	return &LeadOutput{
		ID:             l.ID,
		ClientName:     l.ClientName,
		Phone:          l.Phone,
		PhoneDisplay:   phone.FormatForDisplay(l.Phone),
		PhoneRegion:    phone.Region(l.Phone),
		Address:        l.Address,
		BusinessType:   l.BusinessType,
		HasWebsite:     l.HasWebsite,
		WebsiteURL:     l.WebsiteURL,
		Status:         l.EffectiveStatus(),
		WorkflowStatus: l.Status,
		AddedBy:        l.AddedBy,
		AssignedTo:     l.AssignedTo,
		CallStatus:     l.CallStatus,
		InterestStatus: l.InterestStatus,
		Notes:          notes,
		ActivityLog:    log,
		Deleted:        l.Deleted,
		DeletedAt:      l.DeletedAt,
		DeletedBy:      l.DeletedBy,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
		Revision:       l.Revision,
	}
}

type PhoneCheckOutput struct {
	Normalized string `json:"normalized"`
	Display    string `json:"display"`
	Region     string `json:"region,omitempty"`
	Available  bool   `json:"available"`
	// ExistingLeadID is only filled for callers allowed to view that lead.
	ExistingLeadID string `json:"existing_lead_id,omitempty"`
}

type RegisterUserInput struct {
	Name  string `json:"name" validate:"required,max=120"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=admin marketer sales"`
}

type UserOutput struct {
	ID        string      `json:"uid"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      entity.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

func NewUserOutput(u *entity.User) *UserOutput {
	return &UserOutput{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
