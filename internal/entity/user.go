package entity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleMarketer Role = "marketer"
	RoleSales    Role = "sales"
)

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleMarketer || r == RoleSales
}

type User struct {
	ID        string    `json:"uid"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func NewUser(name, email string, role Role) (*User, error) {
	u := &User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *User) Validate() error {
	if u.Name == "" {
		return errors.New("name is required")
	}
	if u.Email == "" {
		return errors.New("email is required")
	}
	if !u.Role.IsValid() {
		return errors.New("role must be admin, marketer or sales")
	}
	return nil
}

func (u *User) Reference() UserReference {
	return UserReference{ID: u.ID, Name: u.Name}
}

type Capability string

const (
	CanViewAllLeads     Capability = "canViewAllLeads"
	CanAssignLeads      Capability = "canAssignLeads"
	CanDeleteLeads      Capability = "canDeleteLeads"
	CanRestoreLeads     Capability = "canRestoreLeads"
	CanViewAnalytics    Capability = "canViewAnalytics"
	CanAddLeads         Capability = "canAddLeads"
	CanCallLeads        Capability = "canCallLeads"
	CanEditOwnLeadsOnly Capability = "canEditOwnLeadsOnly"
)

var rolePermissions = map[Role]map[Capability]bool{
	RoleAdmin: {
		CanViewAllLeads:  true,
		CanAssignLeads:   true,
		CanDeleteLeads:   true,
		CanRestoreLeads:  true,
		CanViewAnalytics: true,
	},
	RoleMarketer: {
		CanAddLeads:         true,
		CanEditOwnLeadsOnly: true,
	},
	RoleSales: {
		CanCallLeads:        true,
		CanEditOwnLeadsOnly: true,
	},
}

// HasPermission reports whether role carries capability c. Unknown roles and
// unknown capabilities have no permissions.
func HasPermission(role Role, c Capability) bool {
	return rolePermissions[role][c]
}

type UserRepositoryInterface interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	ListByRole(ctx context.Context, role Role) ([]*User, error)
	UpdateRole(ctx context.Context, id string, role Role) error
}
