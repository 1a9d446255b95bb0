package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xavierca1/leadflow/internal/entity"
)

type UserService struct {
	Repo     entity.UserRepositoryInterface
	Cache    UserCache
	CacheTTL time.Duration
	Log      *logrus.Logger
}

// NewUserService wires the user use cases. cache may be nil.
func NewUserService(repo entity.UserRepositoryInterface, cache UserCache, ttl time.Duration, log *logrus.Logger) *UserService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &UserService{
		Repo:     repo,
		Cache:    cache,
		CacheTTL: ttl,
		Log:      log,
	}
}

func (s *UserService) RegisterUser(ctx context.Context, input RegisterUserInput) (*UserOutput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Role = strings.ToLower(strings.TrimSpace(input.Role))

	if verrs := ValidateRegisterUserInput(input); len(verrs) > 0 {
		return nil, validationFailed(verrs)
	}

	user, err := entity.NewUser(input.Name, input.Email, entity.Role(input.Role))
	if err != nil {
		return nil, invalidInput(err.Error())
	}

	if err := s.Repo.Create(ctx, user); err != nil {
		return nil, translateError("create user", err)
	}

	s.Log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("user registered")

	return NewUserOutput(user), nil
}

// GetUser reads through the cache when one is configured. Cache failures
// are logged and fall back to the store.
func (s *UserService) GetUser(ctx context.Context, id string) (*entity.User, error) {
	if s.Cache != nil {
		cached, err := s.Cache.Get(ctx, id)
		if err != nil {
			s.Log.WithError(err).WithField("user_id", id).Warn("user cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	user, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateError("get user", err)
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, user, s.CacheTTL); err != nil {
			s.Log.WithError(err).WithField("user_id", id).Warn("user cache write failed")
		}
	}

	return user, nil
}

// ListSalesUsers feeds the assignment picker.
func (s *UserService) ListSalesUsers(ctx context.Context, actor Actor) ([]*UserOutput, error) {
	if !actor.Can(entity.CanAssignLeads) {
		return nil, permissionDenied("only admins can list sales users")
	}

	users, err := s.Repo.ListByRole(ctx, entity.RoleSales)
	if err != nil {
		return nil, translateError("list users", err)
	}

	out := make([]*UserOutput, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserOutput(u))
	}
	return out, nil
}

// RepairUserRole sets the role of an account whose stored role is missing
// or unknown. Accounts with a valid role cannot be changed through it.
func (s *UserService) RepairUserRole(ctx context.Context, actor Actor, userID, role string) (*UserOutput, error) {
	if actor.ID != userID {
		return nil, permissionDenied("you can only repair your own account")
	}

	newRole := entity.Role(strings.ToLower(strings.TrimSpace(role)))
	if !newRole.IsValid() {
		return nil, validationFailed([]ValidationError{{"role", "must be one of: admin, marketer, sales"}})
	}

	user, err := s.Repo.FindByID(ctx, userID)
	if err != nil {
		return nil, translateError("get user", err)
	}
	if user.Role.IsValid() {
		return nil, invalidTransition(fmt.Errorf("%w: role is already %s", entity.ErrInvalidTransition, user.Role))
	}

	if err := s.Repo.UpdateRole(ctx, userID, newRole); err != nil {
		return nil, translateError("update role", err)
	}
	user.Role = newRole

	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx, userID); err != nil {
			s.Log.WithError(err).WithField("user_id", userID).Warn("user cache invalidation failed")
		}
	}

	s.Log.WithFields(logrus.Fields{
		"user_id": userID,
		"role":    newRole,
	}).Info("user role repaired")

	return NewUserOutput(user), nil
}
