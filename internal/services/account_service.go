package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/limbsorthopaedic/clinic-backend/internal/clinic"
	"github.com/limbsorthopaedic/clinic-backend/internal/docstore"
	"github.com/limbsorthopaedic/clinic-backend/internal/dto"
	"github.com/limbsorthopaedic/clinic-backend/internal/identity"
)

// AccountService provisions identities together with their role record.
type AccountService struct {
	store    docstore.Store
	provider identity.Provider
	now      func() time.Time
}

func NewAccountService(store docstore.Store, provider identity.Provider) *AccountService {
	return &AccountService{store: store, provider: provider, now: time.Now}
}

// Register is patient self-registration.
func (s *AccountService) Register(ctx context.Context, req *dto.RegisterRequest) (*clinic.User, error) {
	return s.create(ctx, req.Email, req.Password, req.DisplayName, clinic.RolePatient)
}

// EnsureOwner creates an owner account, or promotes the existing account
// with that email. created reports whether a new account was made.
func (s *AccountService) EnsureOwner(ctx context.Context, email, password, displayName string) (created bool, err error) {
	_, err = s.create(ctx, email, password, displayName, clinic.RoleOwner)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, identity.ErrEmailTaken) {
		return false, err
	}

	docs, qerr := s.store.Query(ctx, docstore.From(clinic.CollectionUsers).
		Where("email", docstore.OpEqual, strings.ToLower(strings.TrimSpace(email))).
		Take(1))
	if qerr != nil {
		return false, fmt.Errorf("failed to look up existing account: %w", qerr)
	}
	if len(docs) == 0 {
		return false, fmt.Errorf("account %s exists without a user record: %w", email, err)
	}
	if clinic.UserFromDocument(docs[0]).Role == clinic.RoleOwner {
		return false, nil
	}
	if err := s.store.Update(ctx, clinic.CollectionUsers, docs[0].ID, map[string]interface{}{"role": string(clinic.RoleOwner)}); err != nil {
		return false, fmt.Errorf("failed to promote %s: %w", email, err)
	}
	return false, nil
}

func (s *AccountService) create(ctx context.Context, email, password, displayName string, role clinic.Role) (*clinic.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	displayName = strings.TrimSpace(displayName)

	uid, err := s.provider.CreateAccount(ctx, email, password, displayName)
	if err != nil {
		return nil, err
	}

	user := clinic.User{
		UID:         uid,
		Email:       email,
		DisplayName: displayName,
		Role:        role,
		CreatedAt:   s.now().UTC(),
		IsActive:    true,
	}
	if err := s.store.CreateWithID(ctx, clinic.CollectionUsers, uid, user.Fields()); err != nil {
		return nil, fmt.Errorf("failed to create user record: %w", err)
	}
	return &user, nil
}
