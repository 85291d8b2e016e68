package repository

import (
	"context"
	"exam_portal_backend/internal/model"
	"exam_portal_backend/internal/util"
	"exam_portal_backend/pkg/kvstore"
	"sync"
)

// UserRepository keeps the all-users collection and the current-user
// pointer. Every write stores the whole collection.
type UserRepository struct {
	Store kvstore.Store
	mu    sync.Mutex
}

func NewUserRepository(store kvstore.Store) *UserRepository {
	return &UserRepository{Store: store}
}

func (r *UserRepository) load(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if _, err := r.Store.Get(ctx, KeyUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, util.ErrUserNotFound
}

// FindByEmail matches the address exactly, including case.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Email == email {
			return &users[i], nil
		}
	}
	return nil, util.ErrUserNotFound
}

// Create appends user unless the email is already taken.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.Email == user.Email {
			return util.ErrEmailRegistered
		}
	}
	users = append(users, *user)
	return r.Store.Put(ctx, KeyUsers, users)
}

// Update replaces the stored record with the same id. If that user is also
// the current user, the current-user record is refreshed too.
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return err
	}
	found := false
	for i := range users {
		if users[i].ID == user.ID {
			users[i] = *user
			found = true
			break
		}
	}
	if !found {
		return util.ErrUserNotFound
	}
	if err := r.Store.Put(ctx, KeyUsers, users); err != nil {
		return err
	}

	var current model.User
	ok, err := r.Store.Get(ctx, KeyCurrentUser, &current)
	if err != nil {
		return err
	}
	if ok && current.ID == user.ID {
		return r.Store.Put(ctx, KeyCurrentUser, user)
	}
	return nil
}

// Current returns nil without error when nobody is signed in.
func (r *UserRepository) Current(ctx context.Context) (*model.User, error) {
	var u model.User
	ok, err := r.Store.Get(ctx, KeyCurrentUser, &u)
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) SetCurrent(ctx context.Context, user *model.User) error {
	return r.Store.Put(ctx, KeyCurrentUser, user)
}

func (r *UserRepository) ClearCurrent(ctx context.Context) error {
	return r.Store.Delete(ctx, KeyCurrentUser)
}
