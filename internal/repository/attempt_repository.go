package repository

import (
	"context"
	"exam_portal_backend/internal/model"
	"exam_portal_backend/internal/util"
	"exam_portal_backend/pkg/kvstore"
	"sort"
	"sync"
)

// AttemptRepository is the append-only log of finished attempts.
type AttemptRepository struct {
	Store kvstore.Store
	mu    sync.Mutex
}

func NewAttemptRepository(store kvstore.Store) *AttemptRepository {
	return &AttemptRepository{Store: store}
}

func (r *AttemptRepository) load(ctx context.Context) ([]model.ExamAttempt, error) {
	var attempts []model.ExamAttempt
	if _, err := r.Store.Get(ctx, KeyAttempts, &attempts); err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *AttemptRepository) List(ctx context.Context) ([]model.ExamAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

func (r *AttemptRepository) Append(ctx context.Context, a *model.ExamAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.load(ctx)
	if err != nil {
		return err
	}
	all = append(all, *a)
	return r.Store.Put(ctx, KeyAttempts, all)
}

func (r *AttemptRepository) FindByID(ctx context.Context, id string) (*model.ExamAttempt, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, util.ErrAttemptNotFound
}

// ByUser returns the user's attempts, newest first.
func (r *AttemptRepository) ByUser(ctx context.Context, userID string) ([]model.ExamAttempt, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.ExamAttempt, 0)
	for _, a := range all {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	return out, nil
}
