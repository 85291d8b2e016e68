package repository

import (
	"context"
	"exam_portal_backend/internal/model"
	"exam_portal_backend/internal/util"
	"exam_portal_backend/pkg/kvstore"
	"sync"
)

type QuestionRepository struct {
	Store kvstore.Store
	mu    sync.Mutex
}

func NewQuestionRepository(store kvstore.Store) *QuestionRepository {
	return &QuestionRepository{Store: store}
}

func (r *QuestionRepository) load(ctx context.Context) ([]model.Question, error) {
	var qs []model.Question
	if _, err := r.Store.Get(ctx, KeyQuestions, &qs); err != nil {
		return nil, err
	}
	return qs, nil
}

// List returns the bank in insertion order.
func (r *QuestionRepository) List(ctx context.Context) ([]model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

func (r *QuestionRepository) FindByID(ctx context.Context, id string) (*model.Question, error) {
	qs, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range qs {
		if qs[i].ID == id {
			return &qs[i], nil
		}
	}
	return nil, util.ErrQuestionNotFound
}

// BySubject keeps collection order and stops after limit matches; limit <= 0
// means no limit.
func (r *QuestionRepository) BySubject(ctx context.Context, subjectID string, limit int) ([]model.Question, error) {
	qs, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Question, 0)
	for _, q := range qs {
		if q.Subject.ID != subjectID {
			continue
		}
		out = append(out, q)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *QuestionRepository) Count(ctx context.Context) (int, error) {
	qs, err := r.List(ctx)
	return len(qs), err
}

func (r *QuestionRepository) Create(ctx context.Context, qs ...model.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.load(ctx)
	if err != nil {
		return err
	}
	all = append(all, qs...)
	return r.Store.Put(ctx, KeyQuestions, all)
}

func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.load(ctx)
	if err != nil {
		return err
	}
	for i := range all {
		if all[i].ID == q.ID {
			all[i] = *q
			return r.Store.Put(ctx, KeyQuestions, all)
		}
	}
	return util.ErrQuestionNotFound
}

func (r *QuestionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.load(ctx)
	if err != nil {
		return err
	}
	kept := all[:0]
	for _, q := range all {
		if q.ID != id {
			kept = append(kept, q)
		}
	}
	if len(kept) == len(all) {
		return util.ErrQuestionNotFound
	}
	return r.Store.Put(ctx, KeyQuestions, kept)
}
