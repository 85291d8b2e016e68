package service

import (
	"context"
	"errors"
	"testing"

	"exam_portal_backend/internal/util"
)

func TestPractice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addQuestions(t, "2", 3)

	qs, err := f.practice.Questions(ctx, "2")
	if err != nil || len(qs) != 3 {
		t.Fatalf("Questions = %d, %v", len(qs), err)
	}
	if _, err := f.practice.Questions(ctx, "42"); !errors.Is(err, util.ErrSubjectNotFound) {
		t.Errorf("unknown subject err = %v", err)
	}

	tests := []struct {
		option  int
		correct bool
		err     error
	}{
		{1, true, nil},
		{3, false, nil},
		{4, false, util.ErrInvalidOption},
		{-1, false, util.ErrInvalidOption},
	}
	for _, tt := range tests {
		fb, err := f.practice.Check(ctx, qs[0].ID, tt.option)
		if !errors.Is(err, tt.err) {
			t.Errorf("Check(%d) err = %v, want %v", tt.option, err, tt.err)
			continue
		}
		if err == nil && (fb.Correct != tt.correct || fb.CorrectAnswer != 1 || fb.Explanation == "") {
			t.Errorf("Check(%d) = %+v", tt.option, fb)
		}
	}

	if _, err := f.practice.Check(ctx, "missing", 0); !errors.Is(err, util.ErrQuestionNotFound) {
		t.Errorf("missing question err = %v", err)
	}
}
