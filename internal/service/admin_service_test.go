package service

import (
	"context"
	"testing"

	"exam_portal_backend/internal/model"
)

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.cfg.Auth.AdminEmails = []string{"root@example.com"}
	f.register(t, "root@example.com")
	a := f.register(t, "a@example.com")
	b := f.register(t, "b@example.com")
	f.register(t, "c@example.com")
	f.addQuestions(t, "1", 4)

	f.ent.Apply(ctx, a.ID, model.SetStatus{Status: model.StatusPaid})
	f.ent.Apply(ctx, b.ID, model.SetPaymentStatus{PaymentStatus: model.PaymentApproved})
	f.cfg.Auth.PlanPrice = "99.50"

	st, err := f.admin.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalStudents != 3 || st.PaidUsers != 2 || st.ActiveTrials != 1 {
		t.Errorf("stats = %+v", st)
	}
	if st.Revenue.String() != "199" {
		t.Errorf("revenue = %s, want 199", st.Revenue)
	}
	if st.TotalQuestions != 4 {
		t.Errorf("questions = %d", st.TotalQuestions)
	}

	f.cfg.Auth.PlanPrice = "free"
	if _, err := f.admin.Stats(ctx); err == nil {
		t.Error("expected error for unparseable plan price")
	}
}
