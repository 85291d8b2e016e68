package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"exam_portal_backend/internal/config"
	"exam_portal_backend/pkg/kvstore"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestApp(t *testing.T, tweaks ...func(*config.Config)) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := kvstore.NewInMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	cfg := config.Default()
	cfg.JWT.Secret = "router-test-secret"
	cfg.Storage.LocalPath = t.TempDir()
	cfg.Auth.AdminEmails = []string{"admin@examportal.com"}
	for _, tweak := range tweaks {
		tweak(cfg)
	}

	a := New(cfg, store)
	t.Cleanup(a.Close)
	return a
}

func (a *App) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	contentType := "application/json"
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
		contentType = "text/plain"
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code, env
}

func (a *App) register(t *testing.T, email string) string {
	t.Helper()
	code, env := a.do(t, http.MethodPost, "/api/register", "", gin.H{
		"name": "Test", "email": email, "password": "secret",
	})
	if code != http.StatusCreated {
		t.Fatalf("register %s: status %d (%s)", email, code, env.Message)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		t.Fatalf("register %s: no token in %s", email, env.Data)
	}
	return data.Token
}

func TestHealth(t *testing.T) {
	a := newTestApp(t)
	if code, _ := a.do(t, http.MethodGet, "/api/health", "", nil); code != http.StatusOK {
		t.Fatalf("health: status %d", code)
	}
}

func TestRegisterLoginMe(t *testing.T) {
	a := newTestApp(t)
	token := a.register(t, "student@example.com")

	code, env := a.do(t, http.MethodGet, "/api/me", token, nil)
	if code != http.StatusOK {
		t.Fatalf("me: status %d", code)
	}
	var me struct {
		User struct {
			Status string `json:"status"`
			Role   string `json:"role"`
		} `json:"user"`
		HasAccess bool `json:"hasAccess"`
	}
	if err := json.Unmarshal(env.Data, &me); err != nil {
		t.Fatal(err)
	}
	if me.User.Status != "trial" || me.User.Role != "student" || !me.HasAccess {
		t.Errorf("me = %+v", me)
	}

	if code, _ := a.do(t, http.MethodPost, "/api/register", "", gin.H{
		"name": "Again", "email": "student@example.com", "password": "x",
	}); code != http.StatusConflict {
		t.Errorf("duplicate register: status %d, want 409", code)
	}

	if code, _ := a.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "student@example.com"}); code != http.StatusOK {
		t.Errorf("login: status %d", code)
	}
	if code, _ := a.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "nobody@example.com"}); code != http.StatusNotFound {
		t.Errorf("login unknown: status %d, want 404", code)
	}
}

func TestProtectedRoutes(t *testing.T) {
	a := newTestApp(t)
	student := a.register(t, "s@example.com")
	admin := a.register(t, "admin@examportal.com")

	tests := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{"no token", "/api/me", "", http.StatusUnauthorized},
		{"bad token", "/api/me", "garbage", http.StatusUnauthorized},
		{"student on admin", "/api/admin/stats", student, http.StatusForbidden},
		{"admin on admin", "/api/admin/stats", admin, http.StatusOK},
		{"public subjects", "/api/subjects", "", http.StatusOK},
		{"unknown subject", "/api/subjects/9/exams", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, _ := a.do(t, http.MethodGet, tt.path, tt.token, nil); code != tt.want {
				t.Errorf("GET %s: status %d, want %d", tt.path, code, tt.want)
			}
		})
	}
}

func TestExpiredTrialIsGated(t *testing.T) {
	a := newTestApp(t)
	token := a.register(t, "late@example.com")

	if code, _ := a.do(t, http.MethodGet, "/api/practice/1/questions", token, nil); code != http.StatusOK {
		t.Fatalf("practice during trial: status %d", code)
	}

	a.services.entitlement.Now = func() time.Time { return time.Now().Add(72 * time.Hour) }

	code, env := a.do(t, http.MethodGet, "/api/practice/1/questions", token, nil)
	if code != http.StatusForbidden {
		t.Fatalf("practice after trial: status %d, want 403", code)
	}
	if !strings.Contains(env.Message, "expired") {
		t.Errorf("message = %q", env.Message)
	}
	// account pages stay reachable so the student can pay
	if code, _ := a.do(t, http.MethodGet, "/api/me/progress", token, nil); code != http.StatusOK {
		t.Errorf("progress after trial: status %d", code)
	}
}

func TestImportTakeAndReviewExam(t *testing.T) {
	a := newTestApp(t)
	admin := a.register(t, "admin@examportal.com")
	student := a.register(t, "taker@example.com")

	bulk := strings.Join([]string{
		"Mathematics|Algebra|medium|1+1?|1|2|3|4|2|Basic sum",
		"Mathematics|Algebra|medium|2+2?|2|4|6|8|2",
		"Astrology|Stars|easy|?|a|b|c|d",
	}, "\n")
	code, env := a.do(t, http.MethodPost, "/api/admin/questions/bulk", admin, bulk)
	if code != http.StatusOK {
		t.Fatalf("bulk import: status %d (%s)", code, env.Message)
	}
	var report struct {
		Added   int `json:"added"`
		Skipped int `json:"skipped"`
	}
	json.Unmarshal(env.Data, &report)
	if report.Added != 2 || report.Skipped != 1 {
		t.Fatalf("report = %+v", report)
	}

	code, env = a.do(t, http.MethodPost, "/api/exams/1-exam-1/start", student, nil)
	if code != http.StatusCreated {
		t.Fatalf("start: status %d (%s)", code, env.Message)
	}
	var view struct {
		ID            string `json:"id"`
		Total         int    `json:"total"`
		TimeRemaining int    `json:"timeRemaining"`
	}
	json.Unmarshal(env.Data, &view)
	if view.Total != 2 || view.TimeRemaining != 90*60 {
		t.Fatalf("view = %+v", view)
	}

	base := "/api/sessions/" + view.ID
	if code, _ := a.do(t, http.MethodPost, base+"/answer", student, gin.H{"option": 1}); code != http.StatusOK {
		t.Fatalf("answer: status %d", code)
	}
	if code, _ := a.do(t, http.MethodPost, base+"/answer", student, gin.H{"option": 7}); code != http.StatusBadRequest {
		t.Errorf("answer out of range: status %d, want 400", code)
	}
	if code, _ := a.do(t, http.MethodPost, base+"/answer", admin, gin.H{"option": 1}); code != http.StatusNotFound {
		t.Errorf("answer on foreign session: status %d, want 404", code)
	}

	code, env = a.do(t, http.MethodGet, base+"/submit-prompt", student, nil)
	if code != http.StatusOK {
		t.Fatalf("prompt: status %d", code)
	}
	var prompt struct {
		Unanswered   int  `json:"unanswered"`
		NeedsConfirm bool `json:"needsConfirm"`
	}
	json.Unmarshal(env.Data, &prompt)
	if prompt.Unanswered != 1 || !prompt.NeedsConfirm {
		t.Errorf("prompt = %+v", prompt)
	}

	code, env = a.do(t, http.MethodPost, base+"/submit", student, nil)
	if code != http.StatusOK {
		t.Fatalf("submit: status %d (%s)", code, env.Message)
	}
	var res struct {
		Result struct {
			Score       int `json:"score"`
			TotalPoints int `json:"totalPoints"`
			Percentage  int `json:"percentage"`
		} `json:"result"`
	}
	json.Unmarshal(env.Data, &res)
	if res.Result.Score != 10 || res.Result.TotalPoints != 20 || res.Result.Percentage != 50 {
		t.Errorf("result = %+v", res.Result)
	}

	if code, _ := a.do(t, http.MethodPost, base+"/submit", student, nil); code == http.StatusOK {
		t.Error("second submit succeeded")
	}
	if code, _ := a.do(t, http.MethodGet, "/api/attempts/"+view.ID+"/result", student, nil); code != http.StatusOK {
		t.Errorf("review: status %d", code)
	}
	if code, _ := a.do(t, http.MethodGet, "/api/attempts/"+view.ID+"/result", admin, nil); code != http.StatusNotFound {
		t.Errorf("review by another user: status %d, want 404", code)
	}
}

type streamEvent struct {
	Type          string `json:"type"`
	TimeRemaining int    `json:"timeRemaining"`
	TimedOut      bool   `json:"timedOut"`
}

func readUntil(t *testing.T, conn *websocket.Conn, typ string) streamEvent {
	t.Helper()
	for {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var ev streamEvent
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("waiting for %q event: %v", typ, err)
		}
		if ev.Type == typ {
			return ev
		}
	}
}

func TestSessionStream(t *testing.T) {
	a := newTestApp(t, func(c *config.Config) { c.Session.TickInterval = 10 * time.Millisecond })
	admin := a.register(t, "admin@examportal.com")
	student := a.register(t, "watcher@example.com")

	bulk := "Mathematics|Algebra|medium|1+1?|1|2|3|4|2"
	if code, env := a.do(t, http.MethodPost, "/api/admin/questions/bulk", admin, bulk); code != http.StatusOK {
		t.Fatalf("bulk import: status %d (%s)", code, env.Message)
	}
	code, env := a.do(t, http.MethodPost, "/api/exams/1-exam-1/start", student, nil)
	if code != http.StatusCreated {
		t.Fatalf("start: status %d (%s)", code, env.Message)
	}
	var view struct {
		ID string `json:"id"`
	}
	json.Unmarshal(env.Data, &view)

	srv := httptest.NewServer(a.Router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/" + view.ID + "/stream?token=" + student
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial: %v (status %d)", err, status)
	}
	defer conn.Close()

	if tick := readUntil(t, conn, "tick"); tick.TimeRemaining <= 0 || tick.TimeRemaining > 90*60 {
		t.Errorf("tick remaining = %d", tick.TimeRemaining)
	}

	if code, env := a.do(t, http.MethodPost, "/api/sessions/"+view.ID+"/submit", student, nil); code != http.StatusOK {
		t.Fatalf("submit: status %d (%s)", code, env.Message)
	}
	if done := readUntil(t, conn, "submitted"); done.TimedOut {
		t.Error("manual submit reported as timed out")
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("after terminal event: err = %v, want normal close", err)
	}
}

func TestSessionStreamRejectsForeignSession(t *testing.T) {
	a := newTestApp(t)
	admin := a.register(t, "admin@examportal.com")
	owner := a.register(t, "owner@example.com")
	other := a.register(t, "other@example.com")

	a.do(t, http.MethodPost, "/api/admin/questions/bulk", admin, "Mathematics|Algebra|medium|1+1?|1|2|3|4|2")
	_, env := a.do(t, http.MethodPost, "/api/exams/1-exam-1/start", owner, nil)
	var view struct {
		ID string `json:"id"`
	}
	json.Unmarshal(env.Data, &view)

	srv := httptest.NewServer(a.Router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/" + view.ID + "/stream?token=" + other
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("dial succeeded for another user's session")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("resp = %v, want 404", resp)
	}
}
