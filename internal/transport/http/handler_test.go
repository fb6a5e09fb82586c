package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"daily-trivia-service/internal/app"
	"daily-trivia-service/internal/domain"
	"daily-trivia-service/internal/infra/memory"
	"daily-trivia-service/internal/store"
	"github.com/gorilla/websocket"
)

type fixedSupplier struct{}

func (fixedSupplier) Prepare(_ context.Context, _, _ string) (domain.QuestionSet, error) {
	set := domain.QuestionSet{}
	for i := 0; i < 10; i++ {
		set.Active = append(set.Active, domain.Question{
			Text:    fmt.Sprintf("question %d", i),
			Answer:  fmt.Sprintf("answer %d", i),
			Options: []string{fmt.Sprintf("answer %d", i), "wrong"},
		})
	}
	return set, nil
}

// slowSupplier stands in for a provider round-trip; it honors cancellation
// the way an outbound HTTP call would.
type slowSupplier struct {
	delay time.Duration
}

func (s slowSupplier) Prepare(ctx context.Context, p, c string) (domain.QuestionSet, error) {
	select {
	case <-ctx.Done():
		return domain.QuestionSet{}, ctx.Err()
	case <-time.After(s.delay):
	}
	return fixedSupplier{}.Prepare(ctx, p, c)
}

type emptyLister struct{}

func (emptyLister) ForDay(_ context.Context, _ string) ([]domain.CompletionRecord, error) {
	return nil, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *app.Engine) {
	server, engine, _ := newTestServerWith(t, fixedSupplier{})
	return server, engine
}

func newTestServerWith(t *testing.T, supplier app.SetSource) (*httptest.Server, *app.Engine, *store.DualTier[domain.QuestionSet]) {
	t.Helper()
	days, err := domain.NewDayClock("09:00", "UTC")
	if err != nil {
		t.Fatalf("day clock: %v", err)
	}
	sessions := store.New[domain.QuizSession]("active-session",
		store.WithVolatile[domain.QuizSession](memory.NewTier()))
	sets := store.New[domain.QuestionSet]("question-set",
		store.WithVolatile[domain.QuestionSet](memory.NewTier()))
	completionStore := store.New[domain.CompletionRecord]("completion",
		store.WithVolatile[domain.CompletionRecord](memory.NewTier()))
	completions := app.NewCompletionService(completionStore, days, 25*time.Hour)

	cfg := app.DefaultConfig()
	cfg.TickInterval = time.Hour
	engine := app.NewEngine(cfg, sessions, sets, supplier, completions, memory.NewTier(), nil, nil)
	reset := app.NewResetCoordinator(memory.NewTier(), emptyLister{}, days, 48*time.Hour)

	mux := http.NewServeMux()
	NewHandler(engine, reset).Register(mux)
	mux.HandleFunc("/ws", NewWSFeed(engine).ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, engine, sets
}

func post(t *testing.T, url string, body interface{}) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	raw, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()
	var parsed map[string]json.RawMessage
	_ = json.NewDecoder(resp.Body).Decode(&parsed)
	return resp, parsed
}

func TestStartAndAnswerOverHTTP(t *testing.T) {
	server, _ := newTestServer(t)
	req := map[string]string{"participantId": "u1", "communityId": "g1"}

	resp, body := post(t, server.URL+"/session/start", req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start status %d", resp.StatusCode)
	}
	var sess domain.QuizSession
	if err := json.Unmarshal(body["session"], &sess); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if sess.Stage != domain.StageQuestion {
		t.Fatalf("expected question stage, got %s", sess.Stage)
	}

	answer := map[string]string{"participantId": "u1", "communityId": "g1", "selected": "answer 0"}
	resp, body = post(t, server.URL+"/session/answer", answer)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("answer status %d", resp.StatusCode)
	}
	_ = json.Unmarshal(body["session"], &sess)
	if sess.Score != 1 || sess.Index != 1 {
		t.Fatalf("expected score 1 index 1, got %+v", sess)
	}
}

func TestConflictMessagesOverHTTP(t *testing.T) {
	server, _ := newTestServer(t)
	req := map[string]string{"participantId": "u1", "communityId": "g1"}

	if resp, _ := post(t, server.URL+"/session/start", req); resp.StatusCode != http.StatusOK {
		t.Fatalf("first start failed: %d", resp.StatusCode)
	}
	resp, body := post(t, server.URL+"/session/start", req)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for second start, got %d", resp.StatusCode)
	}
	var msg string
	_ = json.Unmarshal(body["message"], &msg)
	if msg != "you already have a quiz in progress" {
		t.Fatalf("unexpected conflict message %q", msg)
	}

	// Continue during a question stage is a rejected transition.
	resp, _ = post(t, server.URL+"/session/continue", req)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for bad transition, got %d", resp.StatusCode)
	}
}

func TestStatusRequiresKnownSession(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/session/status?participantId=u9&communityId=g9")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestWarmOutlivesRequest(t *testing.T) {
	server, _, sets := newTestServerWith(t, slowSupplier{delay: 150 * time.Millisecond})
	req := map[string]string{"participantId": "u1", "communityId": "g1"}

	// The 202 returns while the provider fetch is still in flight; the
	// request context cancelling must not abort it.
	resp, _ := post(t, server.URL+"/session/warm", req)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("warm status %d", resp.StatusCode)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		set, ok, err := sets.Read(context.Background(), "u1:g1")
		if err != nil {
			t.Fatalf("set cache read: %v", err)
		}
		if ok {
			if len(set.Active) != 10 {
				t.Fatalf("expected 10 warmed questions, got %d", len(set.Active))
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("warmed set never reached the cache")
}

func TestWebSocketReceivesTransitions(t *testing.T) {
	server, engine := newTestServer(t)
	ctx := context.Background()

	if _, err := engine.Start(ctx, "u1", "g1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	u := "ws" + server.URL[len("http"):] + "/ws?participantId=u1&communityId=g1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := engine.Answer(ctx, "u1", "g1", "answer 0"); err != nil {
		t.Fatalf("answer: %v", err)
	}

	var msg struct {
		Type    string    `json:"type"`
		Payload app.Event `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if msg.Type != "continuation" {
		t.Fatalf("expected continuation event, got %s", msg.Type)
	}
	if msg.Payload.Session.Index != 1 {
		t.Fatalf("expected advanced session, got index %d", msg.Payload.Session.Index)
	}
}
