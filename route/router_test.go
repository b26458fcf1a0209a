package route

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"sid-assistant/config"
	"sid-assistant/dao"
	"sid-assistant/model"
	"sid-assistant/service"
	"sid-assistant/service/assistant"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	kb, err := config.LoadKnowledgeBase("")
	if err != nil {
		t.Fatal(err)
	}
	steps, err := config.LoadStepTable("")
	if err != nil {
		t.Fatal(err)
	}
	intents, err := config.LoadIntentConfig("")
	if err != nil {
		t.Fatal(err)
	}
	engine, err := assistant.NewEngine(kb, steps, intents, assistant.WithRandom(func() float64 { return 0 }))
	if err != nil {
		t.Fatal(err)
	}

	r := gin.New()
	Register(r, service.NewChatService(engine, dao.NewMemoryStore(), nil))
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := do(t, newTestRouter(t), http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("unexpected health response %d %s", w.Code, w.Body.String())
	}
}

func TestChatEndpoint(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name string
		body any
		code int
	}{
		{"pricing question", model.ChatRequest{Message: "Combien ça coûte ?", Step: "businessInfo", Profile: model.UserProfile{TechLevel: model.TechBeginner}}, http.StatusOK},
		{"missing step", model.ChatRequest{Message: "Combien ça coûte ?", Profile: model.UserProfile{TechLevel: model.TechBeginner}}, http.StatusBadRequest},
		{"invalid tech level", model.ChatRequest{Message: "hello", Step: "template", Profile: model.UserProfile{TechLevel: "guru"}}, http.StatusUnprocessableEntity},
		{"malformed json", "{", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/chat", tt.body)
			if w.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, w.Code, w.Body.String())
			}
		})
	}
}

func TestChatSessionLifecycle(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/chat", model.ChatRequest{
		Message: "Combien ça coûte ?",
		Step:    "businessInfo",
		Profile: model.UserProfile{TechLevel: model.TechBeginner},
	})
	var resp model.ChatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.SessionID == "" || !strings.Contains(resp.Reply, "299€") {
		t.Fatalf("unexpected chat response: %+v", resp)
	}

	w = do(t, r, http.MethodGet, "/chat/sessions/"+resp.SessionID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get session: %d %s", w.Code, w.Body.String())
	}

	w = do(t, r, http.MethodPost, "/tickets", model.CreateTicketRequest{SessionID: resp.SessionID, Description: "Besoin d'aide pour publier"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create ticket: %d %s", w.Code, w.Body.String())
	}
	var ticket model.Ticket
	if err := json.Unmarshal(w.Body.Bytes(), &ticket); err != nil {
		t.Fatal(err)
	}
	if w = do(t, r, http.MethodGet, "/tickets/"+ticket.ID, nil); w.Code != http.StatusOK {
		t.Errorf("get ticket: %d", w.Code)
	}

	if w = do(t, r, http.MethodDelete, "/chat/sessions/"+resp.SessionID, nil); w.Code != http.StatusNoContent {
		t.Errorf("reset session: %d", w.Code)
	}
	if w = do(t, r, http.MethodGet, "/chat/sessions/"+resp.SessionID, nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after reset, got %d", w.Code)
	}
}

func TestTicketErrors(t *testing.T) {
	r := newTestRouter(t)
	if w := do(t, r, http.MethodPost, "/tickets", map[string]string{"user_id": "u1"}); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without description, got %d", w.Code)
	}
	if w := do(t, r, http.MethodGet, "/tickets/unknown", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestAnswerEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/chat/answer", model.AnswerRequest{
		Question: "Quelle est la météo ?",
		Profile:  model.UserProfile{TechLevel: model.TechExpert},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", w.Code, w.Body.String())
	}
	var resp model.AnswerResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Answer == nil || !resp.Answer.Fallback || resp.Answer.Confidence != assistant.FallbackConfidence {
		t.Errorf("expected expert fallback, got %+v", resp.Answer)
	}

	w = do(t, r, http.MethodPost, "/chat/answer", model.AnswerRequest{Question: "Combien ?"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 without tech level, got %d", w.Code)
	}
}

func TestIntentsAndGreeting(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/chat/intents", model.IntentRecognitionRequest{Message: "Combien ça coûte ?"})
	var intents model.IntentRecognitionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &intents); err != nil {
		t.Fatal(err)
	}
	if len(intents.Intents) != 1 || intents.Intents[0] != model.TopicPricing {
		t.Errorf("expected [pricing], got %v", intents.Intents)
	}

	if w = do(t, r, http.MethodGet, "/chat/steps/template/greeting", nil); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "design") {
		t.Errorf("unexpected greeting response %d %s", w.Code, w.Body.String())
	}
	if w = do(t, r, http.MethodGet, "/chat/steps/unknown/greeting", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown step, got %d", w.Code)
	}
}

func TestAssistantDisabled(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodPost, "/chat/assistant", model.AssistantRequest{Question: "Combien ?"})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}
