package aiclient

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"sid-assistant/model"
)

type mockChat struct {
	resp openai.ChatCompletionResponse
	err  error
	req  openai.ChatCompletionRequest
}

func (m *mockChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.req = req
	return m.resp, m.err
}

func TestAsk_Success(t *testing.T) {
	mock := &mockChat{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "  Bonjour !  "}}},
	}}
	c := &Client{chat: mock, model: "test-model", maxTokens: 100}

	history := []model.Message{
		{Role: model.RoleUser, Content: "salut"},
		{Role: model.RoleAssistant, Content: "hello"},
	}
	out, err := c.Ask(context.Background(), "system", history, "ça va ?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Bonjour !" {
		t.Errorf("expected trimmed reply, got %q", out)
	}

	msgs := mock.req.Messages
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}
	wantRoles := []string{openai.ChatMessageRoleSystem, openai.ChatMessageRoleUser, openai.ChatMessageRoleAssistant, openai.ChatMessageRoleUser}
	for i, r := range wantRoles {
		if msgs[i].Role != r {
			t.Errorf("message %d role = %s, want %s", i, msgs[i].Role, r)
		}
	}
	if mock.req.Model != "test-model" || mock.req.MaxTokens != 100 {
		t.Errorf("unexpected request settings: %s %d", mock.req.Model, mock.req.MaxTokens)
	}
}

func TestAsk_ServiceError(t *testing.T) {
	c := &Client{chat: &mockChat{err: errors.New("service failure")}}
	_, err := c.Ask(context.Background(), "", nil, "q")
	if err == nil || !strings.Contains(err.Error(), "service failure") {
		t.Errorf("expected service failure error, got %v", err)
	}
}

func TestAsk_NoChoices(t *testing.T) {
	c := &Client{chat: &mockChat{}}
	_, err := c.Ask(context.Background(), "", nil, "q")
	if !errors.Is(err, ErrNoChoices) {
		t.Errorf("expected ErrNoChoices, got %v", err)
	}
}

func TestNewClient(t *testing.T) {
	if _, err := NewClient("", "", 0); err == nil {
		t.Error("expected error without api key")
	}
	c, err := NewClient("sk-test", "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if c.Model() != defaultModel || c.maxTokens != defaultMaxTokens {
		t.Errorf("unexpected defaults: %s %d", c.Model(), c.maxTokens)
	}
}
