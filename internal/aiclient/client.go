// Package aiclient wraps the OpenAI chat completion API for the optional
// free-form assistant.
package aiclient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"sid-assistant/model"
)

var ErrNoChoices = errors.New("no choices returned")

const (
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 400
)

// chatCompleter is the part of *openai.Client the assistant needs.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Client struct {
	chat      chatCompleter
	model     string
	maxTokens int
}

func NewClient(apiKey, modelName string, maxTokens int) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key is empty")
	}
	if modelName == "" {
		modelName = defaultModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Client{
		chat:      openai.NewClient(apiKey),
		model:     modelName,
		maxTokens: maxTokens,
	}, nil
}

func (c *Client) Model() string {
	return c.model
}

// Ask sends the system prompt, the conversation so far and the new question,
// and returns the first choice.
func (c *Client) Ask(ctx context.Context, system string, history []model.Message, question string) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	if system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == model.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: question})

	resp, err := c.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		MaxTokens:   c.maxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
