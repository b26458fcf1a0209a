package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"sid-assistant/dao"
	"sid-assistant/internal/aiclient"
	"sid-assistant/model"
	"sid-assistant/service/assistant"
)

var ErrAssistantDisabled = errors.New("ai assistant is not configured")

const (
	saveRetries = 3

	// historyLimit caps the messages sent to the AI assistant.
	historyLimit     = 10
	ticketSubjectLen = 80

	assistantSystemPrompt = `Tu es l'assistant de Sid, un créateur d'applications sans code.
Réponds en français, de façon concise et bienveillante, en tutoyant l'utilisateur.
Étape actuelle de l'assistant de création : %s. Niveau technique : %s. Activité : %s.
Appuie-toi en priorité sur cette réponse de la FAQ si elle est pertinente :
%s`
)

// Asker is the AI backend used by AskAssistant.
type Asker interface {
	Ask(ctx context.Context, system string, history []model.Message, question string) (string, error)
	Model() string
}

type ChatService struct {
	engine *assistant.Engine
	store  dao.SessionStore
	ai     Asker
}

// NewChatService wires the engine to a session store. ai may be nil, which
// disables AskAssistant.
func NewChatService(engine *assistant.Engine, store dao.SessionStore, ai Asker) *ChatService {
	return &ChatService{
		engine: engine,
		store:  store,
		ai:     ai,
	}
}

// NewOpenAIAsker returns nil when no API key is configured.
func NewOpenAIAsker(apiKey, modelName string, maxTokens int) (Asker, error) {
	if apiKey == "" {
		return nil, nil
	}
	c, err := aiclient.NewClient(apiKey, modelName, maxTokens)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// HandleMessage answers one wizard chat message and records the exchange in
// the session. A missing or unknown session id starts a new session.
func (s *ChatService) HandleMessage(ctx context.Context, req model.ChatRequest) (*model.ChatResponse, error) {
	session, err := s.loadOrCreate(ctx, req.SessionID, req.UserID)
	if err != nil {
		return nil, err
	}

	if req.Profile.TechLevel != "" {
		session.Profile.TechLevel = req.Profile.TechLevel
	}
	if req.Profile.BusinessType != "" {
		session.Profile.BusinessType = req.Profile.BusinessType
	}
	session.Step = req.Step

	profile := session.Profile
	profile.PreviousQuestions = session.PreviousQuestions()
	chatCtx := model.ChatContext{
		CurrentStep: req.Step,
		UserProfile: profile,
		AppData:     req.AppData,
	}

	reply, err := s.engine.GenerateResponse(chatCtx, req.Message)
	if err != nil {
		return nil, err
	}

	now := dao.Now()
	session.Messages = append(session.Messages,
		model.Message{Role: model.RoleUser, Content: req.Message, Timestamp: now},
		model.Message{Role: model.RoleAssistant, Content: reply, Timestamp: now},
	)
	if session.State == model.SessionNew {
		session.State = model.SessionActive
	}
	session.UpdatedAt = now

	if err := s.store.SaveWithOptimisticLock(ctx, session, saveRetries); err != nil {
		log.Printf("[ChatService] save session %s failed: %v", session.ID, err)
		return nil, err
	}

	log.Printf("[ChatService] session=%s step=%s state=%s", session.ID, session.Step, session.State)
	return &model.ChatResponse{
		Reply:     reply,
		SessionID: session.ID,
		Step:      session.Step,
		Session:   session.State,
	}, nil
}

func (s *ChatService) loadOrCreate(ctx context.Context, sessionID, userID string) (*model.Session, error) {
	if sessionID != "" {
		session, err := s.store.Get(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if session != nil {
			return session, nil
		}
		log.Printf("[ChatService] session %s not found, creating it", sessionID)
	} else {
		sessionID = uuid.New().String()
	}

	now := dao.Now()
	return &model.Session{
		ID:        sessionID,
		UserID:    userID,
		State:     model.SessionNew,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// FindAnswer looks a question up in the FAQ without touching any session.
func (s *ChatService) FindAnswer(_ context.Context, req model.AnswerRequest) (*model.AnswerResponse, error) {
	res, err := s.engine.Match(req.Question, model.ChatContext{
		CurrentStep: req.Step,
		UserProfile: req.Profile,
	})
	if err != nil {
		return nil, err
	}
	return &model.AnswerResponse{Intents: res.Intents, Answer: res.Response}, nil
}

func (s *ChatService) RecognizeIntent(_ context.Context, req model.IntentRecognitionRequest) *model.IntentRecognitionResponse {
	return &model.IntentRecognitionResponse{Intents: s.engine.DetectIntents(req.Message)}
}

func (s *ChatService) Greeting(step string) (string, bool) {
	return s.engine.Greeting(step)
}

// AskAssistant answers free-form questions through the AI backend, grounded
// on the best FAQ match for the question.
func (s *ChatService) AskAssistant(ctx context.Context, req model.AssistantRequest) (*model.AssistantResponse, error) {
	if s.ai == nil {
		return nil, ErrAssistantDisabled
	}

	grounding, err := s.engine.FindBestAnswer(req.Question, model.ChatContext{
		CurrentStep: req.Step,
		UserProfile: req.Profile,
	})
	if err != nil {
		return nil, err
	}

	var history []model.Message
	if req.SessionID != "" {
		session, err := s.store.Get(ctx, req.SessionID)
		if err != nil {
			return nil, err
		}
		if session != nil {
			history = session.Messages
			if len(history) > historyLimit {
				history = history[len(history)-historyLimit:]
			}
		}
	}

	businessType := req.Profile.BusinessType
	if businessType == "" {
		businessType = "non précisée"
	}
	system := fmt.Sprintf(assistantSystemPrompt, req.Step, req.Profile.TechLevel, businessType, grounding.Answer)

	reply, err := s.ai.Ask(ctx, system, history, req.Question)
	if err != nil {
		log.Printf("[ChatService] assistant call failed: %v", err)
		return nil, err
	}

	return &model.AssistantResponse{
		Reply:     reply,
		Model:     s.ai.Model(),
		Grounding: grounding,
	}, nil
}

// CreateTicket records a support request. When it belongs to a known
// session that session is marked escalated first; the ticket is only stored
// once the escalation is saved.
func (s *ChatService) CreateTicket(ctx context.Context, userID, sessionID, description string) (*model.Ticket, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("%w: description is empty", dao.ErrInvalidParam)
	}

	now := dao.Now()
	ticket := &model.Ticket{
		ID:          uuid.New().String(),
		SessionID:   sessionID,
		UserID:      userID,
		Subject:     ticketSubject(description),
		Description: description,
		Status:      model.TicketOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if sessionID != "" {
		session, err := s.store.Get(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if session != nil {
			session.State = model.SessionEscalated
			session.TicketID = ticket.ID
			session.UpdatedAt = now
			if err := s.store.SaveWithOptimisticLock(ctx, session, saveRetries); err != nil {
				log.Printf("[ChatService] escalate session %s failed: %v", sessionID, err)
				return nil, err
			}
		}
	}

	if err := s.store.SaveTicket(ctx, ticket); err != nil {
		return nil, err
	}

	log.Printf("[ChatService] ticket %s created for session %q", ticket.ID, sessionID)
	return ticket, nil
}

func (s *ChatService) GetTicket(ctx context.Context, ticketID string) (*model.Ticket, error) {
	return s.store.GetTicket(ctx, ticketID)
}

// GetSession returns dao.ErrNotFound for an unknown id.
func (s *ChatService) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session %s", dao.ErrNotFound, sessionID)
	}
	return session, nil
}

func (s *ChatService) ResetSession(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID)
}

func (s *ChatService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ticketSubject is the first line of the description, shortened.
func ticketSubject(description string) string {
	line, _, _ := strings.Cut(description, "\n")
	r := []rune(strings.TrimSpace(line))
	if len(r) > ticketSubjectLen {
		return string(r[:ticketSubjectLen-1]) + "…"
	}
	return string(r)
}
