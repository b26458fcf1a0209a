package model

type SessionState string

const (
	SessionNew       SessionState = "new"
	SessionActive    SessionState = "active"
	SessionEscalated SessionState = "escalated"
)

type TicketStatus string

const (
	TicketOpen     TicketStatus = "open"
	TicketPending  TicketStatus = "pending"
	TicketResolved TicketStatus = "resolved"
	TicketClosed   TicketStatus = "closed"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatRequest struct {
	SessionID string         `json:"session_id"`
	UserID    string         `json:"user_id"`
	Message   string         `json:"message"`
	Step      string         `json:"step" binding:"required"`
	Profile   UserProfile    `json:"profile"`
	AppData   map[string]any `json:"app_data,omitempty"`
}

type ChatResponse struct {
	Reply     string       `json:"reply"`
	SessionID string       `json:"session_id"`
	Step      string       `json:"step"`
	Session   SessionState `json:"session_state,omitempty"`
}

type AnswerRequest struct {
	Question string      `json:"question"`
	Step     string      `json:"step"`
	Profile  UserProfile `json:"profile"`
}

type AnswerResponse struct {
	Intents []Topic      `json:"intents"`
	Answer  *FAQResponse `json:"answer"`
}

type IntentRecognitionRequest struct {
	Message string `json:"message"`
}

type IntentRecognitionResponse struct {
	Intents []Topic `json:"intents"`
}

type AssistantRequest struct {
	SessionID string      `json:"session_id"`
	Question  string      `json:"question" binding:"required"`
	Step      string      `json:"step"`
	Profile   UserProfile `json:"profile"`
}

type AssistantResponse struct {
	Reply     string       `json:"reply"`
	Model     string       `json:"model"`
	Grounding *FAQResponse `json:"grounding,omitempty"`
}

type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Session is the persisted conversation for one chat widget instance.
type Session struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Step      string       `json:"step"`
	Profile   UserProfile  `json:"profile"`
	State     SessionState `json:"state"`
	Messages  []Message    `json:"messages"`
	TicketID  string       `json:"ticket_id,omitempty"`
	CreatedAt string       `json:"created_at"`
	UpdatedAt string       `json:"updated_at"`
}

// PreviousQuestions returns the user's messages in the order they were sent.
func (s *Session) PreviousQuestions() []string {
	out := make([]string, 0, len(s.Messages))
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			out = append(out, m.Content)
		}
	}
	return out
}

type Ticket struct {
	ID          string       `json:"id"`
	SessionID   string       `json:"session_id"`
	UserID      string       `json:"user_id"`
	Subject     string       `json:"subject"`
	Description string       `json:"description"`
	Status      TicketStatus `json:"status"`
	CreatedAt   string       `json:"created_at"`
	UpdatedAt   string       `json:"updated_at"`
}

type CreateTicketRequest struct {
	UserID      string `json:"user_id"`
	SessionID   string `json:"session_id"`
	Description string `json:"description" binding:"required"`
}
