package dao

import (
	"context"
	"fmt"
	"sync"

	"sid-assistant/model"
)

// MemoryStore keeps sessions and tickets in process memory. Sessions do not
// expire. Used when no Redis address is configured, and in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]model.Session
	tickets  map[string]model.Ticket
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]model.Session),
		tickets:  make(map[string]model.Ticket),
	}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: sessionID is empty", ErrInvalidParam)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return cloneSession(session), nil
}

func (s *MemoryStore) Save(_ context.Context, session *model.Session) error {
	if err := validateSession(session); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *cloneSession(*session)
	return nil
}

// SaveWithOptimisticLock merges with the stored session under the write
// lock, so it never needs to retry.
func (s *MemoryStore) SaveWithOptimisticLock(_ context.Context, session *model.Session, maxRetries int) error {
	if err := validateSession(session); err != nil {
		return err
	}
	if maxRetries < 0 {
		return fmt.Errorf("%w: maxRetries cannot be negative", ErrInvalidParam)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sessions[session.ID]
	if !ok {
		s.sessions[session.ID] = *cloneSession(*session)
		return nil
	}
	merged := mergeSessions(current, *cloneSession(*session))
	merged.UpdatedAt = Now()
	s.sessions[session.ID] = merged
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: sessionID is empty", ErrInvalidParam)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *MemoryStore) SaveTicket(_ context.Context, ticket *model.Ticket) error {
	if err := validateTicket(ticket); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[ticket.ID] = *ticket
	return nil
}

func (s *MemoryStore) GetTicket(_ context.Context, ticketID string) (*model.Ticket, error) {
	if ticketID == "" {
		return nil, fmt.Errorf("%w: ticketID is empty", ErrInvalidParam)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ticket, ok := s.tickets[ticketID]
	if !ok {
		return nil, fmt.Errorf("%w: ticket %s", ErrNotFound, ticketID)
	}
	return &ticket, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

func cloneSession(s model.Session) *model.Session {
	s.Messages = append([]model.Message(nil), s.Messages...)
	s.Profile.PreviousQuestions = append([]string(nil), s.Profile.PreviousQuestions...)
	return &s
}
