package dao

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"sid-assistant/model"
)

// 定义错误类型
var (
	ErrMaxRetries     = errors.New("max retries exceeded")
	ErrInvalidSession = errors.New("invalid session")
	ErrInvalidParam   = errors.New("invalid parameter")
	ErrNotFound       = errors.New("not found")
)

// SessionStore persists chat sessions and the support tickets raised from them.
// Get returns (nil, nil) for an unknown session; GetTicket returns ErrNotFound.
// SaveWithOptimisticLock merges into the stored session, so writers that
// loaded the same version all keep their messages.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*model.Session, error)
	Save(ctx context.Context, session *model.Session) error
	SaveWithOptimisticLock(ctx context.Context, session *model.Session, maxRetries int) error
	Delete(ctx context.Context, sessionID string) error
	SaveTicket(ctx context.Context, ticket *model.Ticket) error
	GetTicket(ctx context.Context, ticketID string) (*model.Ticket, error)
	Ping(ctx context.Context) error
	Close() error
}

// validateSession 验证session参数
func validateSession(session *model.Session) error {
	if session == nil {
		return fmt.Errorf("%w: session is nil", ErrInvalidSession)
	}
	if session.ID == "" {
		return fmt.Errorf("%w: session.ID is empty", ErrInvalidSession)
	}
	return nil
}

func validateTicket(ticket *model.Ticket) error {
	if ticket == nil || ticket.ID == "" {
		return fmt.Errorf("%w: ticket or ticket.ID is empty", ErrInvalidParam)
	}
	return nil
}

// shouldRetry 判断错误是否应该重试
func shouldRetry(err error, retryable ...error) bool {
	if err == nil {
		return false
	}
	for _, r := range retryable {
		if errors.Is(err, r) {
			return true
		}
	}
	return false
}

// mergeSessions 合并两个session，保持消息顺序和状态一致性
func mergeSessions(current, incoming model.Session) model.Session {
	merged := current

	// 1. 合并消息：按时间顺序合并，保持对话上下文
	merged.Messages = mergeMessages(current.Messages, incoming.Messages)

	// 2. 状态只前进不后退
	if isStateMoreAdvanced(incoming.State, current.State) {
		merged.State = incoming.State
	}

	// 3. 向导步骤和画像以新数据为准
	if incoming.Step != "" {
		merged.Step = incoming.Step
	}
	if incoming.Profile.TechLevel != "" {
		merged.Profile = incoming.Profile
	}
	if incoming.TicketID != "" {
		merged.TicketID = incoming.TicketID
	}
	if merged.UserID == "" {
		merged.UserID = incoming.UserID
	}

	return merged
}

// mergeMessages 按时间顺序合并消息并去重
func mergeMessages(current, incoming []model.Message) []model.Message {
	seen := make(map[string]bool, len(current)+len(incoming))
	result := make([]model.Message, 0, len(current)+len(incoming))

	for _, list := range [][]model.Message{current, incoming} {
		for _, msg := range list {
			id := messageID(msg)
			if seen[id] {
				continue
			}
			seen[id] = true
			result = append(result, msg)
		}
	}

	// 稳定排序，同一时间戳的消息保持原有顺序（用户消息在回复之前）
	sort.SliceStable(result, func(i, j int) bool {
		return isTimestampNewer(result[j].Timestamp, result[i].Timestamp)
	})
	return result
}

// messageID 使用Role+Content+Timestamp作为唯一标识符
func messageID(msg model.Message) string {
	return fmt.Sprintf("%s:%s:%s", msg.Role, msg.Content, msg.Timestamp)
}

// isTimestampNewer 安全比较时间戳，返回a是否比b更新
func isTimestampNewer(a, b string) bool {
	timeA, errA := time.Parse(time.RFC3339Nano, a)
	timeB, errB := time.Parse(time.RFC3339Nano, b)
	if errA == nil && errB == nil {
		return timeA.After(timeB)
	}
	// 解析失败时回退到字符串比较
	return a > b
}

var stateOrder = map[model.SessionState]int{
	model.SessionNew:       0,
	model.SessionActive:    1,
	model.SessionEscalated: 2,
}

// isStateMoreAdvanced 返回a是否比b更"高级"；未知状态不替换
func isStateMoreAdvanced(a, b model.SessionState) bool {
	orderA, okA := stateOrder[a]
	orderB, okB := stateOrder[b]
	if !okA || !okB {
		return false
	}
	return orderA > orderB
}

// Now is the timestamp format used for sessions, messages and tickets.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
