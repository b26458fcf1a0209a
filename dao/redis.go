package dao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"sid-assistant/model"
)

const (
	sessionKeyPrefix = "sid-assistant:session:"
	ticketKeyPrefix  = "sid-assistant:ticket:"
	defaultTTL       = 24 * time.Hour
)

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects lazily; call Ping to check the server. A zero ttl
// means 24h.
func NewRedisStore(addr, password string, db int, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: sessionID is empty", ErrInvalidParam)
	}

	data, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *RedisStore) Save(ctx context.Context, session *model.Session) error {
	if err := validateSession(session); err != nil {
		return err
	}
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKeyPrefix+session.ID, data, s.ttl).Err()
}

// SaveWithOptimisticLock 使用乐观锁保存session，防止并发覆盖写。
// 已存在的session会与传入的session合并后再写回；WATCH失败时重新读取并合并。
func (s *RedisStore) SaveWithOptimisticLock(ctx context.Context, session *model.Session, maxRetries int) error {
	if err := validateSession(session); err != nil {
		return err
	}
	if maxRetries < 0 {
		return fmt.Errorf("%w: maxRetries cannot be negative", ErrInvalidParam)
	}

	key := sessionKeyPrefix + session.ID

	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			currentData, err := tx.Get(ctx, key).Bytes()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}

			toSave := *session
			if err == nil {
				var current model.Session
				if err := json.Unmarshal(currentData, &current); err != nil {
					return err
				}
				// 基于旧版本的写入也合并，避免丢失并发写入的消息
				toSave = mergeSessions(current, *session)
				toSave.UpdatedAt = Now()
			}

			data, err := json.Marshal(toSave)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, s.ttl)
				return nil
			})
			return err
		}, key)

		if !shouldRetry(err, redis.TxFailedErr) {
			return err
		}
		lastErr = err

		if i < maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Millisecond * time.Duration(10*(i+1))):
			}
		}
	}

	return fmt.Errorf("%w for session %s: %v", ErrMaxRetries, session.ID, lastErr)
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: sessionID is empty", ErrInvalidParam)
	}
	return s.client.Del(ctx, sessionKeyPrefix+sessionID).Err()
}

// SaveTicket stores a ticket with no expiry.
func (s *RedisStore) SaveTicket(ctx context.Context, ticket *model.Ticket) error {
	if err := validateTicket(ticket); err != nil {
		return err
	}
	data, err := json.Marshal(ticket)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, ticketKeyPrefix+ticket.ID, data, 0).Err()
}

func (s *RedisStore) GetTicket(ctx context.Context, ticketID string) (*model.Ticket, error) {
	if ticketID == "" {
		return nil, fmt.Errorf("%w: ticketID is empty", ErrInvalidParam)
	}

	data, err := s.client.Get(ctx, ticketKeyPrefix+ticketID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: ticket %s", ErrNotFound, ticketID)
	}
	if err != nil {
		return nil, err
	}

	var ticket model.Ticket
	if err := json.Unmarshal(data, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
