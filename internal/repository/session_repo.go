package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"briefly/internal/model"
)

const (
	refreshKeyPrefix = "refresh:"
	sessionKeyPrefix = "session:"
	userSessionsKey  = "user_sessions:"
)

// SessionRepository keeps per-session state in redis. Each session owns two
// keys plus one membership in the per-user index set:
//
//	refresh:<sid>       JSON {hash, userId, role}, expires with the session
//	session:<sid>       hash of device metadata, same TTL
//	user_sessions:<uid> set of live session ids, same TTL
//
// Key TTL is the only expiry mechanism; there is no sweep process. The index
// set may briefly reference sessions that already expired, so readers treat
// missing records as benign.
type SessionRepository struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

type SessionMetadata struct {
	IP        string
	UserAgent string
}

func (r *SessionRepository) Create(ctx context.Context, sessionID string, userID string, role string, hashedSecret string, meta SessionMetadata, ttl time.Duration) error {
	record, err := json.Marshal(model.RefreshRecord{Hash: hashedSecret, UserID: userID, Role: role})
	if err != nil {
		return fmt.Errorf("marshal refresh record: %w", err)
	}

	// The two session keys and the index update are pipelined but not
	// transactional; the store gives no atomicity across keys.
	pipe := r.client.Pipeline()
	pipe.Set(ctx, refreshKeyPrefix+sessionID, record, ttl)
	pipe.HSet(ctx, sessionKeyPrefix+sessionID, map[string]any{
		"userId":    userID,
		"ip":        meta.IP,
		"userAgent": meta.UserAgent,
		"createdAt": strconv.FormatInt(time.Now().UTC().UnixMilli(), 10),
	})
	pipe.Expire(ctx, sessionKeyPrefix+sessionID, ttl)
	pipe.SAdd(ctx, userSessionsKey+userID, sessionID)
	pipe.Expire(ctx, userSessionsKey+userID, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create session %s: %w", sessionID, err)
	}
	return nil
}

// GetRefreshRecord returns the stored secret hash and owner for a session, or
// model.ErrSessionExpired when the key is gone.
func (r *SessionRepository) GetRefreshRecord(ctx context.Context, sessionID string) (model.RefreshRecord, error) {
	raw, err := r.client.Get(ctx, refreshKeyPrefix+sessionID).Result()
	if err == redis.Nil {
		return model.RefreshRecord{}, model.ErrSessionExpired
	}
	if err != nil {
		return model.RefreshRecord{}, fmt.Errorf("get refresh record %s: %w", sessionID, err)
	}

	var record model.RefreshRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return model.RefreshRecord{}, fmt.Errorf("decode refresh record %s: %w", sessionID, err)
	}
	return record, nil
}

// RotateSecret replaces the stored hash while keeping the remaining TTL, so
// rotation never extends the 7-day absolute session lifetime.
func (r *SessionRepository) RotateSecret(ctx context.Context, sessionID string, record model.RefreshRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal refresh record: %w", err)
	}

	if err := r.client.Set(ctx, refreshKeyPrefix+sessionID, payload, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("rotate secret %s: %w", sessionID, err)
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string, userID string) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, refreshKeyPrefix+sessionID)
	pipe.Del(ctx, sessionKeyPrefix+sessionID)
	pipe.SRem(ctx, userSessionsKey+userID, sessionID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}

// DeleteAllForUser removes every session referenced by the user's index set,
// then the set itself.
func (r *SessionRepository) DeleteAllForUser(ctx context.Context, userID string) error {
	sessionIDs, err := r.client.SMembers(ctx, userSessionsKey+userID).Result()
	if err != nil {
		return fmt.Errorf("list sessions for user %s: %w", userID, err)
	}

	pipe := r.client.Pipeline()
	for _, sid := range sessionIDs {
		pipe.Del(ctx, refreshKeyPrefix+sid)
		pipe.Del(ctx, sessionKeyPrefix+sid)
	}
	pipe.Del(ctx, userSessionsKey+userID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete all sessions for user %s: %w", userID, err)
	}
	return nil
}

// ListForUser reads every live session's metadata in one round trip.
func (r *SessionRepository) ListForUser(ctx context.Context, userID string) ([]model.SessionInfo, error) {
	sessionIDs, err := r.client.SMembers(ctx, userSessionsKey+userID).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions for user %s: %w", userID, err)
	}
	if len(sessionIDs) == 0 {
		return []model.SessionInfo{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(sessionIDs))
	for i, sid := range sessionIDs {
		cmds[i] = pipe.HGetAll(ctx, sessionKeyPrefix+sid)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("read session metadata for user %s: %w", userID, err)
	}

	sessions := make([]model.SessionInfo, 0, len(sessionIDs))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			// Expired ahead of the index; skip.
			continue
		}
		sessions = append(sessions, model.SessionInfo{
			SessionID: sessionIDs[i],
			IP:        fields["ip"],
			UserAgent: fields["userAgent"],
			CreatedAt: formatCreatedAt(fields["createdAt"]),
		})
	}
	return sessions, nil
}

func formatCreatedAt(raw string) string {
	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return raw
	}
	return time.UnixMilli(millis).UTC().Format(time.RFC3339)
}
