package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoSession is returned when a token names no live session.
var ErrNoSession = errors.New("no such session")

// Store persists session state out of process, keyed by opaque token.
type Store interface {
	Load(ctx context.Context, token string) (State, error)
	Save(ctx context.Context, token string, st State, ttl time.Duration) error
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// ---------------------------------------------------------------------------
// Postgres store
// ---------------------------------------------------------------------------

type pgStore struct{ pool *pgxpool.Pool }

// NewPGStore returns a Store backed by the sessions table.
func NewPGStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) Load(ctx context.Context, token string) (State, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM sessions WHERE token = $1 AND expires_at > NOW()`,
		token).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return State{}, ErrNoSession
	}
	if err != nil {
		return State{}, fmt.Errorf("load session: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("decode session state: %w", err)
	}
	return st, nil
}

func (s *pgStore) Save(ctx context.Context, token string, st State, ttl time.Duration) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}

	// user_id is mirrored into its own column so the FK keeps sessions
	// consistent with users and ops queries stay cheap.
	_, err = s.pool.Exec(ctx, `
		INSERT INTO sessions (token, user_id, data, expires_at)
		VALUES ($1, $2, $3, NOW() + $4)
		ON CONFLICT (token) DO UPDATE
		SET user_id = EXCLUDED.user_id, data = EXCLUDED.data, expires_at = EXCLUDED.expires_at`,
		token, st.UserID, data, ttl)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *pgStore) Delete(ctx context.Context, token string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *pgStore) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ---------------------------------------------------------------------------
// In-memory store
// ---------------------------------------------------------------------------

type memEntry struct {
	state     State
	expiresAt time.Time
}

// MemoryStore is a thread-safe in-memory Store with lazy expiration, used in
// tests and single-process development.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memEntry)}
}

func (s *MemoryStore) Load(_ context.Context, token string) (State, error) {
	s.mu.RLock()
	e, ok := s.entries[token]
	s.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		return State{}, ErrNoSession
	}
	return e.state, nil
}

func (s *MemoryStore) Save(_ context.Context, token string, st State, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = memEntry{state: st, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, token)
	return nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	now := time.Now()
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
			n++
		}
	}
	return n, nil
}
