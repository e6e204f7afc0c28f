package core

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

const (
	sessionKeyActive = "active_session"
	sessionKeyPrefix = "session_"
)

type MemorySessionStore struct {
	mu       sync.RWMutex
	active   *Session
	sessions map[int64]Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: map[int64]Session{},
	}
}

func (s *MemorySessionStore) ActiveSession(context.Context) (Session, bool, error) {
	if s == nil {
		return Session{}, false, fmt.Errorf("core: session store is not configured")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return Session{}, false, nil
	}
	return *s.active, true, nil
}

func (s *MemorySessionStore) Sessions(context.Context) (map[int64]Session, error) {
	if s == nil {
		return nil, fmt.Errorf("core: session store is not configured")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]Session, len(s.sessions))
	for id, session := range s.sessions {
		out[id] = session
	}
	return out, nil
}

func (s *MemorySessionStore) Session(_ context.Context, id int64) (Session, bool, error) {
	if s == nil {
		return Session{}, false, fmt.Errorf("core: session store is not configured")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok, nil
}

func (s *MemorySessionStore) SetActiveSession(_ context.Context, session Session) error {
	if s == nil {
		return fmt.Errorf("core: session store is not configured")
	}
	if err := session.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	active := session
	s.active = &active
	s.sessions[session.ID] = session
	return nil
}

func (s *MemorySessionStore) SetSession(_ context.Context, session Session) error {
	if s == nil {
		return fmt.Errorf("core: session store is not configured")
	}
	if err := session.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	if s.active != nil && s.active.ID == session.ID {
		active := session
		s.active = &active
	}
	return nil
}

func (s *MemorySessionStore) ClearActiveSession(context.Context) error {
	if s == nil {
		return fmt.Errorf("core: session store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		delete(s.sessions, s.active.ID)
		s.active = nil
	}
	return nil
}

func (s *MemorySessionStore) ClearSession(_ context.Context, id int64) error {
	if s == nil {
		return fmt.Errorf("core: session store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	if s.active != nil && s.active.ID == id {
		s.active = nil
	}
	return nil
}

// PersistedSessionStore keeps a MemorySessionStore in front of an external
// key-value store and writes every mutation through using Codec.
type PersistedSessionStore struct {
	store  KeyValueStore
	codec  SessionCodec
	cache  *MemorySessionStore
	loadMu sync.Mutex
	loaded bool
}

func NewPersistedSessionStore(store KeyValueStore, codec SessionCodec) (*PersistedSessionStore, error) {
	if store == nil {
		return nil, fmt.Errorf("core: key value store is required")
	}
	if codec == nil {
		codec = JSONSessionCodec{}
	}
	return &PersistedSessionStore{
		store: store,
		codec: codec,
		cache: NewMemorySessionStore(),
	}, nil
}

func (s *PersistedSessionStore) ActiveSession(ctx context.Context) (Session, bool, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return Session{}, false, err
	}
	return s.cache.ActiveSession(ctx)
}

func (s *PersistedSessionStore) Sessions(ctx context.Context) (map[int64]Session, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return s.cache.Sessions(ctx)
}

func (s *PersistedSessionStore) Session(ctx context.Context, id int64) (Session, bool, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return Session{}, false, err
	}
	return s.cache.Session(ctx, id)
}

func (s *PersistedSessionStore) SetActiveSession(ctx context.Context, session Session) error {
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	if err := session.Validate(); err != nil {
		return err
	}
	payload, err := s.codec.Encode(session)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, sessionKeyActive, payload); err != nil {
		return fmt.Errorf("core: persist active session: %w", err)
	}
	if err := s.store.Set(ctx, sessionKey(session.ID), payload); err != nil {
		return fmt.Errorf("core: persist session: %w", err)
	}
	return s.cache.SetActiveSession(ctx, session)
}

func (s *PersistedSessionStore) SetSession(ctx context.Context, session Session) error {
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	if err := session.Validate(); err != nil {
		return err
	}
	payload, err := s.codec.Encode(session)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, sessionKey(session.ID), payload); err != nil {
		return fmt.Errorf("core: persist session: %w", err)
	}
	if active, ok, _ := s.cache.ActiveSession(ctx); ok && active.ID == session.ID {
		if err := s.store.Set(ctx, sessionKeyActive, payload); err != nil {
			return fmt.Errorf("core: persist active session: %w", err)
		}
	}
	return s.cache.SetSession(ctx, session)
}

func (s *PersistedSessionStore) ClearActiveSession(ctx context.Context) error {
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	active, ok, err := s.cache.ActiveSession(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := s.store.Delete(ctx, sessionKeyActive); err != nil {
		return fmt.Errorf("core: delete active session: %w", err)
	}
	if err := s.store.Delete(ctx, sessionKey(active.ID)); err != nil {
		return fmt.Errorf("core: delete session: %w", err)
	}
	return s.cache.ClearActiveSession(ctx)
}

func (s *PersistedSessionStore) ClearSession(ctx context.Context, id int64) error {
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	if active, ok, _ := s.cache.ActiveSession(ctx); ok && active.ID == id {
		if err := s.store.Delete(ctx, sessionKeyActive); err != nil {
			return fmt.Errorf("core: delete active session: %w", err)
		}
	}
	if err := s.store.Delete(ctx, sessionKey(id)); err != nil {
		return fmt.Errorf("core: delete session: %w", err)
	}
	return s.cache.ClearSession(ctx, id)
}

// ensureLoaded restores the cache once. Undecodable entries are skipped so a
// single corrupt record does not hide the remaining sessions.
func (s *PersistedSessionStore) ensureLoaded(ctx context.Context) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("core: session store is not configured")
	}
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if s.loaded {
		return nil
	}

	keys, err := s.store.Keys(ctx)
	if err != nil {
		return fmt.Errorf("core: list persisted sessions: %w", err)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if _, ok := parseSessionKey(key); !ok {
			continue
		}
		session, ok := s.read(ctx, key)
		if !ok {
			continue
		}
		_ = s.cache.SetSession(ctx, session)
	}
	if active, ok := s.read(ctx, sessionKeyActive); ok {
		_ = s.cache.SetActiveSession(ctx, active)
	}
	s.loaded = true
	return nil
}

func (s *PersistedSessionStore) read(ctx context.Context, key string) (Session, bool) {
	payload, ok, err := s.store.Get(ctx, key)
	if err != nil || !ok {
		return Session{}, false
	}
	session, err := s.codec.Decode(payload)
	if err != nil {
		return Session{}, false
	}
	return session, true
}

func sessionKey(id int64) string {
	return sessionKeyPrefix + strconv.FormatInt(id, 10)
}

func parseSessionKey(key string) (int64, bool) {
	if !strings.HasPrefix(key, sessionKeyPrefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(key, sessionKeyPrefix), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

type MemoryKeyValueStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemoryKeyValueStore() *MemoryKeyValueStore {
	return &MemoryKeyValueStore{entries: map[string][]byte{}}
}

func (s *MemoryKeyValueStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (s *MemoryKeyValueStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryKeyValueStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *MemoryKeyValueStore) Keys(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

var (
	_ SessionManager = (*MemorySessionStore)(nil)
	_ SessionManager = (*PersistedSessionStore)(nil)
	_ KeyValueStore  = (*MemoryKeyValueStore)(nil)
)
