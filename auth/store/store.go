package store

import (
	"context"
	"fmt"
	"sync"
)

// Store is the process-wide holder of the current credential and session.
// All implementations are safe for concurrent use.
type Store interface {
	// Init hydrates the store from its backend. It is called once on application start.
	Init(ctx context.Context) error
	LookupCredential() (*Credential, bool)
	SetCredential(ctx context.Context, credential *Credential) error
	LookupSession() (*Session, bool)
	SetSession(ctx context.Context, session *Session) error
	// Set replaces credential and session in one write; on error the previous
	// state is kept.
	Set(ctx context.Context, credential *Credential, session *Session) error
	// Clear removes credential and session atomically.
	Clear(ctx context.Context) error
}

// Backend is the durable storage behind a Store.
type Backend interface {
	Load(ctx context.Context) (Entries, error)
	Save(ctx context.Context, entries Entries) error
	Delete(ctx context.Context) error
}

type durableStore struct {
	mu         sync.RWMutex
	backend    Backend
	cipher     *Cipher
	credential *Credential
	session    *Session
}

// New creates a Store persisted by backend.
func New(backend Backend, options ...Option) Store {
	ret := &durableStore{backend: backend}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// NewMemoryStore creates a Store that does not survive process restarts.
func NewMemoryStore(options ...Option) Store {
	return New(NewMemoryBackend(), options...)
}

func (s *durableStore) Init(ctx context.Context) error {
	entries, err := s.backend.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load token store: %w", err)
	}
	if entries, err = s.open(entries); err != nil {
		return err
	}
	credential, session, err := entries.decode()
	if err != nil {
		return fmt.Errorf("failed to decode token store: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = credential
	s.session = session
	return nil
}

func (s *durableStore) LookupCredential() (*Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.credential == nil {
		return nil, false
	}
	return s.credential.clone(), true
}

func (s *durableStore) SetCredential(ctx context.Context, credential *Credential) error {
	if credential == nil || credential.AccessToken == "" {
		return ErrInvalidCredential
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist(ctx, credential, s.session); err != nil {
		return err
	}
	s.credential = credential.clone()
	return nil
}

func (s *durableStore) Set(ctx context.Context, credential *Credential, session *Session) error {
	if credential == nil || credential.AccessToken == "" {
		return ErrInvalidCredential
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist(ctx, credential, session); err != nil {
		return err
	}
	s.credential = credential.clone()
	s.session = session.clone()
	return nil
}

func (s *durableStore) LookupSession() (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil, false
	}
	return s.session.clone(), true
}

func (s *durableStore) SetSession(ctx context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.credential == nil {
		return fmt.Errorf("failed to set session: %w", ErrInvalidCredential)
	}
	if err := s.persist(ctx, s.credential, session); err != nil {
		return err
	}
	s.session = session.clone()
	return nil
}

func (s *durableStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = nil
	s.session = nil
	if err := s.backend.Delete(ctx); err != nil {
		return fmt.Errorf("failed to clear token store: %w", err)
	}
	return nil
}

func (s *durableStore) persist(ctx context.Context, credential *Credential, session *Session) error {
	entries, err := newEntries(credential, session)
	if err != nil {
		return fmt.Errorf("failed to encode token store: %w", err)
	}
	if entries, err = s.seal(entries); err != nil {
		return err
	}
	if err = s.backend.Save(ctx, entries); err != nil {
		return fmt.Errorf("failed to save token store: %w", err)
	}
	return nil
}

func (s *durableStore) seal(entries Entries) (Entries, error) {
	if s.cipher == nil {
		return entries, nil
	}
	ret := make(Entries, len(entries))
	for k, v := range entries {
		sealed, err := s.cipher.Seal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to seal %v: %w", k, err)
		}
		ret[k] = sealed
	}
	return ret, nil
}

func (s *durableStore) open(entries Entries) (Entries, error) {
	if s.cipher == nil || len(entries) == 0 {
		return entries, nil
	}
	ret := make(Entries, len(entries))
	for k, v := range entries {
		opened, err := s.cipher.Open(v)
		if err != nil {
			return nil, fmt.Errorf("failed to open %v: %w", k, err)
		}
		ret[k] = opened
	}
	return ret, nil
}
