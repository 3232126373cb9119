package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hydrashare/backend/internal/pkg/logger"
)

// MemoryStore is an in-process Store used by tests and the "memory" backend.
// A single mutex serializes all mutations, so transactional updates never
// observe a stale snapshot.
type MemoryStore struct {
	mu     sync.RWMutex
	docs   map[string]interface{}
	closed bool

	subsMu sync.RWMutex
	subs   map[int]*memorySub
	nextID int
}

type memorySub struct {
	prefix string
	ch     chan Event
}

// NewMemoryStore creates an empty in-memory document store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]interface{}),
		subs: make(map[int]*memorySub),
	}
}

// Read decodes the value at path into dest
func (s *MemoryStore) Read(ctx context.Context, path string, dest interface{}) error {
	docKey, inner, err := splitPath(path)
	if err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	// Single-segment path: read the whole collection keyed by child id
	if docKey == "" {
		collection := collectionOf(path)
		out := make(map[string]interface{})
		for key, doc := range s.docs {
			if collectionOf(key) == collection {
				out[strings.TrimPrefix(key, collection+"/")] = doc
			}
		}
		if len(out) == 0 {
			return ErrNotFound
		}
		return decodeInto(out, dest)
	}

	doc, ok := s.docs[docKey]
	if !ok {
		return ErrNotFound
	}

	node, err := getAt(doc, inner)
	if err != nil {
		return err
	}
	return decodeInto(node, dest)
}

// Write overwrites the addressed subtree with value
func (s *MemoryStore) Write(ctx context.Context, path string, value interface{}) error {
	docKey, inner, err := splitPath(path)
	if err != nil {
		return err
	}
	if docKey == "" {
		return fmt.Errorf("path %q addresses a whole collection", path)
	}

	normalized, err := normalize(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	s.docs[docKey] = setAt(s.docs[docKey], inner, normalized)
	s.notifyLocked(docKey)
	return nil
}

// Merge applies a shallow field-level update at path
func (s *MemoryStore) Merge(ctx context.Context, path string, fields map[string]interface{}) error {
	docKey, inner, err := splitPath(path)
	if err != nil {
		return err
	}
	if docKey == "" {
		return fmt.Errorf("path %q addresses a whole collection", path)
	}

	normalized, err := normalize(fields)
	if err != nil {
		return err
	}
	normalizedFields := normalized.(map[string]interface{})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	s.docs[docKey] = mergeAt(s.docs[docKey], inner, normalizedFields)
	s.notifyLocked(docKey)
	return nil
}

// Delete removes the addressed document or inner node
func (s *MemoryStore) Delete(ctx context.Context, path string) error {
	docKey, inner, err := splitPath(path)
	if err != nil {
		return err
	}
	if docKey == "" {
		return fmt.Errorf("path %q addresses a whole collection", path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	doc, ok := s.docs[docKey]
	if !ok {
		return nil
	}
	if len(inner) == 0 {
		delete(s.docs, docKey)
	} else {
		s.docs[docKey] = deleteAt(doc, inner)
	}
	s.notifyLocked(docKey)
	return nil
}

// Append generates a fresh child key under path and writes value there
func (s *MemoryStore) Append(ctx context.Context, path string, value interface{}) (string, error) {
	key := NewPushKey()
	childPath := strings.Trim(path, "/") + "/" + key

	// A two-segment append ("requests/<key>") creates a new document
	if err := s.Write(ctx, childPath, value); err != nil {
		return "", err
	}
	return key, nil
}

// Update runs fn against the current document value atomically
func (s *MemoryStore) Update(ctx context.Context, path string, fn UpdateFn) error {
	docKey, inner, err := splitPath(path)
	if err != nil {
		return err
	}
	if docKey == "" || len(inner) > 0 {
		return fmt.Errorf("path %q does not address a whole document", path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	var current json.RawMessage
	if doc, ok := s.docs[docKey]; ok {
		raw, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		current = raw
	}

	next, err := fn(current)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	normalized, err := normalize(next)
	if err != nil {
		return err
	}

	s.docs[docKey] = normalized
	s.notifyLocked(docKey)
	return nil
}

// Subscribe returns a change-event channel for documents under prefix
func (s *MemoryStore) Subscribe(prefix string) (<-chan Event, func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	id := s.nextID
	s.nextID++
	sub := &memorySub{prefix: strings.Trim(prefix, "/"), ch: make(chan Event, 16)}
	s.subs[id] = sub

	cancel := func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub.ch)
		}
	}
	return sub.ch, cancel
}

// Close shuts down the store and all subscriptions
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for id, sub := range s.subs {
		delete(s.subs, id)
		close(sub.ch)
	}
	return nil
}

// notifyLocked pushes the changed document to matching subscribers. Callers
// hold s.mu, so the marshalled value is a consistent snapshot. Sends are
// non-blocking: a subscriber that cannot keep up misses events.
func (s *MemoryStore) notifyLocked(docKey string) {
	var value json.RawMessage
	if doc, ok := s.docs[docKey]; ok {
		raw, err := json.Marshal(doc)
		if err != nil {
			logger.Error().Err(err).Str("doc", docKey).Msg("Failed to encode document for change feed")
			return
		}
		value = raw
	}
	event := Event{Path: docKey, Value: value}

	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		if sub.prefix != "" && !strings.HasPrefix(docKey, sub.prefix) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			logger.Warn().Str("doc", docKey).Msg("Dropped change event for slow subscriber")
		}
	}
}
