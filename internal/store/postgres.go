package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hydrashare/backend/internal/db"
	"github.com/hydrashare/backend/internal/pkg/logger"
)

const documentsSchema = `
CREATE TABLE IF NOT EXISTS documents (
	doc_key    TEXT PRIMARY KEY,
	collection TEXT NOT NULL,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents (collection);
`

// PostgresStore persists documents as JSONB rows keyed by document path.
// Transactional updates lock the row with SELECT FOR UPDATE, and the change
// feed rides on LISTEN/NOTIFY.
type PostgresStore struct {
	database      *db.PostgresDB
	notifyChannel string

	subsMu sync.RWMutex
	subs   map[int]*memorySub
	nextID int

	cancelListener context.CancelFunc
	listenerDone   chan struct{}
}

// NewPostgresStore initializes the documents schema and starts the
// notification listener.
func NewPostgresStore(database *db.PostgresDB, notifyChannel string) (*PostgresStore, error) {
	ctx, cancel := context.WithCancel(context.Background())

	if _, err := database.Pool.Exec(ctx, documentsSchema); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize documents schema: %w", err)
	}

	s := &PostgresStore{
		database:       database,
		notifyChannel:  notifyChannel,
		subs:           make(map[int]*memorySub),
		cancelListener: cancel,
		listenerDone:   make(chan struct{}),
	}
	go s.listen(ctx)
	return s, nil
}

// Read decodes the value at path into dest
func (s *PostgresStore) Read(ctx context.Context, path string, dest interface{}) error {
	docKey, inner, err := splitPath(path)
	if err != nil {
		return err
	}

	if docKey == "" {
		return s.readCollection(ctx, collectionOf(path), dest)
	}

	var raw []byte
	err = s.database.Pool.QueryRow(ctx,
		`SELECT value FROM documents WHERE doc_key = $1`, docKey).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read document %s: %w", docKey, err)
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", docKey, err)
	}
	node, err := getAt(doc, inner)
	if err != nil {
		return err
	}
	return decodeInto(node, dest)
}

func (s *PostgresStore) readCollection(ctx context.Context, collection string, dest interface{}) error {
	rows, err := s.database.Pool.Query(ctx,
		`SELECT doc_key, value FROM documents WHERE collection = $1`, collection)
	if err != nil {
		return fmt.Errorf("failed to read collection %s: %w", collection, err)
	}
	defer rows.Close()

	out := make(map[string]interface{})
	for rows.Next() {
		var docKey string
		var raw []byte
		if err := rows.Scan(&docKey, &raw); err != nil {
			return fmt.Errorf("failed to scan document row: %w", err)
		}
		var doc interface{}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("failed to decode document %s: %w", docKey, err)
		}
		out[strings.TrimPrefix(docKey, collection+"/")] = doc
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate collection %s: %w", collection, err)
	}
	if len(out) == 0 {
		return ErrNotFound
	}
	return decodeInto(out, dest)
}

// Write overwrites the addressed subtree with value
func (s *PostgresStore) Write(ctx context.Context, path string, value interface{}) error {
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

	return s.mutateDoc(ctx, docKey, func(doc interface{}) (interface{}, error) {
		return setAt(doc, inner, normalized), nil
	})
}

// Merge applies a shallow field-level update at path
func (s *PostgresStore) Merge(ctx context.Context, path string, fields map[string]interface{}) error {
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

	return s.mutateDoc(ctx, docKey, func(doc interface{}) (interface{}, error) {
		return mergeAt(doc, inner, normalizedFields), nil
	})
}

// Delete removes the addressed document or inner node
func (s *PostgresStore) Delete(ctx context.Context, path string) error {
	docKey, inner, err := splitPath(path)
	if err != nil {
		return err
	}
	if docKey == "" {
		return fmt.Errorf("path %q addresses a whole collection", path)
	}

	if len(inner) > 0 {
		return s.mutateDoc(ctx, docKey, func(doc interface{}) (interface{}, error) {
			return deleteAt(doc, inner), nil
		})
	}

	return s.database.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM documents WHERE doc_key = $1`, docKey); err != nil {
			return fmt.Errorf("failed to delete document %s: %w", docKey, err)
		}
		if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, s.notifyChannel, docKey); err != nil {
			return fmt.Errorf("failed to queue change notification for %s: %w", docKey, err)
		}
		return nil
	})
}

// Append generates a fresh child key under path and writes value there
func (s *PostgresStore) Append(ctx context.Context, path string, value interface{}) (string, error) {
	key := NewPushKey()
	childPath := strings.Trim(path, "/") + "/" + key
	if err := s.Write(ctx, childPath, value); err != nil {
		return "", err
	}
	return key, nil
}

// Update runs fn against the current document value atomically
func (s *PostgresStore) Update(ctx context.Context, path string, fn UpdateFn) error {
	docKey, inner, err := splitPath(path)
	if err != nil {
		return err
	}
	if docKey == "" || len(inner) > 0 {
		return fmt.Errorf("path %q does not address a whole document", path)
	}

	return s.database.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var current json.RawMessage
		var raw []byte
		err := tx.QueryRow(ctx,
			`SELECT value FROM documents WHERE doc_key = $1 FOR UPDATE`, docKey).Scan(&raw)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed to lock document %s: %w", docKey, err)
		}
		if err == nil {
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
		return s.upsertDoc(ctx, tx, docKey, normalized)
	})
}

// mutateDoc loads, transforms and rewrites one document inside a transaction.
func (s *PostgresStore) mutateDoc(ctx context.Context, docKey string, transform func(doc interface{}) (interface{}, error)) error {
	return s.database.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var doc interface{}
		var raw []byte
		err := tx.QueryRow(ctx,
			`SELECT value FROM documents WHERE doc_key = $1 FOR UPDATE`, docKey).Scan(&raw)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed to lock document %s: %w", docKey, err)
		}
		if err == nil {
			if err := json.Unmarshal(raw, &doc); err != nil {
				return fmt.Errorf("failed to decode document %s: %w", docKey, err)
			}
		}

		next, err := transform(doc)
		if err != nil {
			return err
		}
		return s.upsertDoc(ctx, tx, docKey, next)
	})
}

// upsertDoc writes the document row and queues the commit-time notification.
func (s *PostgresStore) upsertDoc(ctx context.Context, tx pgx.Tx, docKey string, doc interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", docKey, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO documents (doc_key, collection, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (doc_key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		docKey, collectionOf(docKey), raw)
	if err != nil {
		return fmt.Errorf("failed to write document %s: %w", docKey, err)
	}

	// NOTIFY is delivered only if the surrounding transaction commits
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, s.notifyChannel, docKey); err != nil {
		return fmt.Errorf("failed to queue change notification for %s: %w", docKey, err)
	}
	return nil
}

// Subscribe returns a change-event channel for documents under prefix
func (s *PostgresStore) Subscribe(prefix string) (<-chan Event, func()) {
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

// Close stops the listener and closes all subscriptions. The underlying pool
// is owned by the caller and stays open.
func (s *PostgresStore) Close() error {
	s.cancelListener()
	<-s.listenerDone

	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for id, sub := range s.subs {
		delete(s.subs, id)
		close(sub.ch)
	}
	return nil
}

// Reconnect delays for the change feed listener.
const (
	listenRetryMin = time.Second
	listenRetryMax = 30 * time.Second
)

// nextRetryDelay doubles the reconnect delay up to listenRetryMax.
func nextRetryDelay(current time.Duration) time.Duration {
	next := current * 2
	if next > listenRetryMax {
		return listenRetryMax
	}
	return next
}

// listen holds a dedicated connection on the notification channel and fans
// committed changes out to subscribers. Reconnect attempts back off from
// listenRetryMin to listenRetryMax; the delay resets after a connection
// that held for longer than listenRetryMax.
func (s *PostgresStore) listen(ctx context.Context) {
	defer close(s.listenerDone)

	delay := listenRetryMin
	for {
		if ctx.Err() != nil {
			return
		}
		started := time.Now()
		if err := s.listenOnce(ctx); err != nil && ctx.Err() == nil {
			logger.Warn().Err(err).Dur("retryIn", delay).Msg("Change feed listener disconnected, reconnecting")
		}
		if time.Since(started) > listenRetryMax {
			delay = listenRetryMin
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay = nextRetryDelay(delay)
	}
}

func (s *PostgresStore) listenOnce(ctx context.Context) error {
	conn, err := s.database.Pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire listener connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, fmt.Sprintf(`LISTEN %q`, s.notifyChannel)); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.notifyChannel, err)
	}

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		s.dispatch(ctx, notification.Payload)
	}
}

// dispatch re-reads the changed document and pushes it to matching
// subscribers. A missing row means the document was deleted and goes out
// with a nil value. Sends are non-blocking.
func (s *PostgresStore) dispatch(ctx context.Context, docKey string) {
	var raw []byte
	err := s.database.Pool.QueryRow(ctx,
		`SELECT value FROM documents WHERE doc_key = $1`, docKey).Scan(&raw)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		logger.Warn().Err(err).Str("doc", docKey).Msg("Failed to load changed document")
		return
	}
	var value json.RawMessage
	if err == nil {
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
