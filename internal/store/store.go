// Package store defines the document store the engine runs against: a tree of
// JSON documents addressed by slash-separated paths (users/{id},
// resources/{id}/comments/{commentId}, ...) with point reads, full overwrites,
// shallow merges, push-key appends, transactional updates and a change feed.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Store errors
var (
	// ErrNotFound is returned when the addressed document or subtree does not exist
	ErrNotFound = errors.New("document not found")
	// ErrClosed is returned when an operation is attempted on a closed store
	ErrClosed = errors.New("store is closed")
)

// UpdateFn is applied inside a transactional update. current is the document's
// present value, or nil when the document does not exist. The returned value
// replaces the document; returning ErrNotFound aborts without writing.
type UpdateFn func(current json.RawMessage) (interface{}, error)

// Event describes a committed change to a document.
type Event struct {
	// Path is the document path ("users/u1", "requests/r1")
	Path string
	// Value is the full document after the change, nil when the document
	// was deleted
	Value json.RawMessage
}

// Store is the document store contract the engine requires from its
// persistence collaborator.
type Store interface {
	// Read decodes the value at path into dest. A single-segment path reads a
	// whole collection as a map keyed by child id.
	Read(ctx context.Context, path string, dest interface{}) error

	// Write overwrites the addressed subtree with value.
	Write(ctx context.Context, path string, value interface{}) error

	// Merge applies a shallow field-level update at path. Fields present in
	// fields replace the existing ones; others are left untouched.
	Merge(ctx context.Context, path string, fields map[string]interface{}) error

	// Delete removes the addressed document or inner node. Deleting
	// something that does not exist is a no-op.
	Delete(ctx context.Context, path string) error

	// Append generates a fresh unique child key under path, writes value
	// there, and returns the key.
	Append(ctx context.Context, path string, value interface{}) (string, error)

	// Update runs fn against the current document value as one atomic
	// read-modify-write. Concurrent updates of the same document are
	// serialized; none are lost.
	Update(ctx context.Context, path string, fn UpdateFn) error

	// Subscribe returns a channel of change events for documents whose path
	// starts with prefix, plus a cancel function. Slow subscribers may miss
	// events; delivery is best-effort.
	Subscribe(prefix string) (<-chan Event, func())

	// Close releases the store's resources.
	Close() error
}

// splitPath splits a path into its document key (the first two segments) and
// the remaining inner segments. A single-segment path is a collection address
// and has an empty document key.
func splitPath(path string) (docKey string, inner []string, err error) {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case len(segs) == 0 || segs[0] == "":
		return "", nil, fmt.Errorf("empty path")
	case len(segs) == 1:
		return "", nil, nil
	default:
		for _, s := range segs {
			if s == "" {
				return "", nil, fmt.Errorf("path %q has an empty segment", path)
			}
		}
		return segs[0] + "/" + segs[1], segs[2:], nil
	}
}

// collectionOf returns the first path segment.
func collectionOf(path string) string {
	path = strings.Trim(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}

// pushCounter orders keys minted within the same millisecond.
var pushCounter atomic.Uint64

// NewPushKey generates a fresh child key for appended entries. Keys embed
// the creation time plus a process-local counter, so keys minted by one
// process sort in creation order; no engine ordering depends on them.
func NewPushKey() string {
	return fmt.Sprintf("%013d-%09d-%s",
		time.Now().UnixMilli(), pushCounter.Add(1), uuid.New().String()[:8])
}

// normalize round-trips a value through JSON so every stored node is built
// from plain maps, slices and primitives regardless of the caller's types.
func normalize(value interface{}) (interface{}, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to normalize value: %w", err)
	}
	return out, nil
}

// getAt walks inner segments into a decoded document. Returns ErrNotFound if
// any segment is missing.
func getAt(doc interface{}, inner []string) (interface{}, error) {
	node := doc
	for _, seg := range inner {
		obj, ok := node.(map[string]interface{})
		if !ok {
			return nil, ErrNotFound
		}
		child, ok := obj[seg]
		if !ok {
			return nil, ErrNotFound
		}
		node = child
	}
	return node, nil
}

// setAt replaces the subtree at inner within doc, creating intermediate
// objects as needed, and returns the updated document root.
func setAt(doc interface{}, inner []string, value interface{}) interface{} {
	if len(inner) == 0 {
		return value
	}
	obj, ok := doc.(map[string]interface{})
	if !ok {
		obj = make(map[string]interface{})
	}
	obj[inner[0]] = setAt(obj[inner[0]], inner[1:], value)
	return obj
}

// deleteAt removes the node at inner within doc, leaving siblings intact,
// and returns the updated document root.
func deleteAt(doc interface{}, inner []string) interface{} {
	obj, ok := doc.(map[string]interface{})
	if !ok || len(inner) == 0 {
		return doc
	}
	if len(inner) == 1 {
		delete(obj, inner[0])
		return obj
	}
	if child, ok := obj[inner[0]]; ok {
		obj[inner[0]] = deleteAt(child, inner[1:])
	}
	return obj
}

// mergeAt applies a shallow merge of fields into the object at inner within
// doc and returns the updated document root.
func mergeAt(doc interface{}, inner []string, fields map[string]interface{}) interface{} {
	target, err := getAt(doc, inner)
	if err != nil {
		target = map[string]interface{}{}
	}
	obj, ok := target.(map[string]interface{})
	if !ok {
		obj = map[string]interface{}{}
	}
	for k, v := range fields {
		obj[k] = v
	}
	return setAt(doc, inner, obj)
}

// decodeInto marshals a decoded node back to JSON and unmarshals it into dest.
func decodeInto(node interface{}, dest interface{}) error {
	raw, err := json.Marshal(node)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}
