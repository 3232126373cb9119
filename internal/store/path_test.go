package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPathShapes(t *testing.T) {
	cases := []struct {
		path    string
		docKey  string
		inner   []string
		wantErr bool
	}{
		{path: "users", docKey: "", inner: nil},
		{path: "users/u1", docKey: "users/u1", inner: []string{}},
		{path: "resources/r1/ownerId", docKey: "resources/r1", inner: []string{"ownerId"}},
		{path: "resources/r1/comments/c1", docKey: "resources/r1", inner: []string{"comments", "c1"}},
		{path: "resources/r1/ratings/u2", docKey: "resources/r1", inner: []string{"ratings", "u2"}},
		{path: "requests/q1/messages/m1", docKey: "requests/q1", inner: []string{"messages", "m1"}},
		{path: "/users/u1/", docKey: "users/u1", inner: []string{}},
		{path: "", wantErr: true},
		{path: "users//u1", wantErr: true},
	}

	for _, tc := range cases {
		docKey, inner, err := splitPath(tc.path)
		if tc.wantErr {
			assert.Error(t, err, "path %q", tc.path)
			continue
		}
		require.NoError(t, err, "path %q", tc.path)
		assert.Equal(t, tc.docKey, docKey, "path %q", tc.path)
		assert.Equal(t, tc.inner, inner, "path %q", tc.path)
	}
}

func TestCollectionOf(t *testing.T) {
	assert.Equal(t, "users", collectionOf("users/u1"))
	assert.Equal(t, "requests", collectionOf("requests/q1/messages/m1"))
	assert.Equal(t, "resources", collectionOf("resources"))
	assert.Equal(t, "users", collectionOf("/users/u1"))
}

func TestNewPushKeysSortInCreationOrder(t *testing.T) {
	prev := NewPushKey()
	for i := 0; i < 1000; i++ {
		key := NewPushKey()
		require.Less(t, prev, key)
		prev = key
	}
}
