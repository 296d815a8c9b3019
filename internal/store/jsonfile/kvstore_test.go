package jsonfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecord struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestStore(t *testing.T) *KVStore {
	t.Helper()
	return NewKVStore(filepath.Join(t.TempDir(), "data", "store.json"))
}

func TestKVStore_SetGet(t *testing.T) {
	s := newTestStore(t)

	want := testRecord{Name: "alpha", Count: 3}
	require.NoError(t, s.Set("rec", want))

	var got testRecord
	require.NoError(t, s.Get("rec", &got))
	assert.Equal(t, want, got)
}

func TestKVStore_GetMissingKey(t *testing.T) {
	s := newTestStore(t)

	var got testRecord
	err := s.Get("nope", &got)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestKVStore_SetOverwrites(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set("rec", testRecord{Name: "one"}))
	require.NoError(t, s.Set("rec", testRecord{Name: "two"}))

	var got testRecord
	require.NoError(t, s.Get("rec", &got))
	assert.Equal(t, "two", got.Name)
}

func TestKVStore_Delete(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set("rec", testRecord{Name: "gone"}))
	require.NoError(t, s.Delete("rec"))

	var got testRecord
	assert.ErrorIs(t, s.Get("rec", &got), ErrKeyNotFound)
}

func TestKVStore_DeleteMissingKey(t *testing.T) {
	s := newTestStore(t)
	assert.ErrorIs(t, s.Delete("nope"), ErrKeyNotFound)
}

func TestKVStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	s1 := NewKVStore(path)
	require.NoError(t, s1.Set("rec", testRecord{Name: "durable"}))

	s2 := NewKVStore(path)
	var got testRecord
	require.NoError(t, s2.Get("rec", &got))
	assert.Equal(t, "durable", got.Name)
}

func TestKVStore_ToleratesUnknownFields(t *testing.T) {
	// A record written by a newer version with extra fields must still
	// load into the current shape.
	path := filepath.Join(t.TempDir(), "store.json")
	content := `{"entries": {"rec": {"name": "fwd", "count": 1, "future_field": true}}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	var got testRecord
	require.NoError(t, NewKVStore(path).Get("rec", &got))
	assert.Equal(t, "fwd", got.Name)
}

func TestKVStore_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	var got testRecord
	assert.ErrorIs(t, NewKVStore(path).Get("rec", &got), ErrKeyNotFound)
}
