package llm

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/proofread/internal/core/kv"
	"github.com/colonyops/proofread/internal/data/db"
	"github.com/colonyops/proofread/internal/data/stores"
)

type countingClient struct {
	name  string
	calls int
	reply string
	err   error
}

func (c *countingClient) Name() string { return c.name }

func (c *countingClient) Chat(ctx context.Context, messages []Message) (string, error) {
	c.calls++
	return c.reply, c.err
}

func newTestStore(t *testing.T) *stores.KVStore {
	t.Helper()
	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return stores.NewKVStore(database)
}

func TestCached_Chat(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	inner := &countingClient{name: "fake:model", reply: `{"transition": 0}`}
	c := NewCached(inner, store, time.Hour, zerolog.Nop())

	for range 3 {
		got, err := c.Chat(ctx, conversation)
		require.NoError(t, err)
		assert.Equal(t, `{"transition": 0}`, got)
	}
	assert.Equal(t, 1, inner.calls)

	other := append([]Message{}, conversation...)
	other[1].Content = "a different sentence pair"
	_, err := c.Chat(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)

	keys, err := store.ListKeys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestCached_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	inner := &countingClient{name: "fake", err: errors.New("timeout")}
	c := NewCached(inner, newTestStore(t), time.Hour, zerolog.Nop())

	_, err := c.Chat(ctx, conversation)
	require.Error(t, err)

	inner.err = nil
	inner.reply = "ok"
	got, err := c.Chat(ctx, conversation)
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 2, inner.calls)
}

// brokenKV fails every read and write.
type brokenKV struct{ err error }

func (b brokenKV) Get(context.Context, string, any) error { return b.err }
func (b brokenKV) Set(context.Context, string, any) error { return b.err }
func (b brokenKV) SetTTL(context.Context, string, any, time.Duration) error {
	return b.err
}
func (b brokenKV) Delete(context.Context, string) error             { return b.err }
func (b brokenKV) Has(context.Context, string) (bool, error)        { return false, b.err }
func (b brokenKV) ListKeys(context.Context) ([]string, error)       { return nil, b.err }
func (b brokenKV) GetRaw(context.Context, string) (kv.Entry, error) { return kv.Entry{}, b.err }

func TestCached_StoreFailuresAreLogged(t *testing.T) {
	var buf bytes.Buffer
	inner := &countingClient{name: "fake", reply: "ok"}
	c := NewCached(inner, brokenKV{err: errors.New("disk I/O error")}, time.Hour, zerolog.New(&buf))

	got, err := c.Chat(context.Background(), conversation)
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, inner.calls)

	assert.Contains(t, buf.String(), "llm cache read failed")
	assert.Contains(t, buf.String(), "llm cache write failed")
	assert.Contains(t, buf.String(), "disk I/O error")
}

func TestCached_MissIsNotLogged(t *testing.T) {
	var buf bytes.Buffer
	inner := &countingClient{name: "fake", reply: "ok"}
	c := NewCached(inner, newTestStore(t), time.Hour, zerolog.New(&buf).Level(zerolog.WarnLevel))

	_, err := c.Chat(context.Background(), conversation)
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestCacheKey(t *testing.T) {
	a := cacheKey("openai:x", conversation)
	assert.Equal(t, a, cacheKey("openai:x", conversation))
	assert.NotEqual(t, a, cacheKey("ollama:x", conversation))

	// role and content boundaries are part of the key
	assert.NotEqual(t,
		cacheKey("c", []Message{{Role: RoleUser, Content: "ab"}}),
		cacheKey("c", []Message{{Role: RoleUser, Content: "a"}, {Role: RoleUser, Content: "b"}}),
	)
}
