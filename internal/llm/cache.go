package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/proofread/internal/core/kv"
)

type cachedReply struct {
	Client  string    `json:"client"`
	Content string    `json:"content"`
	Stored  time.Time `json:"stored"`
}

// Cached serves repeated conversations from a KV store. Entries are keyed by
// the client name and the full message list, and expire after ttl.
type Cached struct {
	next  Client
	store *kv.TypedKV[cachedReply]
	ttl   time.Duration
	log   zerolog.Logger
}

// NewCached wraps next with a cache in the "llm" namespace of store.
func NewCached(next Client, store kv.KV, ttl time.Duration, log zerolog.Logger) *Cached {
	return &Cached{
		next:  next,
		store: kv.Scoped[cachedReply](store, "llm"),
		ttl:   ttl,
		log:   log,
	}
}

func (c *Cached) Name() string { return c.next.Name() }

// Chat returns the cached reply when present. Cache failures are logged and
// fall through to the wrapped client.
func (c *Cached) Chat(ctx context.Context, messages []Message) (string, error) {
	key := cacheKey(c.next.Name(), messages)

	hit, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		c.log.Debug().Str("key", key[:12]).Msg("llm cache hit")
		return hit.Content, nil
	case !kv.IsNotFound(err):
		c.log.Warn().Err(err).Str("key", key[:12]).Msg("llm cache read failed")
	}

	content, err := c.next.Chat(ctx, messages)
	if err != nil {
		return "", err
	}

	err = c.store.SetTTL(ctx, key, cachedReply{
		Client:  c.next.Name(),
		Content: content,
		Stored:  time.Now(),
	}, c.ttl)
	if err != nil {
		c.log.Warn().Err(err).Msg("llm cache write failed")
	}

	return content, nil
}

func cacheKey(client string, messages []Message) string {
	h := sha256.New()
	h.Write([]byte(client))
	for _, m := range messages {
		h.Write([]byte{0})
		h.Write([]byte(m.Role))
		h.Write([]byte{0})
		h.Write([]byte(m.Content))
	}
	return hex.EncodeToString(h.Sum(nil))
}
