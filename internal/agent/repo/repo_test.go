package repo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-hr-assistant/server/internal/agent/model"
	errx "github.com/agentic-hr-assistant/server/internal/core/error"
)

func newRedisRepo(t *testing.T, ttl time.Duration) (*RedisConversationRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisConversationRepository(rdb, ttl), mr
}

func repositories(t *testing.T) map[string]model.ConversationRepository {
	redisRepo, _ := newRedisRepo(t, time.Minute)
	return map[string]model.ConversationRepository{
		"redis":  redisRepo,
		"memory": NewMemoryConversationRepository(time.Minute),
	}
}

func TestConversationRepository_Contract(t *testing.T) {
	for name, r := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			empty, err := r.LoadHistory(ctx, "c1")
			require.NoError(t, err)
			assert.Empty(t, empty.Messages)
			assert.Equal(t, 0, empty.Retries)

			require.NoError(t, r.AddMessages(ctx, "c1", []*schema.Message{
				schema.UserMessage("I need leave"),
				schema.AssistantMessage("Which country?", nil),
			}, 1))

			h, err := r.LoadHistory(ctx, "c1")
			require.NoError(t, err)
			require.Len(t, h.Messages, 2)
			assert.Equal(t, schema.User, h.Messages[0].Role)
			assert.Equal(t, "Which country?", h.Messages[1].Content)
			assert.Equal(t, 1, h.Retries)

			state := h.State()
			assert.Equal(t, 1, state.Retries)
			assert.Equal(t, "i need leave", state.UserConversation())

			n, err := r.GetMessageCount(ctx, "c1")
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			other, err := r.LoadHistory(ctx, "c2")
			require.NoError(t, err)
			assert.Empty(t, other.Messages, "conversations are isolated")

			require.NoError(t, r.ClearHistory(ctx, "c1"))
			h, err = r.LoadHistory(ctx, "c1")
			require.NoError(t, err)
			assert.Empty(t, h.Messages)
			assert.Equal(t, 0, h.Retries)

			err = r.AddMessages(ctx, "c1", []*schema.Message{schema.UserMessage("x")}, -1)
			assert.ErrorIs(t, err, errx.ErrInvalidState)
			n, err = r.GetMessageCount(ctx, "c1")
			require.NoError(t, err)
			assert.Zero(t, n, "a rejected turn stores nothing")
		})
	}
}

func TestConversationRepository_AppendsTurns(t *testing.T) {
	for name, r := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, r.AddMessages(ctx, "c1", []*schema.Message{
				schema.UserMessage("leave"),
				schema.AssistantMessage("Which country?", nil),
			}, 1))
			require.NoError(t, r.AddMessages(ctx, "c1", []*schema.Message{
				schema.UserMessage("India"),
				schema.AssistantMessage("Which leave type?", nil),
			}, 2))
			require.NoError(t, r.AddMessages(ctx, "c1", nil, 0))

			h, err := r.LoadHistory(ctx, "c1")
			require.NoError(t, err)
			require.Len(t, h.Messages, 4)
			assert.Equal(t, "India", h.Messages[2].Content)
			assert.Equal(t, 0, h.Retries)
		})
	}
}

func TestRedisConversationRepository_SlidingTTL(t *testing.T) {
	ctx := context.Background()
	r, mr := newRedisRepo(t, time.Minute)

	require.NoError(t, r.AddMessages(ctx, "c1", []*schema.Message{schema.UserMessage("hi")}, 1))
	assert.Equal(t, time.Minute, mr.TTL("conversation:c1:messages"))
	assert.Equal(t, time.Minute, mr.TTL("conversation:c1:retries"))

	mr.FastForward(2 * time.Minute)
	h, err := r.LoadHistory(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, h.Messages)
	assert.Equal(t, 0, h.Retries)
}

func TestRedisConversationRepository_FailedTurnStoresNothing(t *testing.T) {
	ctx := context.Background()
	r, mr := newRedisRepo(t, time.Minute)
	require.NoError(t, r.AddMessages(ctx, "c1", []*schema.Message{schema.UserMessage("leave")}, 1))

	mr.SetError("LOADING redis is loading")
	err := r.AddMessages(ctx, "c1", []*schema.Message{
		schema.AssistantMessage("Which country?", nil),
		schema.UserMessage("India"),
	}, 2)
	require.Error(t, err)
	assert.Equal(t, 502, errx.StatusOf(err))
	mr.SetError("")

	h, err := r.LoadHistory(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, h.Messages, 1)
	assert.Equal(t, 1, h.Retries)
}

func TestRedisConversationRepository_RedisDown(t *testing.T) {
	ctx := context.Background()
	r, mr := newRedisRepo(t, time.Minute)
	mr.Close()

	_, err := r.LoadHistory(ctx, "c1")
	require.Error(t, err)
	assert.Equal(t, 502, errx.StatusOf(err))
}

func TestMemoryConversationRepository_Expiry(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryConversationRepository(time.Minute)
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	require.NoError(t, r.AddMessages(ctx, "c1", []*schema.Message{schema.UserMessage("hi")}, 0))
	now = now.Add(30 * time.Second)
	n, err := r.GetMessageCount(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	now = now.Add(2 * time.Minute)
	n, err = r.GetMessageCount(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestMemoryConversationRepository_LoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryConversationRepository(0)
	require.NoError(t, r.AddMessages(ctx, "c1", []*schema.Message{schema.UserMessage("hi")}, 0))

	h, err := r.LoadHistory(ctx, "c1")
	require.NoError(t, err)
	h.Messages = append(h.Messages, schema.UserMessage("extra"))

	n, err := r.GetMessageCount(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
