package repo

import (
	"context"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/agentic-hr-assistant/server/internal/agent/model"
	errx "github.com/agentic-hr-assistant/server/internal/core/error"
)

type memoryConversation struct {
	messages []*schema.Message
	retries  int
	touched  time.Time
}

// MemoryConversationRepository keeps conversations in process memory. Entries
// idle for longer than the TTL read as empty. It is safe for concurrent use.
type MemoryConversationRepository struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	convs map[string]*memoryConversation
}

func NewMemoryConversationRepository(ttl time.Duration) *MemoryConversationRepository {
	return &MemoryConversationRepository{
		ttl:   ttl,
		now:   time.Now,
		convs: make(map[string]*memoryConversation),
	}
}

// get returns the live entry for id, dropping it when expired. Callers hold mu.
func (r *MemoryConversationRepository) get(id string) *memoryConversation {
	c, ok := r.convs[id]
	if !ok {
		return nil
	}
	if r.ttl > 0 && r.now().Sub(c.touched) > r.ttl {
		delete(r.convs, id)
		return nil
	}
	return c
}

func (r *MemoryConversationRepository) touch(id string) *memoryConversation {
	c := r.get(id)
	if c == nil {
		c = &memoryConversation{}
		r.convs[id] = c
	}
	c.touched = r.now()
	return c
}

func (r *MemoryConversationRepository) AddMessages(ctx context.Context, conversationID string, messages []*schema.Message, retries int) error {
	if retries < 0 {
		return errx.InvalidState("retries must not be negative")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.touch(conversationID)
	c.messages = append(c.messages, messages...)
	c.retries = retries
	return nil
}

func (r *MemoryConversationRepository) LoadHistory(ctx context.Context, conversationID string) (*model.ConversationHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := &model.ConversationHistory{ConversationID: conversationID, Messages: []*schema.Message{}}
	if c := r.get(conversationID); c != nil {
		h.Messages = append(h.Messages, c.messages...)
		h.Retries = c.retries
	}
	return h, nil
}

func (r *MemoryConversationRepository) ClearHistory(ctx context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.convs, conversationID)
	return nil
}

func (r *MemoryConversationRepository) GetMessageCount(ctx context.Context, conversationID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c := r.get(conversationID); c != nil {
		return len(c.messages), nil
	}
	return 0, nil
}

var _ model.ConversationRepository = (*MemoryConversationRepository)(nil)
