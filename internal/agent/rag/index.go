package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	logx "github.com/agentic-hr-assistant/server/pkg/logger"
)

const (
	passagesBucket = "passages"
	metaBucket     = "meta"
	dimensionKey   = "dimension"

	MetaCountry    = "country"
	MetaPolicyType = "policy_type"
	MetaSource     = "source"
	MetaChunkIndex = "chunk_index"
)

type storedPassage struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	MetaData map[string]any `json:"metadata,omitempty"`
	Vector   []float64      `json:"vector"`
}

// BoltIndex is the persisted policy passage index.
//
// Passages and their vectors live in a bbolt file and are mirrored in memory
// on open; Search is a brute-force cosine scan over the mirror. After loading,
// the index is safe for concurrent read-only use.
type BoltIndex struct {
	db       *bbolt.DB
	embedder embedding.Embedder

	mu        sync.RWMutex
	passages  []storedPassage
	dimension int
}

// OpenBoltIndex opens (or creates) the index file at path. embedder is the
// default used by Store; it may be nil for read-only use.
func OpenBoltIndex(path string, embedder embedding.Embedder) (*BoltIndex, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create index directory %s: %w", dir, err)
		}
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open policy index %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(passagesBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(metaBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create index buckets: %w", err)
	}

	idx := &BoltIndex{db: db, embedder: embedder}
	if err := idx.load(); err != nil {
		_ = db.Close()
		return nil, err
	}

	logx.Debug().Str("path", path).Int("passages", len(idx.passages)).Msg("Policy index opened")
	return idx, nil
}

func (idx *BoltIndex) Close() error {
	return idx.db.Close()
}

// Len returns the number of indexed passages.
func (idx *BoltIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.passages)
}

func (idx *BoltIndex) load() error {
	var passages []storedPassage
	dimension := 0

	err := idx.db.View(func(tx *bbolt.Tx) error {
		if raw := tx.Bucket([]byte(metaBucket)).Get([]byte(dimensionKey)); raw != nil {
			d, err := strconv.Atoi(string(raw))
			if err != nil {
				return fmt.Errorf("decode index dimension: %w", err)
			}
			dimension = d
		}
		return tx.Bucket([]byte(passagesBucket)).ForEach(func(k, v []byte) error {
			var p storedPassage
			if err := json.Unmarshal(v, &p); err != nil {
				return fmt.Errorf("unmarshal passage %s: %w", k, err)
			}
			passages = append(passages, p)
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("load policy index: %w", err)
	}

	idx.mu.Lock()
	idx.passages = passages
	idx.dimension = dimension
	idx.mu.Unlock()
	return nil
}

// Reset removes every stored passage.
func (idx *BoltIndex) Reset() error {
	err := idx.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{passagesBucket, metaBucket} {
			if err := tx.DeleteBucket([]byte(name)); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
				return err
			}
			if _, err := tx.CreateBucket([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("reset policy index: %w", err)
	}

	idx.mu.Lock()
	idx.passages = nil
	idx.dimension = 0
	idx.mu.Unlock()
	return nil
}

// Store embeds and persists docs. It implements indexer.Indexer; the
// embedder can be overridden per call with indexer.WithEmbedding.
func (idx *BoltIndex) Store(ctx context.Context, docs []*schema.Document, opts ...indexer.Option) ([]string, error) {
	options := indexer.GetCommonOptions(&indexer.Options{Embedding: idx.embedder}, opts...)
	if options.Embedding == nil {
		return nil, fmt.Errorf("store passages: no embedder configured")
	}
	if len(docs) == 0 {
		return nil, nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	vectors, err := options.Embedding.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed passages: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("embed passages: got %d vectors for %d documents", len(vectors), len(docs))
	}

	idx.mu.RLock()
	dimension := idx.dimension
	idx.mu.RUnlock()

	stored := make([]storedPassage, len(docs))
	ids := make([]string, len(docs))
	for i, d := range docs {
		if dimension == 0 {
			dimension = len(vectors[i])
		}
		if len(vectors[i]) != dimension {
			return nil, fmt.Errorf("embed passages: vector %d has dimension %d, index uses %d", i, len(vectors[i]), dimension)
		}
		id := d.ID
		if id == "" {
			id = uuid.NewString()
		}
		ids[i] = id
		stored[i] = storedPassage{ID: id, Content: d.Content, MetaData: cloneMeta(d.MetaData), Vector: vectors[i]}
	}

	err = idx.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(passagesBucket))
		for _, p := range stored {
			data, err := json.Marshal(p)
			if err != nil {
				return fmt.Errorf("marshal passage %s: %w", p.ID, err)
			}
			if err := bucket.Put([]byte(p.ID), data); err != nil {
				return fmt.Errorf("put passage %s: %w", p.ID, err)
			}
		}
		return tx.Bucket([]byte(metaBucket)).Put([]byte(dimensionKey), []byte(strconv.Itoa(dimension)))
	})
	if err != nil {
		return nil, fmt.Errorf("store passages: %w", err)
	}

	if err := idx.load(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Search returns up to k passages most similar to query, best first. A
// non-empty country restricts the scan to passages tagged with it.
func (idx *BoltIndex) Search(query []float64, k int, country string) ([]*schema.Document, error) {
	if k <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.passages) > 0 && len(query) != idx.dimension {
		return nil, fmt.Errorf("search policy index: query dimension %d, index uses %d", len(query), idx.dimension)
	}

	type scored struct {
		p     *storedPassage
		score float64
	}
	hits := make([]scored, 0, len(idx.passages))
	for i := range idx.passages {
		p := &idx.passages[i]
		if country != "" && metaString(p.MetaData, MetaCountry) != country {
			continue
		}
		score, err := cosineSimilarity(query, p.Vector)
		if err != nil {
			return nil, fmt.Errorf("score passage %s: %w", p.ID, err)
		}
		hits = append(hits, scored{p: p, score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > k {
		hits = hits[:k]
	}

	docs := make([]*schema.Document, 0, len(hits))
	for _, h := range hits {
		doc := &schema.Document{ID: h.p.ID, Content: h.p.Content, MetaData: cloneMeta(h.p.MetaData)}
		docs = append(docs, doc.WithScore(h.score))
	}
	return docs, nil
}

func (idx *BoltIndex) GetType() string {
	return "BoltIndex"
}

func cloneMeta(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func metaString(meta map[string]any, key string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}

var _ indexer.Indexer = (*BoltIndex)(nil)
