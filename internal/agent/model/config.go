package model

import "time"

// ================ Config ================
type ConversationConfig struct {
	TTL   time.Duration `envconfig:"CONVERSATION_TTL" default:"15m"`
	Store string        `envconfig:"CONVERSATION_STORE" default:"memory"`
}

type AgentConfig struct {
	MaxRetries int `envconfig:"AGENT_MAX_RETRIES" default:"2"`
}

type AnswerModelConfig struct {
	Model       string  `envconfig:"ANSWER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"ANSWER_MAX_TOKENS" default:"1024"`
	Temperature float32 `envconfig:"ANSWER_TEMPERATURE" default:"0.2"`
}

type RetrieverConfig struct {
	TopK           int    `envconfig:"RETRIEVER_TOP_K" default:"3"`
	IndexPath      string `envconfig:"RETRIEVER_INDEX_PATH" default:"knowledgebase/policy_index.db"`
	Embedder       string `envconfig:"RETRIEVER_EMBEDDER" default:"gemini"`
	EmbeddingModel string `envconfig:"RETRIEVER_EMBEDDING_MODEL" default:"text-embedding-004"`
}

type IndexConfig struct {
	Manifest     string `envconfig:"INDEX_MANIFEST" default:"knowledgebase/manifest.yaml"`
	ChunkSize    int    `envconfig:"INDEX_CHUNK_SIZE" default:"500"`
	ChunkOverlap int    `envconfig:"INDEX_CHUNK_OVERLAP" default:"50"`
}

type ServerConfig struct {
	Addr           string        `envconfig:"SERVER_ADDR" default:":8000"`
	CORSOrigins    []string      `envconfig:"SERVER_CORS_ORIGINS" default:"*"`
	RequestTimeout time.Duration `envconfig:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}
