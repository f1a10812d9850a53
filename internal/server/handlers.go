package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/agentic-hr-assistant/server/internal/agent/model"
	errx "github.com/agentic-hr-assistant/server/internal/core/error"
	logx "github.com/agentic-hr-assistant/server/pkg/logger"
)

// maxBodyBytes caps POST /ask payloads.
const maxBodyBytes = 64 << 10

type RootResponse struct {
	Message string   `json:"message"`
	Tech    []string `json:"tech"`
	Status  string   `json:"status"`
}

type HealthResponse struct {
	Service         string   `json:"service"`
	Status          string   `json:"status"`
	LLM             string   `json:"llm"`
	VectorDB        string   `json:"vector_db"`
	IndexedPassages int      `json:"indexed_passages"`
	Decisions       []string `json:"decisions"`
}

type AskRequest struct {
	Question       string `json:"question"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type AskResponse struct {
	Answer         string `json:"answer"`
	Decision       string `json:"decision"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type ResetResponse struct {
	ConversationID  string `json:"conversation_id"`
	ClearedMessages int    `json:"cleared_messages"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, RootResponse{
		Message: serviceName + " is running",
		Tech:    []string{"Eino", "RAG", "chi"},
		Status:  "OK",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Service:  serviceName,
		Status:   "healthy",
		LLM:      s.cfg.LLM,
		VectorDB: "bbolt",
	}
	for _, d := range model.Decisions {
		resp.Decisions = append(resp.Decisions, d.String())
	}
	if s.cfg.IndexedPassages != nil {
		resp.IndexedPassages = s.cfg.IndexedPassages()
		if resp.IndexedPassages == 0 {
			resp.Status = "degraded"
		}
	}
	sendJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		sendJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		sendJSON(w, http.StatusBadRequest, ErrorResponse{Error: "question is required"})
		return
	}
	logx.Info().Str("conversation_id", req.ConversationID).Str("question", question).Msg("User question")

	if req.ConversationID != "" && s.cfg.Sessions != nil {
		turn, err := s.cfg.Sessions.Ask(r.Context(), req.ConversationID, question)
		if err != nil {
			sendError(w, err)
			return
		}
		sendJSON(w, http.StatusOK, AskResponse{
			Answer:         turn.Reply,
			Decision:       turn.Decision.String(),
			ConversationID: turn.ConversationID,
		})
		return
	}

	out, err := s.cfg.Runner.Invoke(r.Context(), model.NewConversationState(question))
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, AskResponse{Answer: out.LastContent(), Decision: out.Decision.String()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")
	if s.cfg.Sessions == nil {
		sendJSON(w, http.StatusNotFound, ErrorResponse{Error: "conversations are not enabled"})
		return
	}
	n, err := s.cfg.Sessions.Reset(r.Context(), id)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, ResetResponse{ConversationID: id, ClearedMessages: n})
}

func sendError(w http.ResponseWriter, err error) {
	status := errx.StatusOf(err)
	if status >= http.StatusInternalServerError {
		logx.Error().Err(err).Int("status", status).Msg("Request failed")
	}
	sendJSON(w, status, ErrorResponse{Error: errx.PublicMessage(err)})
}

func sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logx.Warn().Err(err).Msg("Failed to write response")
	}
}
