package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/agentic-hr-assistant/server/internal/agent/graph"
	"github.com/agentic-hr-assistant/server/internal/agent/graph/conversations"
	"github.com/agentic-hr-assistant/server/internal/agent/graph/nodes"
	"github.com/agentic-hr-assistant/server/internal/agent/metrics"
	"github.com/agentic-hr-assistant/server/internal/agent/rag"
	errx "github.com/agentic-hr-assistant/server/internal/core/error"
	"github.com/agentic-hr-assistant/server/internal/server"
	logx "github.com/agentic-hr-assistant/server/pkg/logger"
)

func graphConfig(cfg *AppConfig, recorder *metrics.Recorder) graph.Config {
	return graph.Config{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		AnswerModel: cfg.Answer,
		Agent:       cfg.Agent,
		Retriever:   cfg.Retriever,
		Metrics:     recorder,
	}
}

func newChatCmd(cfg *AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			agent, err := graph.BuildHRGraph(ctx, graphConfig(cfg, nil))
			if err != nil {
				return fmt.Errorf("failed to build graph: %w", err)
			}
			defer agent.Close()

			conversationRepo, cleanup, err := newConversationRepository(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			sm := conversations.NewSessionManager(conversationRepo, agent)
			return runChat(ctx, sm, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// runChat reads one question per line until "exit", end of input, or the
// assistant hands the conversation over to HR.
func runChat(ctx context.Context, sm *conversations.SessionManager, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "\nHR Bot started. Type 'exit' to quit.")
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(in)
	conversationID := ""
	for {
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(text, "exit") {
			fmt.Fprintln(out, "Bot: Goodbye 👋")
			return nil
		}
		if text == "" {
			continue
		}

		turn, err := sm.Ask(ctx, conversationID, text)
		if err != nil {
			return err
		}
		conversationID = turn.ConversationID
		fmt.Fprintln(out, "Bot:", turn.Reply)

		if turn.Terminal {
			return nil
		}
	}
}

func newServeCmd(cfg *AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the assistant over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			recorder := metrics.NewRecorder(reg)

			agent, err := graph.BuildHRGraph(ctx, graphConfig(cfg, recorder))
			if err != nil {
				return fmt.Errorf("failed to build graph: %w", err)
			}
			defer agent.Close()

			conversationRepo, cleanup, err := newConversationRepository(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			srv := server.New(server.Config{
				Addr:            cfg.Server.Addr,
				CORSOrigins:     cfg.Server.CORSOrigins,
				RequestTimeout:  cfg.Server.RequestTimeout,
				Runner:          agent,
				Sessions:        conversations.NewSessionManager(conversationRepo, agent),
				Gatherer:        reg,
				IndexedPassages: agent.IndexedPassages,
				LLM:             cfg.Answer.Model,
			})
			return srv.Serve(ctx)
		},
	}
}

func newIndexCmd(cfg *AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Build the policy index from the knowledge-base manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			manifest, err := rag.LoadManifest(cfg.Index.Manifest)
			if err != nil {
				return err
			}

			embedder, err := newDocumentEmbedder(ctx, cfg)
			if err != nil {
				return err
			}

			splitter, err := rag.NewPolicySplitter(ctx, cfg.Index.ChunkSize, cfg.Index.ChunkOverlap)
			if err != nil {
				return err
			}

			loader, err := rag.NewPolicyLoader(ctx)
			if err != nil {
				return err
			}

			index, err := rag.OpenBoltIndex(cfg.Retriever.IndexPath, embedder)
			if err != nil {
				return err
			}
			defer index.Close()

			report, err := rag.BuildIndex(ctx, rag.BuildConfig{
				Manifest:    manifest,
				Loader:      loader,
				Transformer: splitter,
				Index:       index,
			})
			if err != nil {
				return errx.WrapUpstream(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d chunks from %d documents into %s\n",
				report.Chunks, report.Documents, cfg.Retriever.IndexPath)
			return nil
		},
	}
}

func newDocumentEmbedder(ctx context.Context, cfg *AppConfig) (embedding.Embedder, error) {
	if strings.EqualFold(cfg.Retriever.Embedder, rag.EmbedderHash) {
		return rag.NewEmbedder(rag.EmbedderHash, nil, "", "")
	}
	client, err := nodes.NewGeminiClient(ctx, cfg.APIKey, cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	logx.Debug().Str("model", cfg.Retriever.EmbeddingModel).Msg("Embedding policy passages with Gemini")
	return rag.NewEmbedder(cfg.Retriever.Embedder, client, cfg.Retriever.EmbeddingModel, rag.TaskRetrievalDocument)
}
