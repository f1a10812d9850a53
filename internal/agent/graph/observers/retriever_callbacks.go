package observers

import (
	"context"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/retriever"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/agentic-hr-assistant/server/pkg/logger"
)

// newRetrieverHandler logs the query, the country filter and the passages found.
func newRetrieverHandler() *callbackHelper.RetrieverCallbackHandler {
	return &callbackHelper.RetrieverCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *retriever.CallbackInput) context.Context {
			ev := logx.Debug().Str("component", "retriever").Str("name", info.Name)
			if input != nil {
				ev = ev.Str("query", input.Query).Int("top_k", input.TopK).Str("filter", input.Filter)
			}
			ev.Msg("Retriever start")
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *retriever.CallbackOutput) context.Context {
			ev := logx.Debug().Str("component", "retriever").Str("name", info.Name)
			if output != nil {
				ids := make([]string, 0, len(output.Docs))
				for _, d := range output.Docs {
					if d != nil {
						ids = append(ids, d.ID)
					}
				}
				ev = ev.Strs("passages", ids)
			}
			ev.Msg("Retriever end")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Warn().Err(err).Str("component", "retriever").Str("name", info.Name).Msg("Retriever error")
			return ctx
		},
	}
}
