package analyzer

import (
	"context"

	apperrors "github.com/anime-shed/image-discovery-go/internal/errors"
	"github.com/anime-shed/image-discovery-go/internal/logger"
	"github.com/anime-shed/image-discovery-go/internal/model"
	"github.com/anime-shed/image-discovery-go/internal/strategy"
)

// Invocation is the raw model answer plus the citation URLs found in the
// provider metadata.
type Invocation struct {
	Text          string
	GroundingURLs []string
	Decision      strategy.TransportDecision
}

type modelInvoker struct {
	provider model.Provider
	options  Options
}

// NewModelInvoker creates an invoker bound to provider.
func NewModelInvoker(provider model.Provider, options Options) ModelInvoker {
	return &modelInvoker{provider: provider, options: options}
}

func (m *modelInvoker) Invoke(ctx context.Context, data []byte, prompt string) (*Invocation, error) {
	decision := strategy.Decide(len(data), m.options.InlineMaxImageBytes)
	transport := strategy.For(decision)

	genOpts := model.GenerateOptions{Grounding: m.options.GroundingEnabled}
	if !m.options.GroundingEnabled {
		genOpts.Schema = model.AnalysisSchema()
	}

	callCtx := ctx
	if m.options.ModelTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, m.options.ModelTimeout)
		defer cancel()
	}

	logger.WithFields(map[string]interface{}{
		"transport":  transport.GetStrategyName(),
		"size_bytes": len(data),
		"grounding":  genOpts.Grounding,
	}).Debug("invoking model")

	gen, err := transport.Generate(callCtx, m.provider, strategy.Payload{Data: data, MIMEType: "image/jpeg"}, prompt, genOpts)
	if err != nil {
		return nil, toAppError(model.Classify(err))
	}

	return &Invocation{
		Text:          gen.Text,
		GroundingURLs: model.ExtractGroundingURLs(gen.Response),
		Decision:      decision,
	}, nil
}

func toAppError(perr *model.ProviderError) error {
	switch perr.Kind {
	case model.FailureTimeout:
		return apperrors.NewUpstreamTimeoutError("model provider timed out", perr)
	case model.FailureUnavailable:
		return apperrors.NewUpstreamUnavailableError("model provider unavailable", perr)
	case model.FailureCanceled:
		// Reported exactly like a cancellation noticed between stages.
		return apperrors.NewTimeoutError("analysis cancelled", perr)
	default:
		return apperrors.NewUpstreamError("model provider error: "+perr.Message, perr)
	}
}
