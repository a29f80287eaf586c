// Package textgen implements the text generation gateway: a capability
// boundary over external LLM providers with primary/fallback selection and a
// per-provider failure cache. The conversation core consumes only the Result
// and never performs retries itself.
package textgen

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Request is the value object passed to the gateway.
type Request struct {
	Prompt            string
	MaxTokens         int
	Temperature       float32
	PreferredProvider string
}

// Result carries the generated content plus provenance. If Successful is
// false, Content must not be trusted for parsing.
type Result struct {
	Content      string
	Successful   bool
	ErrorMessage string
	Provider     string
	Model        string
}

// Provider is a single text generation backend.
type Provider interface {
	// Name identifies the provider ("gemini", "openai").
	Name() string

	// Model reports the configured model name.
	Model() string

	// Generate produces text for the given request.
	Generate(ctx context.Context, req Request) (string, error)
}

// failureCooldown is how long a provider is skipped after a failure.
const failureCooldown = time.Minute

// Gateway selects among providers, preferring the primary and falling back
// to the others on failure. Recently failed providers are skipped until
// their cooldown expires. This failure cache is the only state the gateway
// holds; it is safe for concurrent use.
type Gateway struct {
	providers []Provider
	primary   string
	timeout   time.Duration
	logger    *slog.Logger

	mu       sync.Mutex
	lastFail map[string]time.Time
}

// NewGateway creates a gateway over the given providers. primary names the
// preferred provider; requests may override it via PreferredProvider.
func NewGateway(providers []Provider, primary string, timeout time.Duration, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		providers: providers,
		primary:   primary,
		timeout:   timeout,
		logger:    logger.With("component", "textgen_gateway"),
		lastFail:  make(map[string]time.Time),
	}
}

// Generate runs the request against the preferred provider, falling back to
// the remaining providers in order. It never returns an error: failures are
// reported through the Result.
func (g *Gateway) Generate(ctx context.Context, req Request) Result {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	preferred := req.PreferredProvider
	if preferred == "" {
		preferred = g.primary
	}

	var lastErr string
	for _, p := range g.orderedProviders(preferred) {
		if g.coolingDown(p.Name()) {
			g.logger.DebugContext(ctx, "Skipping provider in failure cooldown", "provider", p.Name())
			continue
		}

		content, err := p.Generate(ctx, req)
		if err != nil {
			g.markFailure(p.Name())
			g.logger.WarnContext(ctx, "Provider generation failed", "provider", p.Name(), "error", err)
			lastErr = err.Error()
			continue
		}

		return Result{
			Content:    content,
			Successful: true,
			Provider:   p.Name(),
			Model:      p.Model(),
		}
	}

	if lastErr == "" {
		lastErr = "no text generation provider available"
	}
	g.logger.ErrorContext(ctx, "All providers failed", "error", lastErr)
	return Result{
		Successful:   false,
		ErrorMessage: lastErr,
	}
}

// ResetHealth clears the failure cache so all providers become eligible again.
func (g *Gateway) ResetHealth() {
	g.mu.Lock()
	defer g.mu.Unlock()
	clear(g.lastFail)
}

func (g *Gateway) orderedProviders(preferred string) []Provider {
	ordered := make([]Provider, 0, len(g.providers))
	for _, p := range g.providers {
		if p.Name() == preferred {
			ordered = append(ordered, p)
		}
	}
	for _, p := range g.providers {
		if p.Name() != preferred {
			ordered = append(ordered, p)
		}
	}
	return ordered
}

func (g *Gateway) coolingDown(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	failedAt, ok := g.lastFail[name]
	return ok && time.Since(failedAt) < failureCooldown
}

func (g *Gateway) markFailure(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastFail[name] = time.Now()
}
