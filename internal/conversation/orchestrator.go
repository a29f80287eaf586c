package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vhouse/vhouse/internal/database"
	"github.com/vhouse/vhouse/internal/textgen"
)

// User-facing degraded messages. Kept in Spanish to match the distributor's
// customer base.
const (
	msgCustomerNotFound = "No encontramos una cuenta con ese identificador de cliente. Por favor verifique los datos o contacte a soporte."
	msgGenerationFailed = "No podemos procesar su solicitud en este momento. Por favor intente más tarde o contacte a soporte."
	msgInternalError    = "Ocurrió un error interno. Por favor intente más tarde."
)

// Generator is the gateway capability the orchestrator consumes.
type Generator interface {
	Generate(ctx context.Context, req textgen.Request) textgen.Result
}

// Notifier pushes alerts to a back-office channel. Implementations must be
// best effort; failures never affect the response.
type Notifier interface {
	Notify(ctx context.Context, customerID int64, priority Priority, alerts []Alert)
}

// Options holds the orchestrator's tunables.
type Options struct {
	MaxTokens   int
	Temperature float32
}

// Orchestrator sequences the conversation pipeline: context, prompt,
// generation, parsing, grounding, rules, and financial summary. It holds no
// per-request state and is safe for concurrent use.
type Orchestrator struct {
	store      database.Store
	gateway    Generator
	contexts   *ContextBuilder
	prompts    *PromptEngine
	parser     *Parser
	validator  *Validator
	rules      *RuleEvaluator
	summarizer *Summarizer
	notifier   Notifier
	opts       Options
	log        *slog.Logger
}

// NewOrchestrator wires the pipeline components together. notifier may be nil.
func NewOrchestrator(
	store database.Store,
	gateway Generator,
	contexts *ContextBuilder,
	prompts *PromptEngine,
	parser *Parser,
	validator *Validator,
	rules *RuleEvaluator,
	summarizer *Summarizer,
	notifier Notifier,
	opts Options,
	log *slog.Logger,
) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		store:      store,
		gateway:    gateway,
		contexts:   contexts,
		prompts:    prompts,
		parser:     parser,
		validator:  validator,
		rules:      rules,
		summarizer: summarizer,
		notifier:   notifier,
		opts:       opts,
		log:        log.With("component", "orchestrator"),
	}
}

// ProcessConversation handles a general business conversation request:
// context, prompt, generation, and priority classification. Order extraction
// happens on the dedicated order path (ProcessComplexOrder).
func (o *Orchestrator) ProcessConversation(ctx context.Context, req Request) (resp *Response) {
	startTime := time.Now()
	defer func() { o.audit(ctx, "conversation:"+string(req.Kind), req.CustomerID, resp) }()
	defer o.recoverToResponse(ctx, &resp, startTime)

	bc, failResp := o.buildContext(ctx, req.CustomerID)
	if failResp != nil {
		failResp.Priority = DeterminePriority(req.Message, req.Kind)
		return o.finish(failResp, startTime)
	}

	catalog := o.loadCatalog(ctx)
	prompt := o.prompts.BuildConversation(req.Kind, bc, catalog, req.Message)

	result := o.gateway.Generate(ctx, textgen.Request{
		Prompt:      prompt,
		MaxTokens:   o.opts.MaxTokens,
		Temperature: o.opts.Temperature,
	})
	if !result.Successful {
		return o.finish(o.degradedResponse(result), startTime)
	}

	priority := DeterminePriority(req.Message, req.Kind)
	resp = &Response{
		ResponseText:       result.Content,
		ContextLabel:       string(req.Kind),
		Priority:           priority,
		ExtractedItems:     []ExtractedOrderItem{},
		Alerts:             []Alert{},
		MissingInformation: []string{},
		Provider:           result.Provider,
		Model:              result.Model,
		Successful:         true,
	}
	o.notify(ctx, req.CustomerID, priority, nil)
	return o.finish(resp, startTime)
}

// GenerateEmail handles an email generation request. The parser guarantees a
// well-formed subject/body pair under any generator output.
func (o *Orchestrator) GenerateEmail(ctx context.Context, req EmailRequest) (resp *Response) {
	startTime := time.Now()
	defer func() { o.audit(ctx, "email:"+string(req.EmailType), req.CustomerID, resp) }()
	defer o.recoverToResponse(ctx, &resp, startTime)

	bc, failResp := o.buildContext(ctx, req.CustomerID)
	if failResp != nil {
		return o.finish(failResp, startTime)
	}

	catalog := o.loadCatalog(ctx)
	prompt := o.prompts.BuildEmail(req.EmailType, bc, catalog, req.Data)

	result := o.gateway.Generate(ctx, textgen.Request{
		Prompt:      prompt,
		MaxTokens:   o.opts.MaxTokens,
		Temperature: o.opts.Temperature,
	})
	if !result.Successful {
		return o.finish(o.degradedResponse(result), startTime)
	}

	email := o.parser.ParseEmail(result.Content)
	resp = &Response{
		ResponseText:       email.Body,
		Subject:            email.Subject,
		Body:               email.Body,
		ContextLabel:       string(req.EmailType),
		Priority:           PriorityLow,
		ExtractedItems:     []ExtractedOrderItem{},
		Alerts:             []Alert{},
		MissingInformation: []string{},
		Provider:           result.Provider,
		Model:              result.Model,
		Successful:         true,
	}
	return o.finish(resp, startTime)
}

// ProcessComplexOrder handles natural-language order extraction: the full
// pipeline including catalog grounding, rule evaluation, and the financial
// summary. No item reaches pricing without a grounded catalog product.
func (o *Orchestrator) ProcessComplexOrder(ctx context.Context, req OrderRequest) (resp *Response) {
	startTime := time.Now()
	defer func() { o.audit(ctx, "order", req.CustomerID, resp) }()
	defer o.recoverToResponse(ctx, &resp, startTime)

	bc, failResp := o.buildContext(ctx, req.CustomerID)
	if failResp != nil {
		failResp.Priority = DeterminePriority(req.Text, KindOrderInquiry)
		return o.finish(failResp, startTime)
	}

	catalog := o.loadCatalog(ctx)
	prompt := o.prompts.BuildOrderExtraction(bc, catalog, req.Text, req.FreeformContext)

	result := o.gateway.Generate(ctx, textgen.Request{
		Prompt:      prompt,
		MaxTokens:   o.opts.MaxTokens,
		Temperature: o.opts.Temperature,
	})
	if !result.Successful {
		degraded := o.degradedResponse(result)
		degraded.Priority = DeterminePriority(req.Text, KindOrderInquiry)
		return o.finish(degraded, startTime)
	}

	parsed := o.parser.ParseOrder(result.Content, catalog)

	grounded, missing := o.validator.Ground(parsed.Items, catalog)
	missing = append(parsed.MissingInfo, missing...)
	if missing == nil {
		missing = []string{}
	}

	summary := o.summarizer.Summarize(grounded)
	alerts := o.rules.Evaluate(grounded, parsed.Items, &summary, bc, catalog)
	if alerts == nil {
		alerts = []Alert{}
	}
	priority := DeterminePriority(req.Text, KindOrderInquiry)

	if grounded == nil {
		grounded = []ExtractedOrderItem{}
	}
	resp = &Response{
		ResponseText:       orderResponseText(grounded, missing),
		ContextLabel:       "order",
		Priority:           priority,
		ExtractedItems:     grounded,
		OrderSummary:       &summary,
		Alerts:             alerts,
		PaymentTerms:       parsed.PaymentTerms,
		DeliveryDate:       parsed.DeliveryDate,
		MissingInformation: missing,
		Provider:           result.Provider,
		Model:              result.Model,
		Successful:         true,
	}
	o.notify(ctx, req.CustomerID, priority, alerts)
	return o.finish(resp, startTime)
}

// buildContext builds the business context, converting a customer-not-found
// into a short-circuit failure response so no gateway call is made.
func (o *Orchestrator) buildContext(ctx context.Context, customerID int64) (*BusinessContext, *Response) {
	bc, err := o.contexts.Build(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			return nil, &Response{
				ResponseText:       msgCustomerNotFound,
				ContextLabel:       "customer_not_found",
				Priority:           PriorityLow,
				ExtractedItems:     []ExtractedOrderItem{},
				Alerts:             []Alert{},
				MissingInformation: []string{},
				Successful:         false,
				ErrorMessage:       fmt.Sprintf("customer %d not found", customerID),
			}
		}
		o.log.ErrorContext(ctx, "Context build failed", "customer_id", customerID, "error", err)
		return nil, &Response{
			ResponseText:       msgInternalError,
			ContextLabel:       "internal_error",
			Priority:           PriorityLow,
			ExtractedItems:     []ExtractedOrderItem{},
			Alerts:             []Alert{},
			MissingInformation: []string{},
			Successful:         false,
			ErrorMessage:       err.Error(),
		}
	}
	return bc, nil
}

// loadCatalog reads the active in-stock catalog snapshot. An empty catalog
// is a valid (if unfortunate) state, not an error.
func (o *Orchestrator) loadCatalog(ctx context.Context) []database.Product {
	catalog, err := o.store.GetActiveProducts(ctx)
	if err != nil {
		o.log.ErrorContext(ctx, "Failed to load catalog, continuing with empty excerpt", "error", err)
		return nil
	}
	return catalog
}

func (o *Orchestrator) degradedResponse(result textgen.Result) *Response {
	return &Response{
		ResponseText:       msgGenerationFailed,
		ContextLabel:       "generation_failed",
		Priority:           PriorityLow,
		ExtractedItems:     []ExtractedOrderItem{},
		Alerts:             []Alert{},
		MissingInformation: []string{},
		Provider:           result.Provider,
		Successful:         false,
		ErrorMessage:       result.ErrorMessage,
	}
}

func (o *Orchestrator) finish(resp *Response, startTime time.Time) *Response {
	resp.ResponseTimeMs = time.Since(startTime).Milliseconds()
	return resp
}

// recoverToResponse converts any unexpected fault into a generic
// internal-error response; the fault never propagates to the caller.
func (o *Orchestrator) recoverToResponse(ctx context.Context, resp **Response, startTime time.Time) {
	if r := recover(); r != nil {
		o.log.ErrorContext(ctx, "Unexpected fault in conversation pipeline", "panic", r)
		*resp = &Response{
			ResponseText:       msgInternalError,
			ContextLabel:       "internal_error",
			Priority:           PriorityLow,
			ExtractedItems:     []ExtractedOrderItem{},
			Alerts:             []Alert{},
			MissingInformation: []string{},
			Successful:         false,
			ErrorMessage:       fmt.Sprintf("internal error: %v", r),
			ResponseTimeMs:     time.Since(startTime).Milliseconds(),
		}
	}
}

// audit writes the conversation log record. Best effort, outside the request
// cancellation scope.
func (o *Orchestrator) audit(ctx context.Context, kind string, customerID int64, resp *Response) {
	if resp == nil {
		return
	}
	entry := &database.ConversationLog{
		Kind:       kind,
		Successful: resp.Successful,
		Provider:   resp.Provider,
		ElapsedMs:  resp.ResponseTimeMs,
	}
	if customerID != 0 {
		entry.CustomerID = sql.NullInt64{Int64: customerID, Valid: true}
	}

	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := o.store.SaveConversationLog(logCtx, entry); err != nil {
		o.log.WarnContext(ctx, "Failed to save conversation log", "kind", kind, "error", err)
	}
}

func (o *Orchestrator) notify(ctx context.Context, customerID int64, priority Priority, alerts []Alert) {
	if o.notifier == nil {
		return
	}
	if priority != PriorityUrgent && !hasActionableAlert(alerts) {
		return
	}
	o.notifier.Notify(ctx, customerID, priority, alerts)
}

func hasActionableAlert(alerts []Alert) bool {
	for _, a := range alerts {
		if a.Priority == PriorityHigh || a.Priority == PriorityUrgent {
			return true
		}
	}
	return false
}

func orderResponseText(items []ExtractedOrderItem, missing []string) string {
	switch {
	case len(items) == 0 && len(missing) > 0:
		return "No pudimos confirmar productos del catálogo en su pedido. Un asesor revisará su solicitud."
	case len(items) == 0:
		return "No identificamos productos en su mensaje. ¿Podría indicar qué artículos necesita?"
	case len(missing) > 0:
		return fmt.Sprintf("Identificamos %d producto(s) de su pedido. Algunos artículos requieren confirmación de un asesor.", len(items))
	default:
		return fmt.Sprintf("Identificamos %d producto(s) de su pedido. Le enviaremos la confirmación con el total estimado.", len(items))
	}
}
