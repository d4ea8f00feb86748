package conversation

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"

	"goa.design/convo/config"
	"goa.design/convo/runtime/blobstore"
	"goa.design/convo/runtime/catalog"
	"goa.design/convo/runtime/catalog/typefactory"
	"goa.design/convo/runtime/executor"
	"goa.design/convo/runtime/instrumentation"
	"goa.design/convo/runtime/planerrors"
	"goa.design/convo/runtime/planparse"
	"goa.design/convo/runtime/planresolve"
	"goa.design/convo/runtime/planverify"
	"goa.design/convo/runtime/retryprompt"
	"goa.design/convo/runtime/workingcontext"
	"goa.design/convo/telemetry"

	"goa.design/convo/runtime/plan"
)

// ModelClient is the out-of-scope "language model" collaborator from
// spec.md §1: a chat client that accepts ordered system messages plus a
// single user message and returns raw text. The Conversation Manager never
// inspects or retries the model call itself — one turn is one call.
type ModelClient interface {
	Complete(ctx context.Context, systemMessages []string, userMessage string) (string, error)
}

// mode distinguishes the two mutually exclusive persistence modes a Manager
// may run in.
type mode int

const (
	modeUnset mode = iota
	modeStore
	modeBlob
)

// Option configures a Manager at construction time.
type Option func(*Manager)

// WithStore selects store-backed persistence mode: State is loaded and
// saved through the given Store keyed by session id.
func WithStore(store Store) Option {
	return func(m *Manager) {
		m.store = store
		m.mode = modeStore
	}
}

// WithBlobMode selects opaque-blob persistence mode: callers pass the
// previous turn's blob and receive the next turn's blob back. migrations
// may be nil to use the configured Config.SchemaVersion with no migration
// chain.
func WithBlobMode(migrations *blobstore.MigrationRegistry) Option {
	return func(m *Manager) {
		m.migrations = migrations
		m.mode = modeBlob
	}
}

// WithConfig overrides the default Config.
func WithConfig(cfg config.Config) Option {
	return func(m *Manager) { m.cfg = cfg }
}

// WithWorkingContextRegistry supplies the registry used to look up
// augmenters for working-context-driven message prefixing.
func WithWorkingContextRegistry(reg *workingcontext.Registry) Option {
	return func(m *Manager) { m.wcRegistry = reg }
}

// WithSystemMessages sets the base system messages (persona, DSL guidance,
// planning directive) sent on every turn, before any retry addendum.
func WithSystemMessages(msgs []string) Option {
	return func(m *Manager) { m.systemMessages = append([]string(nil), msgs...) }
}

// WithTypeFactories supplies the typefactory.Registry used to coerce
// catalog.TypeComplex parameters during plan resolution. Defaults to an
// empty registry, which only matters if the catalog declares complex
// parameters.
func WithTypeFactories(types *typefactory.Registry) Option {
	return func(m *Manager) { m.types = types }
}

// WithInstrumentation routes the Plan Executor's REQUESTED/STARTED/
// SUCCEEDED/FAILED events for each turn's action invocations to emitter,
// under a correlation id minted per turn.
func WithInstrumentation(emitter *instrumentation.Emitter) Option {
	return func(m *Manager) { m.emitter = emitter }
}

// WithLogger sets the structured logger used for turn-level logging.
// Defaults to a no-op logger.
func WithLogger(logger telemetry.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithMetrics sets the metrics recorder the Plan Executor reports per-step
// counters and timers to. Defaults to a no-op recorder.
func WithMetrics(metrics telemetry.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithTracer sets the tracer used to span the model call and each executed
// action. Defaults to a no-op tracer.
func WithTracer(tracer telemetry.Tracer) Option {
	return func(m *Manager) { m.tracer = tracer }
}

// Manager orchestrates one conversational turn: load state, call the model,
// parse and verify the response into a Plan, resolve and execute it when
// ready, merge newly provided parameters into state, and persist. Exactly
// one persistence mode may be configured per instance (spec §4.6).
type Manager struct {
	catalog        *catalog.Catalog
	model          ModelClient
	cfg            config.Config
	wcRegistry     *workingcontext.Registry
	systemMessages []string
	types          *typefactory.Registry

	emitter *instrumentation.Emitter
	logger  telemetry.Logger
	metrics telemetry.Metrics
	tracer  telemetry.Tracer

	mode       mode
	store      Store
	migrations *blobstore.MigrationRegistry

	capturedPrompt string
}

// NewManager constructs a Manager. cat and model are required; at least one
// of WithStore or WithBlobMode must be supplied before Converse/ConverseBlob
// is called, or those calls fail with a WrongMode error.
func NewManager(cat *catalog.Catalog, model ModelClient, opts ...Option) *Manager {
	m := &Manager{
		catalog: cat,
		model:   model,
		cfg:     config.Default(),
		types:   typefactory.New(),
		logger:  telemetry.NewNoopLogger(),
		metrics: telemetry.NewNoopMetrics(),
		tracer:  telemetry.NewNoopTracer(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// effectiveMigrations returns the MigrationRegistry blob (de)serialization
// should use: an explicitly configured registry from WithBlobMode, or one
// seeded from cfg.SchemaVersion when none was supplied.
func (m *Manager) effectiveMigrations() *blobstore.MigrationRegistry {
	if m.migrations != nil {
		return m.migrations
	}
	return blobstore.NewMigrationRegistry(m.cfg.SchemaVersion)
}

// TurnResult is returned by one Converse/ConverseBlob call.
type TurnResult struct {
	Plan          *plan.Plan
	State         *State
	PendingParams []plan.PendingParam
	NewlyProvided map[string]any
	// Execution holds the Plan Executor's outcome when the turn's resolved
	// plan reached StatusReady; nil for Pending or Error plans.
	Execution *executor.ExecutionResult
	// Blob is populated only in blob mode.
	Blob []byte
}

// Converse drives one turn in store-backed mode, keyed by sessionID.
func (m *Manager) Converse(ctx context.Context, userMessage, sessionID string) (*TurnResult, error) {
	if m.mode != modeStore {
		return nil, planerrors.New(planerrors.KindWrongMode, "manager is not configured for store-backed mode")
	}
	prior, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	result, err := m.converse(ctx, userMessage, prior)
	if err != nil {
		return nil, err
	}
	if err := m.store.Save(ctx, sessionID, result.State); err != nil {
		return nil, err
	}
	return result, nil
}

// ConverseBlob drives one turn in opaque-blob mode. priorBlob is nil (or
// empty) on the first turn; deserialization failures propagate as
// IntegrityError/MigrationError per spec §7 tier 2 and abort the turn
// without producing a new blob.
func (m *Manager) ConverseBlob(ctx context.Context, userMessage string, priorBlob []byte) (*TurnResult, error) {
	if m.mode != modeBlob {
		return nil, planerrors.New(planerrors.KindWrongMode, "manager is not configured for blob mode")
	}
	var prior *State
	if len(priorBlob) > 0 {
		doc, err := blobstore.Deserialize(priorBlob, m.effectiveMigrations())
		if err != nil {
			return nil, err
		}
		prior = fromDoc(doc)
	}
	result, err := m.converse(ctx, userMessage, prior)
	if err != nil {
		return nil, err
	}
	blob, err := blobstore.Serialize(result.State.toDoc(), m.effectiveMigrations())
	if err != nil {
		return nil, err
	}
	result.Blob = blob
	return result, nil
}

// Expire yields the terminal result for a session: a plan with no steps and
// the message "Session expired", empty state, and (in blob mode) a freshly
// serialized empty blob. It never
// touches the store.
func (m *Manager) Expire() *TurnResult {
	empty := Empty()
	result := &TurnResult{
		Plan:  plan.Empty("Session expired"),
		State: empty,
	}
	if m.mode == modeBlob {
		blob, err := blobstore.Serialize(empty.toDoc(), m.effectiveMigrations())
		if err == nil {
			result.Blob = blob
		}
	}
	return result
}

// CapturedPrompt returns the most recently assembled effective user message
// when config.CaptureReadablePrompt is enabled; otherwise it returns "".
func (m *Manager) CapturedPrompt() string { return m.capturedPrompt }

func (m *Manager) converse(ctx context.Context, userMessage string, prior *State) (*TurnResult, error) {
	correlationID := uuid.New().String()
	m.logger.Info(ctx, "turn started", "correlation_id", correlationID)

	state := prior
	if state == nil {
		state = Initial(userMessage)
	} else {
		state = state.clone()
		state.LatestUserMessage = userMessage
	}

	systemMessages := append([]string(nil), m.systemMessages...)
	if addendum, ok := retryprompt.Build(retryprompt.Input{
		OriginalInstruction: state.OriginalInstruction,
		ProvidedParams:      state.ProvidedParams,
		PendingParams:       toRetryPending(state.PendingParams),
		LatestUserMessage:   userMessage,
	}); ok {
		systemMessages = append(systemMessages, addendum)
	}

	effectiveUserMessage := m.augmentUserMessage(state, userMessage)
	if m.cfg.CaptureReadablePrompt {
		m.capturedPrompt = effectiveUserMessage
	}

	modelCtx, span := m.tracer.Start(ctx, "conversation.model_call")
	raw, err := m.model.Complete(modelCtx, systemMessages, effectiveUserMessage)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		m.logger.Error(ctx, "turn failed", "correlation_id", correlationID, "error", err)
		return nil, planerrors.NewWithCause(planerrors.KindPlanParse, "model invocation failed", err)
	}
	span.End()

	p := planparse.Parse(raw, m.catalog)
	p = planverify.Verify(p, m.catalog)

	pending := p.PendingParams()
	newlyProvided := map[string]any{}
	if len(p.Steps) > 0 {
		if ps, ok := p.Steps[0].(plan.PendingActionStep); ok {
			newlyProvided = ps.ProvidedParams.ToMap()
		}
	}

	nextState := &State{
		OriginalInstruction: state.OriginalInstruction,
		PendingParams:       pending,
		ProvidedParams:      mergeProvided(state.ProvidedParams, newlyProvided),
		LatestUserMessage:   userMessage,
		WorkingContext:      state.WorkingContext,
		TurnHistory:         trimHistory(state.TurnHistory, m.cfg.MaxHistorySize),
	}

	result := &TurnResult{
		Plan:          p,
		State:         nextState,
		PendingParams: pending,
		NewlyProvided: newlyProvided,
	}

	resolved := planresolve.Resolve(p, m.catalog, m.types)
	if resolved.Status() == plan.StatusReady {
		execOpts := []executor.Option{
			executor.WithContext(ctx),
			executor.WithMetrics(m.metrics),
			executor.WithTracer(m.tracer),
		}
		if m.emitter != nil {
			execOpts = append(execOpts, executor.WithEmitter(m.emitter, correlationID))
		}
		execResult := executor.Execute(resolved, m.catalog, nil, execOpts...)
		result.Execution = &execResult
		if !result.Execution.Success {
			m.logger.Warn(ctx, "turn execution failed", "correlation_id", correlationID, "reason", result.Execution.NotExecutedReason)
		}
	}

	m.logger.Info(ctx, "turn completed", "correlation_id", correlationID, "plan_status", resolved.Status())
	return result, nil
}

// augmentUserMessage implements spec §4.6's working-context augmentation:
// when enabled and a WorkingContext is set, prepend the registered
// augmenter's output to the user message.
func (m *Manager) augmentUserMessage(state *State, userMessage string) string {
	if !m.cfg.AugmentUserMessage || state.WorkingContext == nil || m.wcRegistry == nil {
		return userMessage
	}
	aug, ok := m.wcRegistry.GetAugmenter(state.WorkingContext.ContextType)
	if !ok || !aug.ShouldAugment(*state.WorkingContext) {
		return userMessage
	}
	prefix, ok := aug.FormatForUserMessage(*state.WorkingContext, workingcontext.AugmentConfig{
		ContextPrefix: m.cfg.ContextPrefix,
		RequestPrefix: m.cfg.RequestPrefix,
	})
	if !ok || prefix == "" {
		return userMessage
	}
	return m.cfg.ContextPrefix + " " + prefix + "\n\n" + m.cfg.RequestPrefix + " " + userMessage
}

func toRetryPending(pending []plan.PendingParam) []retryprompt.PendingParam {
	out := make([]retryprompt.PendingParam, len(pending))
	for i, p := range pending {
		out[i] = retryprompt.PendingParam{Name: p.Name, Message: p.Message}
	}
	return out
}
