package conversation

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"goa.design/convo/config"
	"goa.design/convo/runtime/catalog"
	"goa.design/convo/runtime/instrumentation"
	"goa.design/convo/telemetry"
)

// stubModel replays a queue of canned responses, one per Complete call, and
// records the system messages and user message it was given on the most
// recent call.
type stubModel struct {
	responses []string
	calls     int
	lastSys   []string
	lastUser  string
}

func (m *stubModel) Complete(ctx context.Context, systemMessages []string, userMessage string) (string, error) {
	m.lastSys = systemMessages
	m.lastUser = userMessage
	resp := m.responses[m.calls]
	if m.calls < len(m.responses)-1 {
		m.calls++
	}
	return resp, nil
}

type memStore struct {
	states map[string]*State
}

func newMemStore() *memStore { return &memStore{states: make(map[string]*State)} }

func (s *memStore) Load(ctx context.Context, sessionID string) (*State, error) {
	return s.states[sessionID], nil
}

func (s *memStore) Save(ctx context.Context, sessionID string, state *State) error {
	s.states[sessionID] = state
	return nil
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat := catalog.New()
	require.NoError(t, cat.Register(catalog.ActionDescriptor{
		ID:          "send_email",
		Description: "send an email",
		Params: []catalog.ParamDescriptor{
			{Name: "to", Type: catalog.TypeString, Description: "recipient address"},
			{Name: "subject", Type: catalog.TypeString, Description: "subject line"},
		},
		Handler: func(ctx catalog.ExecContext, args []any) (any, error) {
			return "sent", nil
		},
		Mutability: catalog.Mutate,
		ContextKey: "email_result",
	}))
	return cat
}

// recordingLogger captures every message logged, for tests asserting the
// Manager's turn-level logging.
type recordingLogger struct {
	messages []string
}

func (l *recordingLogger) Debug(_ context.Context, msg string, _ ...any) {
	l.messages = append(l.messages, msg)
}
func (l *recordingLogger) Info(_ context.Context, msg string, _ ...any) {
	l.messages = append(l.messages, msg)
}
func (l *recordingLogger) Warn(_ context.Context, msg string, _ ...any) {
	l.messages = append(l.messages, msg)
}
func (l *recordingLogger) Error(_ context.Context, msg string, _ ...any) {
	l.messages = append(l.messages, msg)
}

var _ telemetry.Logger = (*recordingLogger)(nil)

// recordingMetrics captures every metric call it receives, for tests
// asserting the Manager threads a Metrics recorder through to the executor.
type recordingMetrics struct {
	counters []string
}

func (m *recordingMetrics) IncCounter(name string, _ float64, _ ...string) {
	m.counters = append(m.counters, name)
}
func (m *recordingMetrics) RecordTimer(string, time.Duration, ...string) {}
func (m *recordingMetrics) RecordGauge(string, float64, ...string)       {}

var _ telemetry.Metrics = (*recordingMetrics)(nil)

func TestManagerConverseReadyPlan(t *testing.T) {
	cat := testCatalog(t)
	model := &stubModel{responses: []string{
		`{"message":"sending now","steps":[{"actionId":"send_email","description":"email the team","parameters":{"to":"team@example.com","subject":"hi"}}]}`,
	}}
	store := newMemStore()
	mgr := NewManager(cat, model, WithStore(store))

	result, err := mgr.Converse(context.Background(), "email the team saying hi", "session-1")
	require.NoError(t, err)
	require.Equal(t, "sending now", result.Plan.AssistantMessage)
	require.Empty(t, result.PendingParams)
	require.Empty(t, result.State.ProvidedParams)

	saved, err := store.Load(context.Background(), "session-1")
	require.NoError(t, err)
	require.Equal(t, result.State.ProvidedParams, saved.ProvidedParams)
}

func TestManagerConverseExecutesReadyPlan(t *testing.T) {
	cat := testCatalog(t)
	model := &stubModel{responses: []string{
		`{"message":"sending now","steps":[{"actionId":"send_email","description":"email the team","parameters":{"to":"team@example.com","subject":"hi"}}]}`,
	}}
	store := newMemStore()
	metrics := &recordingMetrics{}
	emitter := instrumentation.New()
	var events []instrumentation.Event
	emitter.Of("not-the-real-id", func(e instrumentation.Event) { events = append(events, e) })
	mgr := NewManager(cat, model, WithStore(store), WithMetrics(metrics), WithInstrumentation(emitter))

	result, err := mgr.Converse(context.Background(), "email the team saying hi", "session-exec")
	require.NoError(t, err)
	require.NotNil(t, result.Execution)
	require.True(t, result.Execution.Success)
	require.Len(t, result.Execution.StepOutcomes, 1)
	require.True(t, result.Execution.StepOutcomes[0].Succeeded)

	sent, ok := result.Execution.Context.Get("email_result")
	require.True(t, ok)
	require.Equal(t, "sent", sent)

	require.Contains(t, metrics.counters, "executor.step.total")
	require.Empty(t, events, "listener registered under a different correlation id should not receive events")
}

func TestManagerConverseLogsTurnLifecycle(t *testing.T) {
	cat := testCatalog(t)
	model := &stubModel{responses: []string{
		`{"message":"sending now","steps":[{"actionId":"send_email","description":"email the team","parameters":{"to":"team@example.com","subject":"hi"}}]}`,
	}}
	logger := &recordingLogger{}
	mgr := NewManager(cat, model, WithStore(newMemStore()), WithLogger(logger))

	_, err := mgr.Converse(context.Background(), "email the team saying hi", "session-log")
	require.NoError(t, err)
	require.Contains(t, logger.messages, "turn started")
	require.Contains(t, logger.messages, "turn completed")
}

func TestManagerConversePendingPlanNotExecuted(t *testing.T) {
	cat := testCatalog(t)
	model := &stubModel{responses: []string{
		`{"message":"need more info","steps":[{"actionId":"send_email","description":"email someone","parameters":{"subject":"hi"}}]}`,
	}}
	mgr := NewManager(cat, model, WithStore(newMemStore()))

	result, err := mgr.Converse(context.Background(), "email someone saying hi", "session-pending")
	require.NoError(t, err)
	require.Nil(t, result.Execution)
}

func TestManagerConversePendingThenRetryAddsAddendum(t *testing.T) {
	cat := testCatalog(t)
	model := &stubModel{responses: []string{
		`{"message":"need more info","steps":[{"actionId":"send_email","description":"email someone","parameters":{"subject":"hi"}}]}`,
		`{"message":"sending now","steps":[{"actionId":"send_email","description":"email someone","parameters":{"to":"a@example.com","subject":"hi"}}]}`,
	}}
	store := newMemStore()
	mgr := NewManager(cat, model, WithStore(store))

	first, err := mgr.Converse(context.Background(), "email someone saying hi", "session-2")
	require.NoError(t, err)
	require.Len(t, first.PendingParams, 1)
	require.Equal(t, "to", first.PendingParams[0].Name)
	require.Empty(t, model.lastSys)

	second, err := mgr.Converse(context.Background(), "a@example.com", "session-2")
	require.NoError(t, err)
	require.Empty(t, second.PendingParams)
	require.NotEmpty(t, model.lastSys)
	require.Contains(t, model.lastSys[0], "Retrying planning.")
	require.Contains(t, model.lastSys[0], "Pending: to")
}

func TestManagerConverseBlobRoundTrip(t *testing.T) {
	cat := testCatalog(t)
	model := &stubModel{responses: []string{
		`{"message":"need more info","steps":[{"actionId":"send_email","description":"email someone","parameters":{"subject":"hi"}}]}`,
	}}
	mgr := NewManager(cat, model, WithBlobMode(nil))

	result, err := mgr.ConverseBlob(context.Background(), "email someone saying hi", nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.Blob)
	require.Len(t, result.PendingParams, 1)
}

func TestManagerConverseBlobUsesConfiguredSchemaVersion(t *testing.T) {
	cat := testCatalog(t)
	model := &stubModel{responses: []string{
		`{"message":"need more info","steps":[{"actionId":"send_email","description":"email someone","parameters":{"subject":"hi"}}]}`,
	}}
	cfg := config.Default()
	cfg.SchemaVersion = 7
	mgr := NewManager(cat, model, WithBlobMode(nil), WithConfig(cfg))

	result, err := mgr.ConverseBlob(context.Background(), "email someone saying hi", nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.Blob)

	gotVersion := binary.BigEndian.Uint16(result.Blob[4:6])
	require.Equal(t, uint16(7), gotVersion)
}

func TestManagerWrongModeRejected(t *testing.T) {
	cat := testCatalog(t)
	model := &stubModel{responses: []string{"{}"}}
	mgr := NewManager(cat, model, WithStore(newMemStore()))

	_, err := mgr.ConverseBlob(context.Background(), "hi", nil)
	require.Error(t, err)
}

func TestManagerExpireDoesNotTouchStore(t *testing.T) {
	cat := testCatalog(t)
	model := &stubModel{responses: []string{"{}"}}
	store := newMemStore()
	mgr := NewManager(cat, model, WithStore(store))

	result := mgr.Expire()
	require.Equal(t, "Session expired", result.Plan.AssistantMessage)
	require.Empty(t, store.states)
}
