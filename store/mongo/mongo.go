// Package mongo implements conversation.Store on top of MongoDB. One
// document per session id holds the full serialized State; Save upserts
// it, Load decodes it back.
package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"goa.design/convo/conversation"
	"goa.design/convo/runtime/plan"
	"goa.design/convo/runtime/workingcontext"
)

const (
	defaultCollection = "convo_states"
	defaultOpTimeout  = 5 * time.Second
)

// Options configures the Mongo-backed Store.
type Options struct {
	// Client is a connected mongo client, shared with the rest of the host.
	Client *mongodriver.Client
	// Database names the database holding the states collection.
	Database string
	// Collection overrides the default states collection name.
	Collection string
	// Timeout bounds every operation. Defaults to 5s.
	Timeout time.Duration
}

// Store implements conversation.Store.
type Store struct {
	states  *mongodriver.Collection
	timeout time.Duration
}

// New returns a Store and ensures its supporting index exists.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Client == nil {
		return nil, errors.New("mongo client is required")
	}
	if opts.Database == "" {
		return nil, errors.New("database name is required")
	}
	collName := opts.Collection
	if collName == "" {
		collName = defaultCollection
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	coll := opts.Client.Database(opts.Database).Collection(collName)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := ensureIndexes(ctx, coll); err != nil {
		return nil, err
	}
	return &Store{states: coll, timeout: timeout}, nil
}

// Load implements conversation.Store.
func (s *Store) Load(ctx context.Context, sessionID string) (*conversation.State, error) {
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var doc stateDocument
	if err := s.states.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	state := doc.toState()
	return &state, nil
}

// Save implements conversation.Store.
func (s *Store) Save(ctx context.Context, sessionID string, state *conversation.State) error {
	if sessionID == "" {
		return errors.New("session id is required")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	doc := fromState(sessionID, state)
	filter := bson.M{"session_id": sessionID}
	update := bson.M{
		"$set": bson.M{
			"original_instruction": doc.OriginalInstruction,
			"latest_user_message":  doc.LatestUserMessage,
			"pending_params":       doc.PendingParams,
			"provided_params":      doc.ProvidedParams,
			"working_context":      doc.WorkingContext,
			"turn_history":         doc.TurnHistory,
			"updated_at":           time.Now().UTC(),
		},
		"$setOnInsert": bson.M{
			"session_id": sessionID,
		},
	}
	_, err := s.states.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	return err
}

// NOTE: Store talks to *mongodriver.Collection directly rather than through
// a narrow local interface (as the session store this package is grounded
// on does). That indirection exists there to let tests substitute a fake
// collection; nothing in this tree provides one for the v2 driver, so the
// extra layer would be unexercised scaffolding. Exercising Store means
// running it against a real (or testcontainers-launched) mongod.

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

type pendingParamDocument struct {
	Name    string `bson:"name"`
	Message string `bson:"message"`
}

type workingContextDocument struct {
	ContextType  string            `bson:"context_type"`
	Payload      any               `bson:"payload"`
	LastModified int64             `bson:"last_modified"`
	Metadata     map[string]string `bson:"metadata,omitempty"`
}

type stateDocument struct {
	SessionID           string                   `bson:"session_id"`
	OriginalInstruction string                   `bson:"original_instruction"`
	LatestUserMessage   string                   `bson:"latest_user_message"`
	PendingParams       []pendingParamDocument   `bson:"pending_params,omitempty"`
	ProvidedParams      map[string]any           `bson:"provided_params,omitempty"`
	WorkingContext      *workingContextDocument  `bson:"working_context,omitempty"`
	TurnHistory         []workingContextDocument `bson:"turn_history,omitempty"`
	UpdatedAt           time.Time                `bson:"updated_at"`
}

func fromState(sessionID string, state *conversation.State) stateDocument {
	doc := stateDocument{
		SessionID:           sessionID,
		OriginalInstruction: state.OriginalInstruction,
		LatestUserMessage:   state.LatestUserMessage,
		ProvidedParams:      state.ProvidedParams,
	}
	for _, p := range state.PendingParams {
		doc.PendingParams = append(doc.PendingParams, pendingParamDocument{Name: p.Name, Message: p.Message})
	}
	if state.WorkingContext != nil {
		wc := fromWorkingContext(*state.WorkingContext)
		doc.WorkingContext = &wc
	}
	for _, wc := range state.TurnHistory {
		doc.TurnHistory = append(doc.TurnHistory, fromWorkingContext(wc))
	}
	return doc
}

func fromWorkingContext(wc workingcontext.WorkingContext) workingContextDocument {
	return workingContextDocument{
		ContextType:  wc.ContextType,
		Payload:      wc.Payload,
		LastModified: wc.LastModified,
		Metadata:     wc.Metadata,
	}
}

func (doc stateDocument) toState() conversation.State {
	state := conversation.State{
		OriginalInstruction: doc.OriginalInstruction,
		LatestUserMessage:   doc.LatestUserMessage,
		ProvidedParams:      doc.ProvidedParams,
	}
	if state.ProvidedParams == nil {
		state.ProvidedParams = map[string]any{}
	}
	for _, p := range doc.PendingParams {
		state.PendingParams = append(state.PendingParams, plan.PendingParam{Name: p.Name, Message: p.Message})
	}
	if doc.WorkingContext != nil {
		wc := doc.WorkingContext.toWorkingContext()
		state.WorkingContext = &wc
	}
	for _, wc := range doc.TurnHistory {
		state.TurnHistory = append(state.TurnHistory, wc.toWorkingContext())
	}
	return state
}

func (doc workingContextDocument) toWorkingContext() workingcontext.WorkingContext {
	return workingcontext.WorkingContext{
		ContextType:  doc.ContextType,
		Payload:      doc.Payload,
		LastModified: doc.LastModified,
		Metadata:     doc.Metadata,
	}
}

func ensureIndexes(ctx context.Context, coll *mongodriver.Collection) error {
	index := mongodriver.IndexModel{
		Keys:    bson.D{{Key: "session_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, err := coll.Indexes().CreateOne(ctx, index)
	return err
}
