package blobstore

// StateDoc is the stable, JSON-serializable shape of Conversation State.
// Field names are part of the wire contract (spec §4.7) and must not
// change without a migration.
type StateDoc struct {
	OriginalInstruction string              `json:"originalInstruction"`
	PendingParams       []PendingParamDoc   `json:"pendingParams"`
	ProvidedParams      map[string]any      `json:"providedParams"`
	LatestUserMessage   string              `json:"latestUserMessage,omitempty"`
	WorkingContext      *WorkingContextDoc  `json:"workingContext,omitempty"`
	TurnHistory         []WorkingContextDoc `json:"turnHistory"`
}

// PendingParamDoc is the wire shape of a plan.PendingParam.
type PendingParamDoc struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// WorkingContextDoc is the wire shape of a workingcontext.WorkingContext.
// Payload is decoded as a generic `any` (a JSON object/array/scalar tree)
// for every ContextType, registered or not; Deserialize does not consult
// the Working-Context Registry, so re-decoding into a concrete Go type is
// left to the caller.
type WorkingContextDoc struct {
	ContextType  string            `json:"contextType"`
	Payload      any               `json:"payload,omitempty"`
	LastModified int64             `json:"lastModified"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}
