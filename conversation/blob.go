package conversation

import (
	"goa.design/convo/runtime/blobstore"
	"goa.design/convo/runtime/plan"
	"goa.design/convo/runtime/workingcontext"
)

// toDoc converts s into blobstore's stable wire shape.
func (s *State) toDoc() blobstore.StateDoc {
	doc := blobstore.StateDoc{
		OriginalInstruction: s.OriginalInstruction,
		LatestUserMessage:   s.LatestUserMessage,
		ProvidedParams:      s.ProvidedParams,
	}
	for _, p := range s.PendingParams {
		doc.PendingParams = append(doc.PendingParams, blobstore.PendingParamDoc{Name: p.Name, Message: p.Message})
	}
	if s.WorkingContext != nil {
		wc := toWorkingContextDoc(*s.WorkingContext)
		doc.WorkingContext = &wc
	}
	for _, wc := range s.TurnHistory {
		doc.TurnHistory = append(doc.TurnHistory, toWorkingContextDoc(wc))
	}
	return doc
}

func toWorkingContextDoc(wc workingcontext.WorkingContext) blobstore.WorkingContextDoc {
	return blobstore.WorkingContextDoc{
		ContextType:  wc.ContextType,
		Payload:      wc.Payload,
		LastModified: wc.LastModified,
		Metadata:     wc.Metadata,
	}
}

// fromDoc converts a blobstore.StateDoc back into a State.
func fromDoc(doc blobstore.StateDoc) *State {
	s := &State{
		OriginalInstruction: doc.OriginalInstruction,
		LatestUserMessage:   doc.LatestUserMessage,
		ProvidedParams:      doc.ProvidedParams,
	}
	if s.ProvidedParams == nil {
		s.ProvidedParams = map[string]any{}
	}
	for _, p := range doc.PendingParams {
		s.PendingParams = append(s.PendingParams, plan.PendingParam{Name: p.Name, Message: p.Message})
	}
	if doc.WorkingContext != nil {
		wc := fromWorkingContextDoc(*doc.WorkingContext)
		s.WorkingContext = &wc
	}
	for _, wc := range doc.TurnHistory {
		s.TurnHistory = append(s.TurnHistory, fromWorkingContextDoc(wc))
	}
	return s
}

func fromWorkingContextDoc(doc blobstore.WorkingContextDoc) workingcontext.WorkingContext {
	return workingcontext.WorkingContext{
		ContextType:  doc.ContextType,
		Payload:      doc.Payload,
		LastModified: doc.LastModified,
		Metadata:     doc.Metadata,
	}
}
