package domain

import "context"

// Classifier maps an utterance plus recent conversation turns to an
// intent. It must be conservative: ambiguous input yields IntentUnknown.
type Classifier interface {
	Classify(ctx context.Context, utterance string, history []Turn) (Intent, error)
}

// Synthesizer produces exactly one candidate statement for a QUERY or
// UPDATE intent, or ErrCannotSynthesize when it cannot do so confidently.
type Synthesizer interface {
	Synthesize(ctx context.Context, intent Intent, utterance string, history []Turn) (*CandidateStatement, error)
}

// Validator statically inspects a candidate statement. A nil return is an
// accept; a *RejectionError carries the rule that fired.
type Validator interface {
	Validate(stmt *CandidateStatement) error
}

// Executor runs an accepted statement inside a single transaction,
// capturing pre/post images for mutations. On failure the transaction is
// rolled back and no partial effect is observable.
type Executor interface {
	Execute(ctx context.Context, stmt *CandidateStatement) (*ExecutionOutcome, error)
}

// AuditRecorder appends one immutable entry per committed mutation.
type AuditRecorder interface {
	Record(ctx context.Context, entry *AuditEntry) error
}

// Notifier broadcasts a change event to all current subscribers.
// Delivery is best-effort: a slow observer never blocks the caller.
type Notifier interface {
	Publish(event ChangeEvent)
}
