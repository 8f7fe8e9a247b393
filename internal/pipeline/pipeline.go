package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/clinicops/medagent/internal/domain"
	"github.com/clinicops/medagent/internal/session"
)

// systemActor is recorded in the audit log when no session is attached.
const systemActor = "system"

// Pipeline wires the stages together. All stage dependencies are
// interfaces from the domain package.
type Pipeline struct {
	classifier  domain.Classifier
	synthesizer domain.Synthesizer
	validator   domain.Validator
	executor    domain.Executor
	recorder    domain.AuditRecorder
	notifier    domain.Notifier
	sessions    *session.Store
	logger      *slog.Logger
	tracer      trace.Tracer
}

// Config collects the pipeline's dependencies.
type Config struct {
	Classifier  domain.Classifier
	Synthesizer domain.Synthesizer
	Validator   domain.Validator
	Executor    domain.Executor
	Recorder    domain.AuditRecorder
	Notifier    domain.Notifier
	Sessions    *session.Store
	Logger      *slog.Logger
}

// New creates a pipeline from its stage implementations.
func New(cfg Config) *Pipeline {
	return &Pipeline{
		classifier:  cfg.Classifier,
		synthesizer: cfg.Synthesizer,
		validator:   cfg.Validator,
		executor:    cfg.Executor,
		recorder:    cfg.Recorder,
		notifier:    cfg.Notifier,
		sessions:    cfg.Sessions,
		logger:      cfg.Logger,
		tracer:      otel.Tracer("medagent/pipeline"),
	}
}

// Handle runs one utterance through the pipeline and returns the single
// structured response for it. The completed turn is appended to the
// session afterwards, with the executed SQL recorded so follow-up
// utterances can resolve prior row ids.
func (p *Pipeline) Handle(ctx context.Context, sessionID, utterance string) *domain.Response {
	ctx, span := p.tracer.Start(ctx, "pipeline.handle",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	history := p.sessions.History(sessionID)
	resp := p.run(ctx, sessionID, utterance, history)

	reply := resp.Message
	if resp.Statement != "" {
		reply = fmt.Sprintf("%s [SQL: %s]", reply, resp.Statement)
	}
	p.sessions.Append(sessionID, utterance, reply)

	span.SetAttributes(attribute.String("response.type", string(resp.Type)))
	return resp
}

// run is one pass through the state machine of the package doc.
func (p *Pipeline) run(ctx context.Context, sessionID, utterance string, history []domain.Turn) *domain.Response {
	intent, err := p.classifier.Classify(ctx, utterance, history)
	if err != nil {
		p.logger.Warn("classification aborted", slog.String("error", err.Error()))
		return clarifyResponse("I couldn't process that request. Please try again.")
	}
	if intent == domain.IntentUnknown {
		return clarifyResponse("I can help you view or change patient, visit, prescription and billing records. What would you like to do?")
	}

	stmt, err := p.synthesizer.Synthesize(ctx, intent, utterance, history)
	if err != nil {
		if !errors.Is(err, domain.ErrCannotSynthesize) {
			p.logger.Warn("synthesis aborted", slog.String("error", err.Error()))
		}
		return clarifyResponse("I couldn't turn that into a database operation. Could you be more specific about which records you mean?")
	}

	if err := p.validator.Validate(stmt); err != nil {
		var rej *domain.RejectionError
		if errors.As(err, &rej) {
			p.logger.Info("statement rejected",
				slog.String("rule", string(rej.Rule)),
				slog.String("sql", stmt.SQL))
			return rejectionResponse(rej)
		}
		return errorResponse(err.Error(), "")
	}

	outcome, err := p.executor.Execute(ctx, stmt)
	if err != nil {
		p.logger.Warn("execution failed",
			slog.String("sql", stmt.SQL),
			slog.String("error", err.Error()))
		return executionResponse(err)
	}

	if !outcome.Op.Mutating() {
		return tableResponse(outcome, stmt.SQL)
	}

	entry := buildAuditEntry(outcome, actor(sessionID))
	if err := p.recorder.Record(ctx, entry); err != nil {
		// The domain mutation has already committed. Surface this
		// distinctly so it is not mistaken for a failed request, and
		// skip notification: observers are only told about audited
		// changes.
		auditErr := &domain.AuditWriteError{Err: err}
		p.logger.Error("audit write failed after commit",
			slog.String("operation", entry.Operation),
			slog.String("error", auditErr.Error()))
		return auditFailureResponse(outcome, stmt.SQL)
	}

	summary := successMessage(outcome)
	p.notifier.Publish(domain.ChangeEvent{
		Table:   outcome.Table,
		Action:  domain.ChangeActionRefresh,
		Summary: summary,
	})

	return successResponse(outcome, stmt.SQL)
}

func actor(sessionID string) string {
	if sessionID == "" {
		return systemActor
	}
	return sessionID
}

// buildAuditEntry serializes the pre- and post-images captured by the
// executor. Old is empty for INSERT, new is empty for DELETE.
func buildAuditEntry(outcome *domain.ExecutionOutcome, actor string) *domain.AuditEntry {
	return &domain.AuditEntry{
		Operation: fmt.Sprintf("%s %s", outcome.Op, outcome.Table),
		OldValue:  marshalImage(outcome.PreImage),
		NewValue:  marshalImage(outcome.PostImage),
		Actor:     actor,
	}
}

func marshalImage(rows []domain.Row) string {
	if len(rows) == 0 {
		return ""
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return ""
	}
	return string(data)
}
