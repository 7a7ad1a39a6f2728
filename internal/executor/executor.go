package executor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/clarusdesk/guardrail/internal/ledger"
	"github.com/clarusdesk/guardrail/internal/policy"
)

// FailClosedReason is the only reason string ever returned for an internal
// evaluation fault. Fault detail goes to the logger, never to the caller or
// the audit trail.
const FailClosedReason = "Policy engine error (Fail Closed): Evaluation failed due to an internal error."

// Input carries the raw parameters of one proposed agent action.
type Input struct {
	ActionType      policy.ActionType
	TargetID        string
	ConfidenceScore float64
	Payload         map[string]any
	Context         policy.EvalContext
}

// Result is the executor's verdict. Payload is the original, unredacted
// payload; the caller uses Allowed to gate whether the action actually runs.
type Result struct {
	Allowed bool
	Reason  string
	Payload map[string]any
}

// Executor is the single entry point gating agent actions. It shares nothing
// across calls beyond the immutable engine configuration, so one instance
// serves concurrent requests.
type Executor struct {
	Engine *policy.Engine
	Audit  ledger.Store  // nil disables the audit trail
	Signer ledger.Signer // nil leaves audit records unsigned
	Logger *log.Logger
	// EvalTimeout bounds one evaluation; expiry is treated like an engine
	// crash (fail closed). Zero disables the deadline.
	EvalTimeout time.Duration
	Now         func() time.Time
}

func New(engine *policy.Engine, audit ledger.Store, signer ledger.Signer, logger *log.Logger) *Executor {
	return &Executor{
		Engine: engine,
		Audit:  audit,
		Signer: signer,
		Logger: logger,
	}
}

// Run builds a proposal, evaluates it under a fail-closed boundary, records
// a redacted audit entry, and returns the verdict. Only proposal validation
// failures surface as errors; engine faults become a deny and audit faults
// are absorbed entirely.
func (e *Executor) Run(ctx context.Context, input Input) (Result, error) {
	proposal, err := policy.NewProposal(input.ActionType, input.TargetID, input.ConfidenceScore, input.Payload)
	if err != nil {
		return Result{}, fmt.Errorf("invalid proposal: %w", err)
	}

	decision := e.evaluate(ctx, proposal, input.Context)

	e.recordAudit(input, decision)

	return Result{
		Allowed: decision.Status == policy.StatusAllow,
		Reason:  decision.Reason,
		Payload: input.Payload,
	}, nil
}

func (e *Executor) evaluate(ctx context.Context, proposal policy.Proposal, ec policy.EvalContext) policy.Decision {
	if e.EvalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.EvalTimeout)
		defer cancel()
	}

	decision, err := e.safeEvaluate(ctx, proposal, ec)
	if err != nil {
		e.logf("ERROR policy engine failed while evaluating %s for %s, failing closed: %v", proposal.ActionType, proposal.TargetID, err)
		return policy.Decision{
			Status:               policy.StatusDeny,
			Reason:               FailClosedReason,
			ConfidenceAdjustment: -1.0,
		}
	}
	return decision
}

// safeEvaluate converts a panicking rule into an ordinary error so the
// fail-closed mapping above covers crashes as well as returned faults.
func (e *Executor) safeEvaluate(ctx context.Context, proposal policy.Proposal, ec policy.EvalContext) (decision policy.Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during evaluation: %v", r)
		}
	}()
	return e.Engine.Evaluate(ctx, proposal, ec)
}

func (e *Executor) recordAudit(input Input, decision policy.Decision) {
	if e.Audit == nil {
		e.logf("WARN audit store not configured; skipping audit record for %s", input.TargetID)
		return
	}

	rec, err := ledger.BuildAuditRecord(ledger.BuildAuditInput{
		ActionType:      string(input.ActionType),
		TargetID:        input.TargetID,
		ConfidenceScore: input.ConfidenceScore,
		Payload:         RedactPayload(input.Payload),
		Context:         map[string]any(input.Context),
		Status:          string(decision.Status),
		Reason:          decision.Reason,
		CreatedAt:       e.timeNow().UTC().Format(time.RFC3339),
	}, e.Signer)
	if err != nil {
		e.logf("WARN failed to build audit record for %s: %v", input.TargetID, err)
		return
	}

	if err := e.Audit.PutAuditLog(rec); err != nil {
		e.logf("WARN failed to record audit log for %s: %v", input.TargetID, err)
	}
}

func (e *Executor) timeNow() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Executor) logf(format string, args ...any) {
	if e.Logger != nil {
		e.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}
