package policy

import "context"

// Rule is one authorization check. Implementations must be stateless,
// must not mutate the proposal or the eval context, and must not assume
// they are the only rule registered. A neutral pass is allow with an
// empty reason and a zero adjustment; a soft risk signal is allow with a
// non-zero adjustment and an explanatory reason.
//
// The context parameter exists so future rules can perform external
// lookups; the shipped rules are pure.
type Rule interface {
	Evaluate(ctx context.Context, proposal Proposal, ec EvalContext) (Decision, error)
}

// RestrictedUserEmailRule blocks outbound email for restricted user roles.
type RestrictedUserEmailRule struct{}

func (RestrictedUserEmailRule) Evaluate(_ context.Context, proposal Proposal, ec EvalContext) (Decision, error) {
	if proposal.ActionType == ActionSendEmail && ec.Str("user_role") == "restricted" {
		return Decision{
			Status: StatusDeny,
			Reason: "Cannot send external email for restricted user role",
		}, nil
	}
	return Decision{Status: StatusAllow}, nil
}

// LegalSensitiveEscalationRule blocks automatic escalation of legally
// sensitive tickets.
type LegalSensitiveEscalationRule struct{}

func (LegalSensitiveEscalationRule) Evaluate(_ context.Context, proposal Proposal, ec EvalContext) (Decision, error) {
	if proposal.ActionType == ActionEscalate && ec.Flag("is_legal_sensitive") {
		return Decision{
			Status: StatusDeny,
			Reason: "Cannot automatically escalate legally sensitive tickets",
		}, nil
	}
	return Decision{Status: StatusAllow}, nil
}

// NewAccountRiskRule lowers confidence for any action on a new account.
type NewAccountRiskRule struct{}

func (NewAccountRiskRule) Evaluate(_ context.Context, _ Proposal, ec EvalContext) (Decision, error) {
	if ec.Flag("is_new_account") {
		return Decision{
			Status:               StatusAllow,
			Reason:               "Context flagged as new account. Lowering confidence parameter.",
			ConfidenceAdjustment: -0.2,
		}, nil
	}
	return Decision{Status: StatusAllow}, nil
}

// DefaultRules returns the shipped rule set in its registration order.
func DefaultRules() []Rule {
	return []Rule{
		RestrictedUserEmailRule{},
		LegalSensitiveEscalationRule{},
		NewAccountRiskRule{},
	}
}
