package engine

import "context"

// InboundInput is the policy input for one inbound message.
type InboundInput struct {
	TenantID string `json:"tenant_id"`
	// Sender is the raw remote address, including its server suffix (e.g. 5511...@s.whatsapp.net, 1203...@g.us).
	Sender string `json:"sender"`
	// Kind is "text" or "audio".
	Kind string `json:"kind"`
}

// Decision is the outcome of an inbound policy evaluation.
type Decision struct {
	Allow   bool
	Reasons []string
}

// Evaluator decides whether an inbound message should reach the conversation collaborator.
type Evaluator interface {
	EvaluateInbound(ctx context.Context, in InboundInput) Decision
}
