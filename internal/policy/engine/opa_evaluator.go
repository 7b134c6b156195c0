package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/open-policy-agent/opa/v1/rego"
)

const inboundQuery = "data.salesbot.inbound"

// DefaultInboundPolicy drops group chats, broadcast lists, status updates and channels.
const DefaultInboundPolicy = `package salesbot.inbound

default allow := false

deny contains "group" if endswith(input.sender, "@g.us")

deny contains "broadcast" if endswith(input.sender, "@broadcast")

deny contains "newsletter" if endswith(input.sender, "@newsletter")

deny contains "empty_sender" if input.sender == ""

allow if count(deny) == 0
`

// OPAEvaluator evaluates the inbound policy with a query prepared once at construction.
type OPAEvaluator struct {
	query  rego.PreparedEvalQuery
	logger *slog.Logger
}

// NewOPAEvaluator compiles module (DefaultInboundPolicy when empty). The module must declare
// package salesbot.inbound with an allow rule; a deny set is optional.
func NewOPAEvaluator(ctx context.Context, module string, logger *slog.Logger) (*OPAEvaluator, error) {
	if module == "" {
		module = DefaultInboundPolicy
	}
	if logger == nil {
		logger = slog.Default()
	}
	pq, err := rego.New(
		rego.Query(inboundQuery),
		rego.Module("inbound.rego", module),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile inbound policy: %w", err)
	}
	return &OPAEvaluator{query: pq, logger: logger}, nil
}

// EvaluateInbound runs the policy. Evaluation errors fail open: the message is allowed and the error logged.
func (e *OPAEvaluator) EvaluateInbound(ctx context.Context, in InboundInput) Decision {
	d, err := e.eval(ctx, in)
	if err != nil {
		e.logger.Warn("policy: inbound evaluation failed, allowing", "tenant_id", in.TenantID, "error", err)
		return Decision{Allow: true}
	}
	return d
}

func (e *OPAEvaluator) eval(ctx context.Context, in InboundInput) (Decision, error) {
	input := map[string]any{"tenant_id": in.TenantID, "sender": in.Sender, "kind": in.Kind}
	rs, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return Decision{}, err
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return Decision{}, fmt.Errorf("policy query returned no result")
	}
	doc, ok := rs[0].Expressions[0].Value.(map[string]any)
	if !ok {
		return Decision{}, fmt.Errorf("policy result is %T", rs[0].Expressions[0].Value)
	}
	allow, ok := doc["allow"].(bool)
	if !ok {
		return Decision{}, fmt.Errorf("policy allow is %T", doc["allow"])
	}
	d := Decision{Allow: allow}
	if deny, ok := doc["deny"].([]any); ok {
		for _, r := range deny {
			if s, ok := r.(string); ok {
				d.Reasons = append(d.Reasons, s)
			}
		}
		sort.Strings(d.Reasons)
	}
	return d, nil
}

// HealthCheck evaluates the prepared policy against a plain direct message.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	_, err := e.eval(ctx, InboundInput{TenantID: "health", Sender: "0@s.whatsapp.net", Kind: "text"})
	if err != nil {
		return fmt.Errorf("eval inbound policy: %w", err)
	}
	return nil
}
