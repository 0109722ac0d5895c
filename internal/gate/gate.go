package gate

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/rego"
	"go.uber.org/zap"
)

// Gate decides whether a tenant is eligible for reconciliation. Operators
// use it to exclude tenants (offboarding, litigation hold) without touching
// the queue producers. With no policy configured every tenant is eligible.
type Gate struct {
	query *rego.PreparedEvalQuery
	log   *zap.SugaredLogger
}

// New loads a Rego policy from path. The policy's entrypoint is
// `data.reconcile.allow`; input carries tenant_id and default_domain_name.
// An empty path yields an allow-all gate.
func New(ctx context.Context, policyPath string, log *zap.SugaredLogger) (*Gate, error) {
	if policyPath == "" {
		return &Gate{log: log}, nil
	}
	src, err := os.ReadFile(policyPath)
	if err != nil {
		return nil, fmt.Errorf("read gate policy: %w", err)
	}
	return NewFromSource(ctx, string(src), log)
}

// NewFromSource compiles a policy from its source text.
func NewFromSource(ctx context.Context, src string, log *zap.SugaredLogger) (*Gate, error) {
	q, err := rego.New(
		rego.Query("data.reconcile.allow"),
		rego.Module("reconcile.rego", src),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile gate policy: %w", err)
	}
	return &Gate{query: &q, log: log}, nil
}

// Allow reports whether the tenant may be reconciled. Evaluation errors fail
// open: the gate is an exclusion list, not an authorization boundary, and a
// broken policy must not stop permission upkeep fleet-wide.
func (g *Gate) Allow(ctx context.Context, tenantID, defaultDomainName string) bool {
	if g.query == nil {
		return true
	}
	rs, err := g.query.Eval(ctx, rego.EvalInput(map[string]any{
		"tenant_id":           tenantID,
		"default_domain_name": defaultDomainName,
	}))
	if err != nil {
		g.log.Warnw("gate policy eval failed", "tenant", tenantID, "err", err)
		return true
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return true
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return true
	}
	return allowed
}
