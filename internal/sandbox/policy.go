package sandbox

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Access decisions returned by the policy.
const (
	DecisionAllow            = "allow"
	DecisionClientIDRequired = "client_id_required"
	DecisionNotAuthorized    = "not_authorized"
)

// AccessInput is the document the access policy evaluates.
type AccessInput struct {
	ClientID      string `json:"client_id"`
	Username      string `json:"username"`
	Authenticated bool   `json:"authenticated"`
	Method        string `json:"method"`
	Path          string `json:"path"`
}

// Policy is the rego access policy of the sandbox.
type Policy struct {
	query rego.PreparedEvalQuery
}

// NewPolicy prepares the given policy module.
func NewPolicy(ctx context.Context, policyContent string) (*Policy, error) {
	r := rego.New(
		rego.Query("data.debugger_access.decision"),
		rego.Module("debugger_access.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Policy{query: query}, nil
}

// Evaluate returns the access decision for input.
func (p *Policy) Evaluate(ctx context.Context, input AccessInput) (string, error) {
	results, err := p.query.Eval(ctx, rego.EvalInput(map[string]interface{}{
		"client_id":     input.ClientID,
		"username":      input.Username,
		"authenticated": input.Authenticated,
		"method":        input.Method,
		"path":          input.Path,
	}))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionNotAuthorized, nil
	}

	if s, ok := results[0].Expressions[0].Value.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("unexpected policy result %T", results[0].Expressions[0].Value)
}

// DefaultPolicy requires a client id and valid credentials.
const DefaultPolicy = `
package debugger_access

default decision = "allow"

decision = "client_id_required" {
	input.client_id == ""
}

decision = "not_authorized" {
	input.client_id != ""
	not input.authenticated
}
`
