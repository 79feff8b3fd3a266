package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/xiaot623/gogo/sdapi/domain"
)

// GetScriptThreads calls GET /threads.
func (c *Client) GetScriptThreads(ctx context.Context) (*domain.ScriptThreads, error) {
	var out domain.ScriptThreads
	if err := c.do(ctx, "GetScriptThreads", http.MethodGet, "/threads", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetScriptThreads calls POST /threads/reset.
//
// The debugger resumes a halted thread after 60 seconds without activity.
// Resetting restarts that timer for every halted thread. The timer lives on
// the server only.
func (c *Client) ResetScriptThreads(ctx context.Context) error {
	return c.do(ctx, "ResetScriptThreads", http.MethodPost, "/threads/reset", nil, nil, nil)
}

// GetScriptThread calls GET /threads/{id}.
func (c *Client) GetScriptThread(ctx context.Context, threadID int) (*domain.ScriptThread, error) {
	var out domain.ScriptThread
	if err := c.do(ctx, "GetScriptThread", http.MethodGet, fmt.Sprintf("/threads/%d", threadID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EvaluateExpression calls GET /threads/{id}/frames/{index}/eval.
func (c *Client) EvaluateExpression(ctx context.Context, threadID, frameIndex int, expr string) (*domain.EvalResult, error) {
	query := url.Values{}
	query.Set("expr", expr)

	var out domain.EvalResult
	path := fmt.Sprintf("/threads/%d/frames/%d/eval", threadID, frameIndex)
	if err := c.do(ctx, "EvaluateExpression", http.MethodGet, path, query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetObjectMembers calls GET /threads/{id}/frames/{index}/members.
func (c *Client) GetObjectMembers(ctx context.Context, threadID, frameIndex int, q MembersQuery) (*domain.ObjectMembers[domain.ObjectMember], error) {
	var out domain.ObjectMembers[domain.ObjectMember]
	path := fmt.Sprintf("/threads/%d/frames/%d/members", threadID, frameIndex)
	if err := c.do(ctx, "GetObjectMembers", http.MethodGet, path, q.values(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetVariables calls GET /threads/{id}/frames/{index}/variables.
func (c *Client) GetVariables(ctx context.Context, threadID, frameIndex int, q PageQuery) (*domain.ObjectMembers[domain.ScopedObjectMember], error) {
	var out domain.ObjectMembers[domain.ScopedObjectMember]
	path := fmt.Sprintf("/threads/%d/frames/%d/variables", threadID, frameIndex)
	if err := c.do(ctx, "GetVariables", http.MethodGet, path, q.values(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Step calls POST /threads/{id}/{action} and returns the thread's state
// after the action.
func (c *Client) Step(ctx context.Context, threadID int, action domain.StepAction) (*domain.ScriptThread, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("%w: %q", errUnknownStep, action)
	}

	var out domain.ScriptThread
	path := fmt.Sprintf("/threads/%d/%s", threadID, action)
	if err := c.do(ctx, "Step"+stepOpNames[action], http.MethodPost, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

var stepOpNames = map[domain.StepAction]string{
	domain.StepInto:   "Into",
	domain.StepOut:    "Out",
	domain.StepOver:   "Over",
	domain.StepResume: "Resume",
	domain.StepStop:   "Stop",
}

// StepInto steps into the next function call.
func (c *Client) StepInto(ctx context.Context, threadID int) (*domain.ScriptThread, error) {
	return c.Step(ctx, threadID, domain.StepInto)
}

// StepOut steps out of the current function.
func (c *Client) StepOut(ctx context.Context, threadID int) (*domain.ScriptThread, error) {
	return c.Step(ctx, threadID, domain.StepOut)
}

// StepOver steps over the current line.
func (c *Client) StepOver(ctx context.Context, threadID int) (*domain.ScriptThread, error) {
	return c.Step(ctx, threadID, domain.StepOver)
}

// StepResume resumes the thread.
func (c *Client) StepResume(ctx context.Context, threadID int) (*domain.ScriptThread, error) {
	return c.Step(ctx, threadID, domain.StepResume)
}

// StepStop stops the thread.
func (c *Client) StepStop(ctx context.Context, threadID int) (*domain.ScriptThread, error) {
	return c.Step(ctx, threadID, domain.StepStop)
}
