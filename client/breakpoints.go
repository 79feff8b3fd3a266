package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/xiaot623/gogo/sdapi/domain"
)

// CreateClient calls POST /client. It enables the debugger for this client
// and must precede every other call.
func (c *Client) CreateClient(ctx context.Context) error {
	return c.do(ctx, "CreateClient", http.MethodPost, "/client", nil, nil, nil)
}

// DeleteClient calls DELETE /client. The debugger removes all breakpoints,
// resumes halted threads and disables itself.
func (c *Client) DeleteClient(ctx context.Context) error {
	return c.do(ctx, "DeleteClient", http.MethodDelete, "/client", nil, nil, nil)
}

// GetBreakpoints calls GET /breakpoints.
func (c *Client) GetBreakpoints(ctx context.Context) (*domain.DebuggerBreakpoints, error) {
	var out domain.DebuggerBreakpoints
	if err := c.do(ctx, "GetBreakpoints", http.MethodGet, "/breakpoints", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateBreakpoints calls POST /breakpoints and returns the breakpoints with
// the ids the debugger assigned.
func (c *Client) CreateBreakpoints(ctx context.Context, req *domain.Breakpoints) (*domain.DebuggerBreakpoints, error) {
	var out domain.DebuggerBreakpoints
	if err := c.do(ctx, "CreateBreakpoints", http.MethodPost, "/breakpoints", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveBreakpoints calls DELETE /breakpoints.
func (c *Client) RemoveBreakpoints(ctx context.Context) error {
	return c.do(ctx, "RemoveBreakpoints", http.MethodDelete, "/breakpoints", nil, nil, nil)
}

// GetBreakpoint calls GET /breakpoints/{id}. An unknown id fails with
// fault.ErrBreakpointNotFound.
func (c *Client) GetBreakpoint(ctx context.Context, id int) (*domain.DebuggerBreakpoint, error) {
	var out domain.DebuggerBreakpoint
	if err := c.do(ctx, "GetBreakpoint", http.MethodGet, fmt.Sprintf("/breakpoints/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveBreakpoint calls DELETE /breakpoints/{id}.
func (c *Client) RemoveBreakpoint(ctx context.Context, id int) error {
	return c.do(ctx, "RemoveBreakpoint", http.MethodDelete, fmt.Sprintf("/breakpoints/%d", id), nil, nil, nil)
}
