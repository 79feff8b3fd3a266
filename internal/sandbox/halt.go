package sandbox

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/sdapi/domain"
)

// HaltRequest describes a script thread stopping at a location.
type HaltRequest struct {
	ClientID  string            `json:"client_id"`
	CallStack []domain.Location `json:"call_stack"`
	Members   []FrameMember     `json:"members,omitempty"`
}

// ErrEmptyCallStack is returned when a halt request has no frames.
var ErrEmptyCallStack = errors.New("call stack is empty")

// ErrDebuggerDisabled is returned when halting a thread for a client that
// has not enabled the debugger.
var ErrDebuggerDisabled = errors.New("debugger is not enabled for client")

// Halt creates a halted thread for the client, as if the engine had stopped
// at CallStack[0]. Frames are indexed innermost first.
func (s *Server) Halt(ctx context.Context, req HaltRequest) (*domain.ScriptThread, error) {
	if len(req.CallStack) == 0 {
		return nil, ErrEmptyCallStack
	}
	session, err := s.store.GetClient(ctx, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w %q", ErrDebuggerDisabled, req.ClientID)
	}

	stack := make([]domain.StackFrame, len(req.CallStack))
	for i, loc := range req.CallStack {
		stack[i] = domain.StackFrame{Index: i, Location: loc}
	}
	for _, m := range req.Members {
		if m.FrameIndex < 0 || m.FrameIndex >= len(stack) {
			return nil, fmt.Errorf("member %q: frame index %d out of range", m.Name, m.FrameIndex)
		}
	}

	thread, err := s.store.HaltThread(ctx, req.ClientID, s.opts.Now(), stack, req.Members)
	if err != nil {
		return nil, fmt.Errorf("failed to halt thread: %w", err)
	}
	s.opts.Logger.Info("thread halted", "client_id", req.ClientID, "thread_id", thread.ID, "location", stack[0].Location.String())
	return thread, nil
}

// HaltThread handles POST /internal/threads/halt.
func (s *Server) HaltThread(c echo.Context) error {
	var req HaltRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	thread, err := s.Halt(c.Request().Context(), req)
	switch {
	case errors.Is(err, ErrDebuggerDisabled):
		return respondFault(c, errDebuggerDisabled())
	case err != nil:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, thread)
}
