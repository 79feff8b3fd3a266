package sandbox

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/sdapi/domain"
	"github.com/xiaot623/gogo/sdapi/fault"
)

const defaultPageCount = 200

// GetScriptThreads handles GET /threads.
func (s *Server) GetScriptThreads(c echo.Context) error {
	threads, err := s.store.ListThreads(c.Request().Context(), clientID(c))
	if err != nil {
		return respondError(c, err)
	}
	halted := []domain.ScriptThread{}
	for _, t := range threads {
		if t.Halted() {
			halted = append(halted, t)
		}
	}
	return c.JSON(http.StatusOK, domain.ScriptThreads{ScriptThreads: halted})
}

// ResetScriptThreads handles POST /threads/reset.
func (s *Server) ResetScriptThreads(c echo.Context) error {
	if err := s.store.ResetThreads(c.Request().Context(), clientID(c), s.opts.Now()); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetScriptThread handles GET /threads/:id.
func (s *Server) GetScriptThread(c echo.Context) error {
	thread, ferr, err := s.haltedThread(c)
	if err != nil {
		return respondError(c, err)
	}
	if ferr != nil {
		return respondFault(c, ferr)
	}
	return c.JSON(http.StatusOK, thread)
}

// EvaluateExpression handles GET /threads/:id/frames/:frame/eval.
//
// Expressions are resolved as member paths: "name" or "parent.name".
// Anything else evaluates to a ReferenceError result, as the engine
// reports script errors in the result rather than as a fault.
func (s *Server) EvaluateExpression(c echo.Context) error {
	thread, frame, ferr, err := s.frame(c)
	if err != nil {
		return respondError(c, err)
	}
	if ferr != nil {
		return respondFault(c, ferr)
	}

	expr := c.QueryParam("expr")
	parent, name := "", strings.TrimSpace(expr)
	if i := strings.LastIndex(name, "."); i >= 0 {
		parent, name = name[:i], name[i+1:]
	}

	members, err := s.store.ListMembers(c.Request().Context(), thread.ID, frame, parent)
	if err != nil {
		return respondError(c, err)
	}
	result := "ReferenceError: \"" + expr + "\" is not defined."
	for _, m := range members {
		if m.Name == name {
			result = m.Value
			break
		}
	}
	return c.JSON(http.StatusOK, domain.EvalResult{Expression: expr, Result: result})
}

// GetObjectMembers handles GET /threads/:id/frames/:frame/members.
func (s *Server) GetObjectMembers(c echo.Context) error {
	thread, frame, ferr, err := s.frame(c)
	if err != nil {
		return respondError(c, err)
	}
	if ferr != nil {
		return respondFault(c, ferr)
	}

	parent := ""
	if paths, ok := c.QueryParams()["object_path"]; ok && len(paths) > 0 {
		parent = paths[0]
	}
	members, err := s.store.ListMembers(c.Request().Context(), thread.ID, frame, parent)
	if err != nil {
		return respondError(c, err)
	}

	plain := make([]domain.ObjectMember, 0, len(members))
	for _, m := range members {
		plain = append(plain, m.ObjectMember)
	}
	return c.JSON(http.StatusOK, page(plain, c.QueryParam("start"), c.QueryParam("count")))
}

// GetVariables handles GET /threads/:id/frames/:frame/variables.
func (s *Server) GetVariables(c echo.Context) error {
	thread, frame, ferr, err := s.frame(c)
	if err != nil {
		return respondError(c, err)
	}
	if ferr != nil {
		return respondFault(c, ferr)
	}

	members, err := s.store.ListMembers(c.Request().Context(), thread.ID, frame, "")
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, page(members, c.QueryParam("start"), c.QueryParam("count")))
}

// Step handles POST /threads/:id/:action.
func (s *Server) Step(c echo.Context) error {
	action := domain.StepAction(c.Param("action"))
	if !action.Valid() {
		return echo.ErrNotFound
	}

	thread, ferr, err := s.haltedThread(c)
	if err != nil {
		return respondError(c, err)
	}
	if ferr != nil {
		return respondFault(c, ferr)
	}

	popped := step(thread, action)
	if err := s.store.UpdateThread(c.Request().Context(), clientID(c), thread, popped, s.opts.Now()); err != nil {
		return respondError(c, err)
	}
	s.opts.Logger.Debug("thread stepped", "client_id", clientID(c), "thread_id", thread.ID, "action", action, "status", thread.Status)
	return c.JSON(http.StatusOK, thread)
}

// step applies action to a halted thread and returns how many frames were
// popped off the top of its call stack.
func step(thread *domain.ScriptThread, action domain.StepAction) int {
	switch action {
	case domain.StepOver, domain.StepInto:
		thread.CallStack[0].Location.LineNumber++
		return 0
	case domain.StepOut:
		if len(thread.CallStack) > 1 {
			stack := thread.CallStack[1:]
			for i := range stack {
				stack[i].Index = i
			}
			thread.CallStack = stack
			return 1
		}
	}
	thread.Status = domain.ThreadStatusRunning
	thread.CallStack = nil
	return 0
}

// haltedThread loads the halted thread named by the :id parameter.
func (s *Server) haltedThread(c echo.Context) (*domain.ScriptThread, *fault.Error, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, errScriptThreadNotFound(c.Param("id")), nil
	}
	thread, err := s.store.GetThread(c.Request().Context(), clientID(c), id)
	if err != nil {
		return nil, nil, err
	}
	if thread == nil || !thread.Halted() {
		return nil, errScriptThreadNotFound(c.Param("id")), nil
	}
	return thread, nil, nil
}

// frame loads the halted thread and checks the :frame parameter against its
// call stack.
func (s *Server) frame(c echo.Context) (*domain.ScriptThread, int, *fault.Error, error) {
	thread, ferr, err := s.haltedThread(c)
	if err != nil || ferr != nil {
		return nil, 0, ferr, err
	}
	frame, err := strconv.Atoi(c.Param("frame"))
	if err != nil || frame < 0 || frame >= len(thread.CallStack) {
		return nil, 0, errInvalidFrameIndex(thread.ID, c.Param("frame")), nil
	}
	return thread, frame, nil, nil
}

// page returns the window [start, start+count) of members.
func page[T domain.Member](members []T, startParam, countParam string) domain.ObjectMembers[T] {
	start, err := strconv.Atoi(startParam)
	if err != nil || start < 0 {
		start = 0
	}
	count, err := strconv.Atoi(countParam)
	if err != nil || count <= 0 {
		count = defaultPageCount
	}

	total := len(members)
	lo := min(start, total)
	hi := lo + min(count, total-lo)
	return domain.ObjectMembers[T]{
		ObjectMembers: members[lo:hi],
		Start:         start,
		Count:         count,
		Total:         total,
	}
}
