package sandbox

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/sdapi/domain"
	"github.com/xiaot623/gogo/sdapi/fault"
)

// CreateClient handles POST /client.
func (s *Server) CreateClient(c echo.Context) error {
	session := &ClientSession{
		ClientID:  clientID(c),
		SessionID: "sess_" + uuid.New().String(),
		EnabledAt: s.opts.Now(),
	}
	if err := s.store.EnableClient(c.Request().Context(), session); err != nil {
		return respondError(c, err)
	}
	s.opts.Logger.Info("debugger enabled", "client_id", session.ClientID, "session_id", session.SessionID)
	return c.NoContent(http.StatusNoContent)
}

// DeleteClient handles DELETE /client.
func (s *Server) DeleteClient(c echo.Context) error {
	ctx := c.Request().Context()
	session, err := s.store.GetClient(ctx, clientID(c))
	if err != nil {
		return respondError(c, err)
	}
	if session == nil {
		return respondFault(c, errDebuggerDisabled())
	}
	if err := s.store.DisableClient(ctx, session.ClientID); err != nil {
		return respondError(c, err)
	}
	s.opts.Logger.Info("debugger disabled", "client_id", session.ClientID, "session_id", session.SessionID,
		"duration", s.opts.Now().Sub(session.EnabledAt).Round(time.Millisecond))
	return c.NoContent(http.StatusNoContent)
}

// GetBreakpoints handles GET /breakpoints.
func (s *Server) GetBreakpoints(c echo.Context) error {
	bps, err := s.store.ListBreakpoints(c.Request().Context(), clientID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, domain.DebuggerBreakpoints{Breakpoints: bps})
}

// CreateBreakpoints handles POST /breakpoints.
func (s *Server) CreateBreakpoints(c echo.Context) error {
	var req domain.Breakpoints
	if err := c.Bind(&req); err != nil {
		return respondError(c, err)
	}
	for _, bp := range req.Breakpoints {
		if ferr := validateBreakpoint(bp); ferr != nil {
			return respondFault(c, ferr)
		}
	}

	bps, err := s.store.CreateBreakpoints(c.Request().Context(), clientID(c), req.Breakpoints)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, domain.DebuggerBreakpoints{Breakpoints: bps})
}

// RemoveBreakpoints handles DELETE /breakpoints.
func (s *Server) RemoveBreakpoints(c echo.Context) error {
	if err := s.store.DeleteBreakpoints(c.Request().Context(), clientID(c)); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetBreakpoint handles GET /breakpoints/:id.
func (s *Server) GetBreakpoint(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return respondFault(c, errBreakpointNotFound(c.Param("id")))
	}
	bp, err := s.store.GetBreakpoint(c.Request().Context(), clientID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	if bp == nil {
		return respondFault(c, errBreakpointNotFound(c.Param("id")))
	}
	return c.JSON(http.StatusOK, bp)
}

// RemoveBreakpoint handles DELETE /breakpoints/:id.
func (s *Server) RemoveBreakpoint(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return respondFault(c, errBreakpointNotFound(c.Param("id")))
	}
	deleted, err := s.store.DeleteBreakpoint(c.Request().Context(), clientID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	if !deleted {
		return respondFault(c, errBreakpointNotFound(c.Param("id")))
	}
	return c.NoContent(http.StatusNoContent)
}

// validateBreakpoint checks the script path of a breakpoint. Paths are
// absolute within the cartridge and name a .js or .ds file.
func validateBreakpoint(bp domain.Breakpoint) *fault.Error {
	if !strings.HasPrefix(bp.ScriptPath, "/") {
		return errInvalidScriptPath(bp.ScriptPath)
	}
	if !strings.HasSuffix(bp.ScriptPath, ".js") && !strings.HasSuffix(bp.ScriptPath, ".ds") {
		return errInvalidScriptFile(bp.ScriptPath)
	}
	return nil
}
