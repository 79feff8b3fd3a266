package sandbox

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/xiaot623/gogo/sdapi/client"
)

// DefaultHaltTimeout is how long a thread stays halted without activity.
const DefaultHaltTimeout = 60 * time.Second

const clientIDKey = "client_id"

// Options configures a Server.
type Options struct {
	// Credentials accepted by basic auth.
	Username string
	Password string

	HaltTimeout time.Duration
	Logger      *slog.Logger
	Now         func() time.Time
}

// Server serves the debugger API on top of a Store.
type Server struct {
	store  Store
	policy *Policy
	opts   Options
	echo   *echo.Echo
}

// NewServer creates a sandbox server and registers its routes.
func NewServer(store Store, policy *Policy, opts Options) *Server {
	if opts.HaltTimeout <= 0 {
		opts.HaltTimeout = DefaultHaltTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{store: store, policy: policy, opts: opts, echo: e}
	s.RegisterRoutes(e)
	return s
}

// Echo returns the underlying echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// StartServer serves on srv until Shutdown is called.
func (s *Server) StartServer(srv *http.Server) error {
	return s.echo.StartServer(srv)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// RegisterRoutes registers the debugger API routes.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	api := e.Group(client.BasePath, s.authorize)

	api.POST("/client", s.CreateClient)
	api.DELETE("/client", s.DeleteClient)

	enabled := api.Group("", s.requireEnabled)

	enabled.GET("/breakpoints", s.GetBreakpoints)
	enabled.POST("/breakpoints", s.CreateBreakpoints)
	enabled.DELETE("/breakpoints", s.RemoveBreakpoints)
	enabled.GET("/breakpoints/:id", s.GetBreakpoint)
	enabled.DELETE("/breakpoints/:id", s.RemoveBreakpoint)

	threads := enabled.Group("/threads", s.expireHalted)
	threads.GET("", s.GetScriptThreads)
	threads.POST("/reset", s.ResetScriptThreads)
	threads.GET("/:id", s.GetScriptThread)
	threads.GET("/:id/frames/:frame/eval", s.EvaluateExpression)
	threads.GET("/:id/frames/:frame/members", s.GetObjectMembers)
	threads.GET("/:id/frames/:frame/variables", s.GetVariables)
	threads.POST("/:id/:action", s.Step)

	e.POST("/internal/threads/halt", s.HaltThread)
	e.GET("/health", s.Health)
}

// Health returns health status.
func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// authorize evaluates the access policy for every API request.
func (s *Server) authorize(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		user, pass, ok := req.BasicAuth()
		input := AccessInput{
			ClientID:      req.Header.Get(client.ClientIDHeader),
			Username:      user,
			Authenticated: ok && user == s.opts.Username && pass == s.opts.Password,
			Method:        req.Method,
			Path:          req.URL.Path,
		}

		decision, err := s.policy.Evaluate(req.Context(), input)
		if err != nil {
			return respondError(c, err)
		}
		switch decision {
		case DecisionAllow:
		case DecisionClientIDRequired:
			return respondFault(c, errClientIDRequired())
		default:
			return respondFault(c, errNotAuthorized())
		}

		c.Set(clientIDKey, input.ClientID)
		return next(c)
	}
}

// requireEnabled rejects calls from clients that have not called POST /client.
func (s *Server) requireEnabled(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		session, err := s.store.GetClient(c.Request().Context(), clientID(c))
		if err != nil {
			return respondError(c, err)
		}
		if session == nil {
			return respondFault(c, errDebuggerDisabled())
		}
		return next(c)
	}
}

// expireHalted resumes threads whose halt timer ran out before serving a
// thread request.
func (s *Server) expireHalted(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		cutoff := s.opts.Now().Add(-s.opts.HaltTimeout)
		n, err := s.store.ResumeExpired(ctx, clientID(c), cutoff)
		if err != nil {
			return respondError(c, err)
		}
		if n > 0 {
			s.opts.Logger.Info("halted threads timed out", "client_id", clientID(c), "resumed", n)
		}
		return next(c)
	}
}

func clientID(c echo.Context) string {
	id, _ := c.Get(clientIDKey).(string)
	return id
}
