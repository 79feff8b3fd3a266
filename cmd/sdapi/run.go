package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/xiaot623/gogo/sdapi/client"
	"github.com/xiaot623/gogo/sdapi/domain"
	"github.com/xiaot623/gogo/sdapi/fault"
	"github.com/xiaot623/gogo/sdapi/internal/config"
	"github.com/xiaot623/gogo/sdapi/internal/logger"
	"github.com/xiaot623/gogo/sdapi/internal/tracer"
)

const usage = `usage: sdapi <command> [flags] [args]

commands:
  attach                          enable the debugger for this client
  detach                          disable the debugger
  breakpoints                     list breakpoints
  break [-condition c] path:line  set a breakpoint
  clear [id]                      remove one or all breakpoints
  threads                         list halted threads
  thread <id>                     show a thread
  reset                           restart the halt timeout of halted threads
  eval <thread> <frame> <expr>    evaluate an expression
  members [-path p] [-start n] [-count n] <thread> <frame>
  vars [-start n] [-count n] <thread> <frame>
  step <into|out|over|resume|stop> <thread>
  serve                           run the local sandbox
`

var errUsage = errors.New("invalid usage")

// app carries what every command needs.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprint(stderr, usage)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return 1
	}
	log, closeLog, err := logger.New(cfg.Logger)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer closeLog()

	shutdownTracer, err := tracer.Setup(ctx, tracer.Options{
		Enabled:  cfg.Tracer.Enabled,
		Exporter: cfg.Tracer.Exporter,
		Writer:   stderr,
	})
	if err != nil {
		log.Error("failed to initialize tracer", "error", err)
		return 1
	}
	defer shutdownTracer(context.Background())

	a := &app{cfg: cfg, logger: log, stdout: stdout, stderr: stderr}
	if err := a.dispatch(ctx, args[0], args[1:]); err != nil {
		return a.report(err)
	}
	return 0
}

func (a *app) dispatch(ctx context.Context, name string, args []string) error {
	if name == "serve" {
		return a.serve(ctx, args)
	}

	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	c, err := a.newClient()
	if err != nil {
		return err
	}
	return cmd(ctx, a, c, args)
}

// report prints err and returns the exit status for it.
func (a *app) report(err error) int {
	var ferr *fault.Error
	var terr *fault.TransportError
	switch {
	case errors.Is(err, errUsage):
		fmt.Fprintf(a.stderr, "%v\n\n%s", err, usage)
		return 2
	case errors.Is(err, flag.ErrHelp):
		return 2
	case errors.As(err, &ferr):
		fmt.Fprintf(a.stderr, "%s: %s\n", ferr.Kind.Type(), ferr.Message)
	case errors.As(err, &terr):
		fmt.Fprintf(a.stderr, "%s %s: %s\n", terr.Method, terr.URL, terr.Status)
	default:
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
	}
	return 1
}

func (a *app) newClient() (*client.Client, error) {
	hc := &http.Client{Timeout: a.cfg.Timeout}
	if a.cfg.Insecure {
		hc.Transport = &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return client.New(client.Config{
		Hostname: a.cfg.Hostname,
		Username: a.cfg.Username,
		Password: a.cfg.Password,
		ClientID: a.cfg.ClientID,
	}, client.WithHTTPClient(hc), client.WithLogger(a.logger))
}

func (a *app) print(v interface{}) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type command func(ctx context.Context, a *app, c *client.Client, args []string) error

var commands = map[string]command{
	"attach":      attach,
	"detach":      detach,
	"breakpoints": listBreakpoints,
	"break":       setBreakpoint,
	"clear":       clearBreakpoints,
	"threads":     listThreads,
	"thread":      showThread,
	"reset":       resetThreads,
	"eval":        evaluate,
	"members":     listMembers,
	"vars":        listVariables,
	"step":        stepThread,
}

func attach(ctx context.Context, a *app, c *client.Client, args []string) error {
	if err := c.CreateClient(ctx); err != nil {
		return err
	}
	a.logger.Info("debugger attached", "client_id", c.ClientID())
	return nil
}

func detach(ctx context.Context, a *app, c *client.Client, args []string) error {
	if err := c.DeleteClient(ctx); err != nil {
		return err
	}
	a.logger.Info("debugger detached", "client_id", c.ClientID())
	return nil
}

func listBreakpoints(ctx context.Context, a *app, c *client.Client, args []string) error {
	bps, err := c.GetBreakpoints(ctx)
	if err != nil {
		return err
	}
	return a.print(bps)
}

func setBreakpoint(ctx context.Context, a *app, c *client.Client, args []string) error {
	fs := newFlagSet("break", a.stderr)
	condition := fs.String("condition", "", "only halt when this expression is true")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: break needs path:line", errUsage)
	}
	bp, err := parseLocation(fs.Arg(0))
	if err != nil {
		return err
	}
	bp.Condition = *condition

	created, err := c.CreateBreakpoints(ctx, &domain.Breakpoints{Breakpoints: []domain.Breakpoint{bp}})
	if err != nil {
		return err
	}
	return a.print(created)
}

func clearBreakpoints(ctx context.Context, a *app, c *client.Client, args []string) error {
	switch len(args) {
	case 0:
		return c.RemoveBreakpoints(ctx)
	case 1:
		id, err := parseID("breakpoint id", args[0])
		if err != nil {
			return err
		}
		return c.RemoveBreakpoint(ctx, id)
	default:
		return fmt.Errorf("%w: clear takes at most one id", errUsage)
	}
}

func listThreads(ctx context.Context, a *app, c *client.Client, args []string) error {
	threads, err := c.GetScriptThreads(ctx)
	if err != nil {
		return err
	}
	return a.print(threads)
}

func showThread(ctx context.Context, a *app, c *client.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: thread needs an id", errUsage)
	}
	id, err := parseID("thread id", args[0])
	if err != nil {
		return err
	}
	thread, err := c.GetScriptThread(ctx, id)
	if err != nil {
		return err
	}
	return a.print(thread)
}

func resetThreads(ctx context.Context, a *app, c *client.Client, args []string) error {
	return c.ResetScriptThreads(ctx)
}

func evaluate(ctx context.Context, a *app, c *client.Client, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("%w: eval needs thread, frame and expression", errUsage)
	}
	thread, frame, err := parseFrame(args[0], args[1])
	if err != nil {
		return err
	}
	res, err := c.EvaluateExpression(ctx, thread, frame, strings.Join(args[2:], " "))
	if err != nil {
		return err
	}
	return a.print(res)
}

func listMembers(ctx context.Context, a *app, c *client.Client, args []string) error {
	fs := newFlagSet("members", a.stderr)
	path := fs.String("path", "", "object path, e.g. basket.productLineItems")
	start := fs.Int("start", client.DefaultStart, "index of the first member")
	count := fs.Int("count", client.DefaultCount, "maximum number of members")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("%w: members needs thread and frame", errUsage)
	}
	thread, frame, err := parseFrame(fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}

	q := client.MembersQuery{PageQuery: client.PageQuery{Start: *start, Count: *count}}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "path" {
			q.ObjectPath = client.String(*path)
		}
	})
	members, err := c.GetObjectMembers(ctx, thread, frame, q)
	if err != nil {
		return err
	}
	return a.print(members)
}

func listVariables(ctx context.Context, a *app, c *client.Client, args []string) error {
	fs := newFlagSet("vars", a.stderr)
	start := fs.Int("start", client.DefaultStart, "index of the first variable")
	count := fs.Int("count", client.DefaultCount, "maximum number of variables")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("%w: vars needs thread and frame", errUsage)
	}
	thread, frame, err := parseFrame(fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}
	vars, err := c.GetVariables(ctx, thread, frame, client.PageQuery{Start: *start, Count: *count})
	if err != nil {
		return err
	}
	return a.print(vars)
}

func stepThread(ctx context.Context, a *app, c *client.Client, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: step needs an action and a thread id", errUsage)
	}
	action := domain.StepAction(args[0])
	if !action.Valid() {
		return fmt.Errorf("%w: unknown step action %q", errUsage, args[0])
	}
	id, err := parseID("thread id", args[1])
	if err != nil {
		return err
	}
	thread, err := c.Step(ctx, id, action)
	if err != nil {
		return err
	}
	return a.print(thread)
}

func newFlagSet(name string, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	return fs
}

// parseLocation parses "path:line".
func parseLocation(s string) (domain.Breakpoint, error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 {
		return domain.Breakpoint{}, fmt.Errorf("%w: expected path:line, got %q", errUsage, s)
	}
	line, err := strconv.Atoi(s[i+1:])
	if err != nil || line < 1 {
		return domain.Breakpoint{}, fmt.Errorf("%w: invalid line number in %q", errUsage, s)
	}
	return domain.Breakpoint{ScriptPath: s[:i], LineNumber: line}, nil
}

func parseID(what, s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", errUsage, what, s)
	}
	return id, nil
}

func parseFrame(threadArg, frameArg string) (int, int, error) {
	thread, err := parseID("thread id", threadArg)
	if err != nil {
		return 0, 0, err
	}
	frame, err := parseID("frame index", frameArg)
	if err != nil {
		return 0, 0, err
	}
	return thread, frame, nil
}
