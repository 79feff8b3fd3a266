// Package sandbox implements a local stand-in for the script debugger API.
//
// It serves the same routes and fault documents as the remote service, keeps
// its state in SQLite and decides access with a rego policy. It backs the
// end-to-end client tests and the "sdapi serve" command.
package sandbox

import (
	"context"
	"time"

	"github.com/xiaot623/gogo/sdapi/domain"
)

// ClientSession is a debugger client that called POST /client.
type ClientSession struct {
	ClientID  string
	SessionID string
	EnabledAt time.Time
}

// FrameMember is a member visible in one frame of a halted thread.
type FrameMember struct {
	FrameIndex int `json:"frame_index"`
	domain.ScopedObjectMember
}

// Store defines the interface for sandbox state.
type Store interface {
	// Clients
	EnableClient(ctx context.Context, session *ClientSession) error
	GetClient(ctx context.Context, clientID string) (*ClientSession, error)
	DisableClient(ctx context.Context, clientID string) error

	// Breakpoints
	CreateBreakpoints(ctx context.Context, clientID string, bps []domain.Breakpoint) ([]domain.DebuggerBreakpoint, error)
	ListBreakpoints(ctx context.Context, clientID string) ([]domain.DebuggerBreakpoint, error)
	GetBreakpoint(ctx context.Context, clientID string, id int) (*domain.DebuggerBreakpoint, error)
	DeleteBreakpoint(ctx context.Context, clientID string, id int) (bool, error)
	DeleteBreakpoints(ctx context.Context, clientID string) error

	// Threads
	HaltThread(ctx context.Context, clientID string, haltedAt time.Time, stack []domain.StackFrame, members []FrameMember) (*domain.ScriptThread, error)
	ListThreads(ctx context.Context, clientID string) ([]domain.ScriptThread, error)
	GetThread(ctx context.Context, clientID string, threadID int) (*domain.ScriptThread, error)
	UpdateThread(ctx context.Context, clientID string, thread *domain.ScriptThread, popped int, now time.Time) error
	ResetThreads(ctx context.Context, clientID string, haltedAt time.Time) error
	ResumeExpired(ctx context.Context, clientID string, cutoff time.Time) (int, error)

	// Members
	ListMembers(ctx context.Context, threadID, frameIndex int, parent string) ([]domain.ScopedObjectMember, error)

	Close() error
}
