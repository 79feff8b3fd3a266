// Package fault maps the fault documents returned by the script debugger API
// to typed errors.
package fault

import "fmt"

// Kind identifies one known fault condition.
type Kind int

const (
	KindNotAuthorized Kind = iota + 1
	KindClientIDRequired
	KindDebuggerDisabled
	KindInvalidScriptPath
	KindInvalidScriptFile
	KindBreakpointNotFound
	KindScriptThreadNotFound
	KindInvalidFrameIndex
)

// Discriminators sent by the debugger in fault.type.
const (
	TypeNotAuthorized        = "NotAuthorizedException"
	TypeClientIDRequired     = "ClientIdRequiredException"
	TypeDebuggerDisabled     = "DebuggerDisabledException"
	TypeInvalidScriptPath    = "InvalidScriptPathException"
	TypeInvalidScriptFile    = "InvalidScriptFileException"
	TypeBreakpointNotFound   = "BreakpointNotFoundException"
	TypeScriptThreadNotFound = "ScriptThreadNotFoundException"
	TypeInvalidFrameIndex    = "InvalidFrameIndexException"
)

var kindTypes = map[Kind]string{
	KindNotAuthorized:        TypeNotAuthorized,
	KindClientIDRequired:     TypeClientIDRequired,
	KindDebuggerDisabled:     TypeDebuggerDisabled,
	KindInvalidScriptPath:    TypeInvalidScriptPath,
	KindInvalidScriptFile:    TypeInvalidScriptFile,
	KindBreakpointNotFound:   TypeBreakpointNotFound,
	KindScriptThreadNotFound: TypeScriptThreadNotFound,
	KindInvalidFrameIndex:    TypeInvalidFrameIndex,
}

var typeKinds = map[string]Kind{
	TypeNotAuthorized:        KindNotAuthorized,
	TypeClientIDRequired:     KindClientIDRequired,
	TypeDebuggerDisabled:     KindDebuggerDisabled,
	TypeInvalidScriptPath:    KindInvalidScriptPath,
	TypeInvalidScriptFile:    KindInvalidScriptFile,
	TypeBreakpointNotFound:   KindBreakpointNotFound,
	TypeScriptThreadNotFound: KindScriptThreadNotFound,
	TypeInvalidFrameIndex:    KindInvalidFrameIndex,
}

// Kinds lists every known fault kind.
var Kinds = []Kind{
	KindNotAuthorized,
	KindClientIDRequired,
	KindDebuggerDisabled,
	KindInvalidScriptPath,
	KindInvalidScriptFile,
	KindBreakpointNotFound,
	KindScriptThreadNotFound,
	KindInvalidFrameIndex,
}

// Lookup resolves a discriminator to its kind.
func Lookup(discriminator string) (Kind, bool) {
	k, ok := typeKinds[discriminator]
	return k, ok
}

// Type returns the discriminator for k, or "" for an unknown kind.
func (k Kind) Type() string {
	return kindTypes[k]
}

func (k Kind) String() string {
	if t, ok := kindTypes[k]; ok {
		return t
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a known fault reported by the debugger.
type Error struct {
	Kind    Kind
	Message string
}

// New creates a fault of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Message
}

// Is matches any fault of the same kind, so callers can compare against the
// Err* sentinels with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrNotAuthorized        = &Error{Kind: KindNotAuthorized}
	ErrClientIDRequired     = &Error{Kind: KindClientIDRequired}
	ErrDebuggerDisabled     = &Error{Kind: KindDebuggerDisabled}
	ErrInvalidScriptPath    = &Error{Kind: KindInvalidScriptPath}
	ErrInvalidScriptFile    = &Error{Kind: KindInvalidScriptFile}
	ErrBreakpointNotFound   = &Error{Kind: KindBreakpointNotFound}
	ErrScriptThreadNotFound = &Error{Kind: KindScriptThreadNotFound}
	ErrInvalidFrameIndex    = &Error{Kind: KindInvalidFrameIndex}
)

func NewNotAuthorized(message string) *Error { return New(KindNotAuthorized, message) }

func NewClientIDRequired(message string) *Error { return New(KindClientIDRequired, message) }

func NewDebuggerDisabled(message string) *Error { return New(KindDebuggerDisabled, message) }

func NewInvalidScriptPath(message string) *Error { return New(KindInvalidScriptPath, message) }

func NewInvalidScriptFile(message string) *Error { return New(KindInvalidScriptFile, message) }

func NewBreakpointNotFound(message string) *Error { return New(KindBreakpointNotFound, message) }

func NewScriptThreadNotFound(message string) *Error { return New(KindScriptThreadNotFound, message) }

func NewInvalidFrameIndex(message string) *Error { return New(KindInvalidFrameIndex, message) }
