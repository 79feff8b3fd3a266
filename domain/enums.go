// Package domain defines the data shapes exchanged with the script debugger API.
package domain

// APIVersion is the protocol version carried in the "_v" field of documents.
const APIVersion = "2.0"

// ThreadStatus represents the status of a script thread.
type ThreadStatus string

const (
	ThreadStatusRunning ThreadStatus = "running"
	ThreadStatusHalted  ThreadStatus = "halted"
)

// Scope tags where a variable was resolved.
type Scope string

const (
	ScopeLocal   Scope = "local"
	ScopeClosure Scope = "closure"
	ScopeGlobal  Scope = "global"
)

// Valid reports whether s is one of the known scopes.
func (s Scope) Valid() bool {
	switch s {
	case ScopeLocal, ScopeClosure, ScopeGlobal:
		return true
	}
	return false
}

// StepAction names a thread control action.
type StepAction string

const (
	StepInto   StepAction = "into"
	StepOut    StepAction = "out"
	StepOver   StepAction = "over"
	StepResume StepAction = "resume"
	StepStop   StepAction = "stop"
)

// StepActions lists every thread control action.
var StepActions = []StepAction{StepInto, StepOut, StepOver, StepResume, StepStop}

// Valid reports whether a is a known step action.
func (a StepAction) Valid() bool {
	for _, known := range StepActions {
		if a == known {
			return true
		}
	}
	return false
}
