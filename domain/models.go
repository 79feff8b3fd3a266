package domain

import "fmt"

// Location is a position in a script.
type Location struct {
	ScriptPath   string `json:"script_path"`
	LineNumber   int    `json:"line_number"`
	FunctionName string `json:"function_name,omitempty"`
}

// String formats the location as path:line.
func (l Location) String() string {
	if l.FunctionName != "" {
		return fmt.Sprintf("%s:%d (%s)", l.ScriptPath, l.LineNumber, l.FunctionName)
	}
	return fmt.Sprintf("%s:%d", l.ScriptPath, l.LineNumber)
}

// StackFrame is one frame of a halted thread's call stack. Index 0 is the
// current frame.
type StackFrame struct {
	Index    int      `json:"index"`
	Location Location `json:"location"`
}

// ScriptThread is a script thread known to the debugger.
type ScriptThread struct {
	ID        int          `json:"id"`
	Status    ThreadStatus `json:"status"`
	CallStack []StackFrame `json:"call_stack,omitempty"`
}

// Halted reports whether the thread is halted.
func (t *ScriptThread) Halted() bool {
	return t.Status == ThreadStatusHalted
}

// Validate checks that the call stack is present only on halted threads.
func (t *ScriptThread) Validate() error {
	switch t.Status {
	case ThreadStatusHalted:
		if len(t.CallStack) == 0 {
			return fmt.Errorf("thread %d: halted without call stack", t.ID)
		}
	case ThreadStatusRunning:
		if len(t.CallStack) != 0 {
			return fmt.Errorf("thread %d: running with call stack", t.ID)
		}
	default:
		return fmt.Errorf("thread %d: unknown status %q", t.ID, t.Status)
	}
	return nil
}

// ScriptThreads is the document returned when listing threads.
type ScriptThreads struct {
	ScriptThreads []ScriptThread `json:"script_threads"`
}

// Breakpoint is a breakpoint requested by the caller.
type Breakpoint struct {
	ScriptPath string `json:"script_path"`
	LineNumber int    `json:"line_number"`
	Condition  string `json:"condition,omitempty"`
}

// Breakpoints is the request document for creating breakpoints.
type Breakpoints struct {
	Breakpoints []Breakpoint `json:"breakpoints"`
}

// DebuggerBreakpoint is a breakpoint accepted by the debugger.
type DebuggerBreakpoint struct {
	ID int `json:"id"`
	Breakpoint
}

// DebuggerBreakpoints is the document listing accepted breakpoints.
type DebuggerBreakpoints struct {
	Breakpoints []DebuggerBreakpoint `json:"breakpoints"`
}

// ObjectMember is a snapshot of one property or variable.
type ObjectMember struct {
	Name   string `json:"name"`
	Parent string `json:"parent"`
	Type   string `json:"type"`
	Value  string `json:"value"`
}

// ScopedObjectMember is an ObjectMember tagged with the scope it was found in.
type ScopedObjectMember struct {
	ObjectMember
	Scope Scope `json:"scope"`
}

// Member is satisfied by the member variants an ObjectMembers page can hold.
type Member interface {
	ObjectMember | ScopedObjectMember
}

// ObjectMembers is one page of members. Start and Count describe the
// requested window, Total the full result size.
type ObjectMembers[T Member] struct {
	ObjectMembers []T `json:"object_members"`
	Start         int `json:"start"`
	Count         int `json:"count"`
	Total         int `json:"total"`
}

// EvalResult is the outcome of evaluating an expression in a frame.
type EvalResult struct {
	Expression string `json:"expression"`
	Result     string `json:"result"`
}

// Fault is the error detail returned by the debugger.
type Fault struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// FaultResponse is the body of a failed request.
type FaultResponse struct {
	Version string `json:"_v,omitempty"`
	Fault   *Fault `json:"fault,omitempty"`
}
