package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptThreadValidate(t *testing.T) {
	tests := []struct {
		name    string
		thread  ScriptThread
		wantErr bool
	}{
		{"running", ScriptThread{ID: 1, Status: ThreadStatusRunning}, false},
		{"halted", ScriptThread{ID: 1, Status: ThreadStatusHalted, CallStack: []StackFrame{{Index: 0}}}, false},
		{"halted without stack", ScriptThread{ID: 1, Status: ThreadStatusHalted}, true},
		{"running with stack", ScriptThread{ID: 1, Status: ThreadStatusRunning, CallStack: []StackFrame{{Index: 0}}}, true},
		{"unknown status", ScriptThread{ID: 1, Status: "paused"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.thread.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDebuggerBreakpointFlattensFields(t *testing.T) {
	data := []byte(`{"id":1,"line_number":1,"script_path":"/","condition":"a > 1"}`)

	var bp DebuggerBreakpoint
	require.NoError(t, json.Unmarshal(data, &bp))
	assert.Equal(t, 1, bp.ID)
	assert.Equal(t, "/", bp.ScriptPath)
	assert.Equal(t, 1, bp.LineNumber)
	assert.Equal(t, "a > 1", bp.Condition)
}

func TestScopedObjectMemberDecode(t *testing.T) {
	data := []byte(`{"object_members":[{"name":"basket","parent":"","type":"dw.order.Basket","value":"[Basket]","scope":"local"}],"start":0,"count":200,"total":1}`)

	var page ObjectMembers[ScopedObjectMember]
	require.NoError(t, json.Unmarshal(data, &page))
	require.Len(t, page.ObjectMembers, 1)
	assert.Equal(t, "basket", page.ObjectMembers[0].Name)
	assert.Equal(t, ScopeLocal, page.ObjectMembers[0].Scope)
	assert.Equal(t, 200, page.Count)
	assert.Equal(t, 1, page.Total)
}

func TestLocationString(t *testing.T) {
	assert.Equal(t, "/app/cart.js:12", Location{ScriptPath: "/app/cart.js", LineNumber: 12}.String())
	assert.Equal(t, "/app/cart.js:12 (show)", Location{ScriptPath: "/app/cart.js", LineNumber: 12, FunctionName: "show"}.String())
}

func TestStepActionValid(t *testing.T) {
	for _, a := range StepActions {
		assert.True(t, a.Valid(), a)
	}
	assert.False(t, StepAction("pause").Valid())
	assert.True(t, ScopeClosure.Valid())
	assert.False(t, Scope("module").Valid())
}
