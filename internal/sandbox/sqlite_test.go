package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/xiaot623/gogo/sdapi/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testStack() []domain.StackFrame {
	return []domain.StackFrame{
		{Index: 0, Location: domain.Location{ScriptPath: "/app/cart.js", LineNumber: 12, FunctionName: "addItem"}},
		{Index: 1, Location: domain.Location{ScriptPath: "/app/controller.js", LineNumber: 40}},
	}
}

func testMembers() []FrameMember {
	return []FrameMember{
		{FrameIndex: 0, ScopedObjectMember: domain.ScopedObjectMember{
			ObjectMember: domain.ObjectMember{Name: "basket", Type: "dw.order.Basket", Value: "[Basket]"},
			Scope:        domain.ScopeLocal,
		}},
		{FrameIndex: 0, ScopedObjectMember: domain.ScopedObjectMember{
			ObjectMember: domain.ObjectMember{Name: "productLineItems", Parent: "basket", Type: "dw.util.Collection", Value: "[Collection]"},
		}},
		{FrameIndex: 1, ScopedObjectMember: domain.ScopedObjectMember{
			ObjectMember: domain.ObjectMember{Name: "request", Type: "dw.system.Request", Value: "[Request]"},
			Scope:        domain.ScopeGlobal,
		}},
	}
}

func TestSQLiteStoreClients(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	got, err := store.GetClient(ctx, "c1")
	if err != nil {
		t.Fatalf("GetClient failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no client, got %+v", got)
	}

	enabledAt := time.UnixMilli(1700000000000)
	if err := store.EnableClient(ctx, &ClientSession{ClientID: "c1", SessionID: "s1", EnabledAt: enabledAt}); err != nil {
		t.Fatalf("EnableClient failed: %v", err)
	}
	if err := store.EnableClient(ctx, &ClientSession{ClientID: "c1", SessionID: "s2", EnabledAt: enabledAt}); err != nil {
		t.Fatalf("EnableClient again failed: %v", err)
	}

	got, err = store.GetClient(ctx, "c1")
	if err != nil {
		t.Fatalf("GetClient failed: %v", err)
	}
	if got == nil || got.SessionID != "s2" || !got.EnabledAt.Equal(enabledAt) {
		t.Fatalf("unexpected client: %+v", got)
	}
}

func TestSQLiteStoreBreakpoints(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	created, err := store.CreateBreakpoints(ctx, "c1", []domain.Breakpoint{
		{ScriptPath: "/app/cart.js", LineNumber: 12},
		{ScriptPath: "/app/cart.js", LineNumber: 20, Condition: "qty > 1"},
	})
	if err != nil {
		t.Fatalf("CreateBreakpoints failed: %v", err)
	}
	if len(created) != 2 || created[0].ID == created[1].ID {
		t.Fatalf("unexpected breakpoints: %+v", created)
	}
	if created[1].Condition != "qty > 1" {
		t.Fatalf("condition not stored: %+v", created[1])
	}

	other, err := store.ListBreakpoints(ctx, "c2")
	if err != nil {
		t.Fatalf("ListBreakpoints failed: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("breakpoints leaked across clients: %+v", other)
	}

	bp, err := store.GetBreakpoint(ctx, "c1", created[0].ID)
	if err != nil {
		t.Fatalf("GetBreakpoint failed: %v", err)
	}
	if bp == nil || bp.LineNumber != 12 {
		t.Fatalf("unexpected breakpoint: %+v", bp)
	}

	deleted, err := store.DeleteBreakpoint(ctx, "c1", created[0].ID)
	if err != nil || !deleted {
		t.Fatalf("DeleteBreakpoint = %v, %v", deleted, err)
	}
	deleted, err = store.DeleteBreakpoint(ctx, "c1", created[0].ID)
	if err != nil || deleted {
		t.Fatalf("second DeleteBreakpoint = %v, %v", deleted, err)
	}

	if err := store.DeleteBreakpoints(ctx, "c1"); err != nil {
		t.Fatalf("DeleteBreakpoints failed: %v", err)
	}
	all, err := store.ListBreakpoints(ctx, "c1")
	if err != nil {
		t.Fatalf("ListBreakpoints failed: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected no breakpoints, got %+v", all)
	}
}

func TestSQLiteStoreThreads(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	now := time.UnixMilli(1700000000000)

	thread, err := store.HaltThread(ctx, "c1", now, testStack(), testMembers())
	if err != nil {
		t.Fatalf("HaltThread failed: %v", err)
	}

	got, err := store.GetThread(ctx, "c1", thread.ID)
	if err != nil {
		t.Fatalf("GetThread failed: %v", err)
	}
	if got == nil || !got.Halted() || len(got.CallStack) != 2 {
		t.Fatalf("unexpected thread: %+v", got)
	}
	if got.CallStack[0].Location.FunctionName != "addItem" || got.CallStack[1].Location.FunctionName != "" {
		t.Fatalf("unexpected frames: %+v", got.CallStack)
	}

	missing, err := store.GetThread(ctx, "c2", thread.ID)
	if err != nil {
		t.Fatalf("GetThread failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("thread visible to other client: %+v", missing)
	}

	top, err := store.ListMembers(ctx, thread.ID, 0, "")
	if err != nil {
		t.Fatalf("ListMembers failed: %v", err)
	}
	if len(top) != 1 || top[0].Name != "basket" || top[0].Scope != domain.ScopeLocal {
		t.Fatalf("unexpected members: %+v", top)
	}
	nested, err := store.ListMembers(ctx, thread.ID, 0, "basket")
	if err != nil {
		t.Fatalf("ListMembers failed: %v", err)
	}
	if len(nested) != 1 || nested[0].Name != "productLineItems" {
		t.Fatalf("unexpected nested members: %+v", nested)
	}

	// Pop the innermost frame.
	got.CallStack = []domain.StackFrame{{Index: 0, Location: got.CallStack[1].Location}}
	if err := store.UpdateThread(ctx, "c1", got, 1, now); err != nil {
		t.Fatalf("UpdateThread failed: %v", err)
	}
	shifted, err := store.ListMembers(ctx, thread.ID, 0, "")
	if err != nil {
		t.Fatalf("ListMembers failed: %v", err)
	}
	if len(shifted) != 1 || shifted[0].Name != "request" {
		t.Fatalf("members not shifted: %+v", shifted)
	}

	got.Status = domain.ThreadStatusRunning
	got.CallStack = nil
	if err := store.UpdateThread(ctx, "c1", got, 0, now); err != nil {
		t.Fatalf("UpdateThread failed: %v", err)
	}
	resumed, err := store.GetThread(ctx, "c1", thread.ID)
	if err != nil {
		t.Fatalf("GetThread failed: %v", err)
	}
	if resumed.Halted() || len(resumed.CallStack) != 0 {
		t.Fatalf("thread not resumed: %+v", resumed)
	}
}

func TestSQLiteStoreHaltExpiry(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	start := time.UnixMilli(1700000000000)

	early, err := store.HaltThread(ctx, "c1", start, testStack(), nil)
	if err != nil {
		t.Fatalf("HaltThread failed: %v", err)
	}
	late, err := store.HaltThread(ctx, "c1", start.Add(30*time.Second), testStack(), nil)
	if err != nil {
		t.Fatalf("HaltThread failed: %v", err)
	}

	n, err := store.ResumeExpired(ctx, "c1", start.Add(10*time.Second))
	if err != nil {
		t.Fatalf("ResumeExpired failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 resumed thread, got %d", n)
	}

	threads, err := store.ListThreads(ctx, "c1")
	if err != nil {
		t.Fatalf("ListThreads failed: %v", err)
	}
	if len(threads) != 2 || threads[0].ID != early.ID || threads[0].Halted() || !threads[1].Halted() {
		t.Fatalf("unexpected threads: %+v", threads)
	}

	if err := store.ResetThreads(ctx, "c1", start.Add(time.Minute)); err != nil {
		t.Fatalf("ResetThreads failed: %v", err)
	}
	n, err = store.ResumeExpired(ctx, "c1", start.Add(45*time.Second))
	if err != nil {
		t.Fatalf("ResumeExpired failed: %v", err)
	}
	if n != 0 {
		t.Fatalf("reset thread %d expired", late.ID)
	}
}

func TestSQLiteStoreDisableClient(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	now := time.Now()

	if err := store.EnableClient(ctx, &ClientSession{ClientID: "c1", SessionID: "s1", EnabledAt: now}); err != nil {
		t.Fatalf("EnableClient failed: %v", err)
	}
	if _, err := store.CreateBreakpoints(ctx, "c1", []domain.Breakpoint{{ScriptPath: "/a.js", LineNumber: 1}}); err != nil {
		t.Fatalf("CreateBreakpoints failed: %v", err)
	}
	thread, err := store.HaltThread(ctx, "c1", now, testStack(), testMembers())
	if err != nil {
		t.Fatalf("HaltThread failed: %v", err)
	}

	if err := store.DisableClient(ctx, "c1"); err != nil {
		t.Fatalf("DisableClient failed: %v", err)
	}

	session, _ := store.GetClient(ctx, "c1")
	if session != nil {
		t.Fatalf("client still enabled: %+v", session)
	}
	bps, _ := store.ListBreakpoints(ctx, "c1")
	if len(bps) != 0 {
		t.Fatalf("breakpoints not cleared: %+v", bps)
	}
	got, _ := store.GetThread(ctx, "c1", thread.ID)
	if got == nil || got.Halted() {
		t.Fatalf("thread not resumed: %+v", got)
	}
	members, _ := store.ListMembers(ctx, thread.ID, 0, "")
	if len(members) != 0 {
		t.Fatalf("members not cleared: %+v", members)
	}
}
