package sandbox

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/xiaot623/gogo/sdapi/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS clients (
			client_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			enabled_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS breakpoints (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			client_id TEXT NOT NULL,
			script_path TEXT NOT NULL,
			line_number INTEGER NOT NULL,
			condition_expr TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_breakpoints_client ON breakpoints(client_id, id)`,
		`CREATE TABLE IF NOT EXISTS threads (
			thread_id INTEGER PRIMARY KEY AUTOINCREMENT,
			client_id TEXT NOT NULL,
			status TEXT NOT NULL,
			halted_at INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_threads_client ON threads(client_id, thread_id)`,
		`CREATE TABLE IF NOT EXISTS frames (
			thread_id INTEGER NOT NULL,
			frame_index INTEGER NOT NULL,
			script_path TEXT NOT NULL,
			line_number INTEGER NOT NULL,
			function_name TEXT,
			PRIMARY KEY (thread_id, frame_index),
			FOREIGN KEY (thread_id) REFERENCES threads(thread_id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS members (
			member_id INTEGER PRIMARY KEY AUTOINCREMENT,
			thread_id INTEGER NOT NULL,
			frame_index INTEGER NOT NULL,
			name TEXT NOT NULL,
			parent TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL,
			value TEXT NOT NULL,
			scope TEXT NOT NULL DEFAULT 'local',
			FOREIGN KEY (thread_id) REFERENCES threads(thread_id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_members_frame ON members(thread_id, frame_index, parent)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// EnableClient records an enabled client, replacing an earlier session.
func (s *SQLiteStore) EnableClient(ctx context.Context, session *ClientSession) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO clients (client_id, session_id, enabled_at) VALUES (?, ?, ?)
		ON CONFLICT(client_id) DO UPDATE SET session_id = excluded.session_id, enabled_at = excluded.enabled_at`,
		session.ClientID, session.SessionID, session.EnabledAt.UnixMilli())
	return err
}

// GetClient retrieves an enabled client. It returns nil if the client is not enabled.
func (s *SQLiteStore) GetClient(ctx context.Context, clientID string) (*ClientSession, error) {
	var session ClientSession
	var enabledAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT client_id, session_id, enabled_at FROM clients WHERE client_id = ?`,
		clientID).Scan(&session.ClientID, &session.SessionID, &enabledAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	session.EnabledAt = time.UnixMilli(enabledAt)
	return &session, nil
}

// DisableClient removes the client's breakpoints, resumes its halted threads
// and disables it.
func (s *SQLiteStore) DisableClient(ctx context.Context, clientID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`DELETE FROM breakpoints WHERE client_id = ?`,
		`DELETE FROM members WHERE thread_id IN (SELECT thread_id FROM threads WHERE client_id = ?)`,
		`DELETE FROM frames WHERE thread_id IN (SELECT thread_id FROM threads WHERE client_id = ?)`,
		`UPDATE threads SET status = 'running', halted_at = NULL WHERE client_id = ?`,
		`DELETE FROM clients WHERE client_id = ?`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, clientID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CreateBreakpoints stores breakpoints and returns them with their ids.
func (s *SQLiteStore) CreateBreakpoints(ctx context.Context, clientID string, bps []domain.Breakpoint) ([]domain.DebuggerBreakpoint, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	created := make([]domain.DebuggerBreakpoint, 0, len(bps))
	for _, bp := range bps {
		var condition sql.NullString
		if bp.Condition != "" {
			condition = sql.NullString{String: bp.Condition, Valid: true}
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO breakpoints (client_id, script_path, line_number, condition_expr) VALUES (?, ?, ?, ?)`,
			clientID, bp.ScriptPath, bp.LineNumber, condition)
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		created = append(created, domain.DebuggerBreakpoint{ID: int(id), Breakpoint: bp})
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

// ListBreakpoints lists the client's breakpoints in creation order.
func (s *SQLiteStore) ListBreakpoints(ctx context.Context, clientID string) ([]domain.DebuggerBreakpoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, script_path, line_number, condition_expr FROM breakpoints WHERE client_id = ? ORDER BY id ASC`,
		clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bps := []domain.DebuggerBreakpoint{}
	for rows.Next() {
		bp, err := scanBreakpoint(rows)
		if err != nil {
			return nil, err
		}
		bps = append(bps, *bp)
	}
	return bps, rows.Err()
}

// GetBreakpoint retrieves a breakpoint by id. It returns nil if not found.
func (s *SQLiteStore) GetBreakpoint(ctx context.Context, clientID string, id int) (*domain.DebuggerBreakpoint, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, script_path, line_number, condition_expr FROM breakpoints WHERE client_id = ? AND id = ?`,
		clientID, id)
	bp, err := scanBreakpoint(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return bp, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBreakpoint(row rowScanner) (*domain.DebuggerBreakpoint, error) {
	var bp domain.DebuggerBreakpoint
	var condition sql.NullString
	if err := row.Scan(&bp.ID, &bp.ScriptPath, &bp.LineNumber, &condition); err != nil {
		return nil, err
	}
	if condition.Valid {
		bp.Condition = condition.String
	}
	return &bp, nil
}

// DeleteBreakpoint removes one breakpoint and reports whether it existed.
func (s *SQLiteStore) DeleteBreakpoint(ctx context.Context, clientID string, id int) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM breakpoints WHERE client_id = ? AND id = ?`,
		clientID, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteBreakpoints removes all of the client's breakpoints.
func (s *SQLiteStore) DeleteBreakpoints(ctx context.Context, clientID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM breakpoints WHERE client_id = ?`, clientID)
	return err
}

// HaltThread creates a halted thread with the given call stack and members.
func (s *SQLiteStore) HaltThread(ctx context.Context, clientID string, haltedAt time.Time, stack []domain.StackFrame, members []FrameMember) (*domain.ScriptThread, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO threads (client_id, status, halted_at) VALUES (?, ?, ?)`,
		clientID, domain.ThreadStatusHalted, haltedAt.UnixMilli())
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	thread := &domain.ScriptThread{ID: int(id), Status: domain.ThreadStatusHalted, CallStack: stack}
	if err := insertFrames(ctx, tx, thread.ID, stack); err != nil {
		return nil, err
	}
	for _, m := range members {
		scope := m.Scope
		if scope == "" {
			scope = domain.ScopeLocal
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO members (thread_id, frame_index, name, parent, type, value, scope) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			thread.ID, m.FrameIndex, m.Name, m.Parent, m.Type, m.Value, scope); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return thread, nil
}

func insertFrames(ctx context.Context, tx *sql.Tx, threadID int, stack []domain.StackFrame) error {
	for _, f := range stack {
		var fn sql.NullString
		if f.Location.FunctionName != "" {
			fn = sql.NullString{String: f.Location.FunctionName, Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO frames (thread_id, frame_index, script_path, line_number, function_name) VALUES (?, ?, ?, ?, ?)`,
			threadID, f.Index, f.Location.ScriptPath, f.Location.LineNumber, fn); err != nil {
			return err
		}
	}
	return nil
}

// ListThreads lists the client's threads with their call stacks.
func (s *SQLiteStore) ListThreads(ctx context.Context, clientID string) ([]domain.ScriptThread, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT thread_id, status FROM threads WHERE client_id = ? ORDER BY thread_id ASC`,
		clientID)
	if err != nil {
		return nil, err
	}
	threads := []domain.ScriptThread{}
	for rows.Next() {
		var t domain.ScriptThread
		if err := rows.Scan(&t.ID, &t.Status); err != nil {
			rows.Close()
			return nil, err
		}
		threads = append(threads, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range threads {
		stack, err := s.loadFrames(ctx, threads[i].ID)
		if err != nil {
			return nil, err
		}
		threads[i].CallStack = stack
	}
	return threads, nil
}

// GetThread retrieves a thread by id. It returns nil if not found.
func (s *SQLiteStore) GetThread(ctx context.Context, clientID string, threadID int) (*domain.ScriptThread, error) {
	var t domain.ScriptThread
	err := s.db.QueryRowContext(ctx,
		`SELECT thread_id, status FROM threads WHERE client_id = ? AND thread_id = ?`,
		clientID, threadID).Scan(&t.ID, &t.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	stack, err := s.loadFrames(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	t.CallStack = stack
	return &t, nil
}

func (s *SQLiteStore) loadFrames(ctx context.Context, threadID int) ([]domain.StackFrame, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT frame_index, script_path, line_number, function_name FROM frames WHERE thread_id = ? ORDER BY frame_index ASC`,
		threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []domain.StackFrame
	for rows.Next() {
		var f domain.StackFrame
		var fn sql.NullString
		if err := rows.Scan(&f.Index, &f.Location.ScriptPath, &f.Location.LineNumber, &fn); err != nil {
			return nil, err
		}
		if fn.Valid {
			f.Location.FunctionName = fn.String
		}
		frames = append(frames, f)
	}
	return frames, rows.Err()
}

// UpdateThread stores a thread's new status and call stack. A halted thread
// restarts its halt timer at now. Members of the innermost popped frames are
// dropped and the remaining members move down by popped. A running thread
// loses all frames and members.
func (s *SQLiteStore) UpdateThread(ctx context.Context, clientID string, thread *domain.ScriptThread, popped int, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var haltedAt sql.NullInt64
	if thread.Halted() {
		haltedAt = sql.NullInt64{Int64: now.UnixMilli(), Valid: true}
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE threads SET status = ?, halted_at = ? WHERE client_id = ? AND thread_id = ?`,
		thread.Status, haltedAt, clientID, thread.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("thread %d not found", thread.ID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM frames WHERE thread_id = ?`, thread.ID); err != nil {
		return err
	}
	if !thread.Halted() {
		if _, err := tx.ExecContext(ctx, `DELETE FROM members WHERE thread_id = ?`, thread.ID); err != nil {
			return err
		}
		return tx.Commit()
	}

	if err := insertFrames(ctx, tx, thread.ID, thread.CallStack); err != nil {
		return err
	}
	if popped > 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM members WHERE thread_id = ? AND frame_index < ?`, thread.ID, popped); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE members SET frame_index = frame_index - ? WHERE thread_id = ?`, popped, thread.ID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ResetThreads restarts the halt timer of every halted thread of the client.
func (s *SQLiteStore) ResetThreads(ctx context.Context, clientID string, haltedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE threads SET halted_at = ? WHERE client_id = ? AND status = 'halted'`,
		haltedAt.UnixMilli(), clientID)
	return err
}

// ResumeExpired resumes the client's threads halted before cutoff and
// returns how many were resumed.
func (s *SQLiteStore) ResumeExpired(ctx context.Context, clientID string, cutoff time.Time) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	expired := `SELECT thread_id FROM threads WHERE client_id = ? AND status = 'halted' AND halted_at < ?`
	if _, err := tx.ExecContext(ctx, `DELETE FROM members WHERE thread_id IN (`+expired+`)`, clientID, cutoff.UnixMilli()); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM frames WHERE thread_id IN (`+expired+`)`, clientID, cutoff.UnixMilli()); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE threads SET status = 'running', halted_at = NULL WHERE client_id = ? AND status = 'halted' AND halted_at < ?`,
		clientID, cutoff.UnixMilli())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), tx.Commit()
}

// ListMembers lists the members of a frame whose parent is parent, in
// insertion order.
func (s *SQLiteStore) ListMembers(ctx context.Context, threadID, frameIndex int, parent string) ([]domain.ScopedObjectMember, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, parent, type, value, scope FROM members WHERE thread_id = ? AND frame_index = ? AND parent = ? ORDER BY member_id ASC`,
		threadID, frameIndex, parent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []domain.ScopedObjectMember{}
	for rows.Next() {
		var m domain.ScopedObjectMember
		if err := rows.Scan(&m.Name, &m.Parent, &m.Type, &m.Value, &m.Scope); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
