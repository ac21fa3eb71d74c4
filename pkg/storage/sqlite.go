package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/codebuildervaibhav/Postman-clone-server/pkg/model"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT UNIQUE NOT NULL,
	name TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS user_sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	token TEXT UNIQUE NOT NULL,
	expires_at DATETIME NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_sessions_token ON user_sessions(token);

CREATE TABLE IF NOT EXISTS workspaces (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	creator_id INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (creator_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS collections (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	workspace_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	description TEXT DEFAULT '',
	created_at DATETIME NOT NULL,
	FOREIGN KEY (workspace_id) REFERENCES workspaces(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS requests (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	collection_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	method TEXT NOT NULL,
	url TEXT NOT NULL,
	body TEXT DEFAULT '',
	headers TEXT DEFAULT '',
	created_at DATETIME NOT NULL,
	FOREIGN KEY (collection_id) REFERENCES collections(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS environments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	workspace_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (workspace_id) REFERENCES workspaces(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS variables (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_id INTEGER NOT NULL,
	owner_type TEXT NOT NULL,
	key TEXT NOT NULL,
	value TEXT DEFAULT '',
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_variables_owner ON variables(owner_id, owner_type);

CREATE TABLE IF NOT EXISTS responses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	status_code INTEGER NOT NULL,
	headers TEXT DEFAULT '',
	body TEXT DEFAULT '',
	response_time_ms INTEGER NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS request_executions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	request_id INTEGER NOT NULL,
	response_id INTEGER NOT NULL,
	executed_at DATETIME NOT NULL,
	FOREIGN KEY (response_id) REFERENCES responses(id)
);
CREATE INDEX IF NOT EXISTS idx_executions_request_user ON request_executions(request_id, user_id, executed_at DESC);
`

// SQLite implements Store on a local SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if necessary) the database at path and
// applies the schema.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates any missing tables and indexes.
func (s *SQLite) Migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *SQLite) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLite) Close() error { return s.db.Close() }

// =============================================================================
// Users and sessions
// =============================================================================

func (s *SQLite) CreateUser(ctx context.Context, email, name, passwordHash string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, name, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		email, name, passwordHash, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLite) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE id = ?`, id))
}

func (s *SQLite) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE email = ?`, email))
}

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (s *SQLite) ListUsers(ctx context.Context) ([]*model.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

func (s *SQLite) CreateSession(ctx context.Context, userID int64, token string, expiresAt time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO user_sessions (user_id, token, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		userID, token, expiresAt.UTC(), time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}
	return res.LastInsertId()
}

// GetLiveSession returns the session for token if it has not expired,
// or nil when no such session exists.
func (s *SQLite) GetLiveSession(ctx context.Context, token string) (*model.Session, error) {
	var sess model.Session
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, token, expires_at, created_at
		 FROM user_sessions WHERE token = ? AND expires_at > ?`,
		token, time.Now().UTC()).
		Scan(&sess.ID, &sess.UserID, &sess.Token, &sess.ExpiresAt, &sess.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return &sess, nil
}

func (s *SQLite) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE token = ?`, token)
	return err
}

// =============================================================================
// Workspaces
// =============================================================================

func (s *SQLite) CreateWorkspace(ctx context.Context, name string, creatorID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO workspaces (name, creator_id, created_at) VALUES (?, ?, ?)`,
		name, creatorID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("insert workspace: %w", err)
	}
	return res.LastInsertId()
}

// GetWorkspaceByIDAndCreator looks up a workspace by id and creator in
// a single query. A missing workspace and a workspace owned by someone
// else are indistinguishable to the caller; both return nil.
func (s *SQLite) GetWorkspaceByIDAndCreator(ctx context.Context, id, creatorID int64) (*model.Workspace, error) {
	var w model.Workspace
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, creator_id, created_at FROM workspaces WHERE id = ? AND creator_id = ?`,
		id, creatorID).
		Scan(&w.ID, &w.Name, &w.CreatorID, &w.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan workspace: %w", err)
	}
	return &w, nil
}

func (s *SQLite) ListWorkspaces(ctx context.Context, creatorID int64) ([]*model.Workspace, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, creator_id, created_at FROM workspaces
		 WHERE creator_id = ? ORDER BY created_at DESC`, creatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*model.Workspace
	for rows.Next() {
		var w model.Workspace
		if err := rows.Scan(&w.ID, &w.Name, &w.CreatorID, &w.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &w)
	}
	return list, rows.Err()
}

func (s *SQLite) UpdateWorkspaceName(ctx context.Context, id int64, name string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE workspaces SET name = ? WHERE id = ?`, name, id)
	return err
}

func (s *SQLite) DeleteWorkspace(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM workspaces WHERE id = ?`, id)
	return err
}

func (s *SQLite) CountCollections(ctx context.Context, workspaceID int64) (int, error) {
	return s.count(ctx, `SELECT COUNT(id) FROM collections WHERE workspace_id = ?`, workspaceID)
}

func (s *SQLite) CountEnvironments(ctx context.Context, workspaceID int64) (int, error) {
	return s.count(ctx, `SELECT COUNT(id) FROM environments WHERE workspace_id = ?`, workspaceID)
}

func (s *SQLite) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// =============================================================================
// Collections
// =============================================================================

func (s *SQLite) CreateCollection(ctx context.Context, workspaceID int64, name, description string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO collections (workspace_id, name, description, created_at) VALUES (?, ?, ?, ?)`,
		workspaceID, name, description, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("insert collection: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLite) GetCollectionByID(ctx context.Context, id int64) (*model.Collection, error) {
	var c model.Collection
	err := s.db.QueryRowContext(ctx,
		`SELECT id, workspace_id, name, description, created_at FROM collections WHERE id = ?`, id).
		Scan(&c.ID, &c.WorkspaceID, &c.Name, &c.Description, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan collection: %w", err)
	}
	return &c, nil
}

func (s *SQLite) ListCollections(ctx context.Context, workspaceID int64) ([]*model.Collection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, workspace_id, name, description, created_at FROM collections
		 WHERE workspace_id = ? ORDER BY created_at DESC`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*model.Collection
	for rows.Next() {
		var c model.Collection
		if err := rows.Scan(&c.ID, &c.WorkspaceID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}

func (s *SQLite) UpdateCollection(ctx context.Context, id int64, name, description string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE collections SET name = ?, description = ? WHERE id = ?`, name, description, id)
	return err
}

func (s *SQLite) DeleteCollection(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id)
	return err
}

func (s *SQLite) CountRequests(ctx context.Context, collectionID int64) (int, error) {
	return s.count(ctx, `SELECT COUNT(id) FROM requests WHERE collection_id = ?`, collectionID)
}

// =============================================================================
// Request definitions
// =============================================================================

func (s *SQLite) CreateRequest(ctx context.Context, req *model.RequestDefinition) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO requests (collection_id, name, method, url, body, headers, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		req.CollectionID, req.Name, req.Method, req.URL, req.Body, req.Headers, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("insert request: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLite) GetRequestByID(ctx context.Context, id int64) (*model.RequestDefinition, error) {
	var r model.RequestDefinition
	err := s.db.QueryRowContext(ctx,
		`SELECT id, collection_id, name, method, url, body, headers, created_at
		 FROM requests WHERE id = ?`, id).
		Scan(&r.ID, &r.CollectionID, &r.Name, &r.Method, &r.URL, &r.Body, &r.Headers, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan request: %w", err)
	}
	return &r, nil
}

func (s *SQLite) ListRequests(ctx context.Context, collectionID int64) ([]*model.RequestDefinition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, collection_id, name, method, url, body, headers, created_at
		 FROM requests WHERE collection_id = ? ORDER BY created_at DESC`, collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*model.RequestDefinition
	for rows.Next() {
		var r model.RequestDefinition
		if err := rows.Scan(&r.ID, &r.CollectionID, &r.Name, &r.Method, &r.URL, &r.Body, &r.Headers, &r.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &r)
	}
	return list, rows.Err()
}

func (s *SQLite) UpdateRequest(ctx context.Context, req *model.RequestDefinition) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE requests SET name = ?, method = ?, url = ?, body = ?, headers = ? WHERE id = ?`,
		req.Name, req.Method, req.URL, req.Body, req.Headers, req.ID)
	return err
}

func (s *SQLite) DeleteRequest(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM requests WHERE id = ?`, id)
	return err
}

// =============================================================================
// Environments and variables
// =============================================================================

func (s *SQLite) CreateEnvironment(ctx context.Context, workspaceID int64, name string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO environments (workspace_id, name, created_at) VALUES (?, ?, ?)`,
		workspaceID, name, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("insert environment: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLite) ListEnvironments(ctx context.Context, workspaceID int64) ([]*model.Environment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, workspace_id, name, created_at FROM environments
		 WHERE workspace_id = ? ORDER BY created_at DESC`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*model.Environment
	for rows.Next() {
		var e model.Environment
		if err := rows.Scan(&e.ID, &e.WorkspaceID, &e.Name, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}

func (s *SQLite) DeleteEnvironment(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM environments WHERE id = ?`, id)
	return err
}

func (s *SQLite) CreateVariable(ctx context.Context, v *model.Variable) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO variables (owner_id, owner_type, key, value, created_at) VALUES (?, ?, ?, ?, ?)`,
		v.OwnerID, v.OwnerType, v.Key, v.Value, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("insert variable: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLite) GetVariableByID(ctx context.Context, id int64) (*model.Variable, error) {
	var v model.Variable
	err := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, owner_type, key, value, created_at FROM variables WHERE id = ?`, id).
		Scan(&v.ID, &v.OwnerID, &v.OwnerType, &v.Key, &v.Value, &v.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan variable: %w", err)
	}
	return &v, nil
}

func (s *SQLite) ListVariables(ctx context.Context, ownerID int64, ownerType string) ([]*model.Variable, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, owner_type, key, value, created_at FROM variables
		 WHERE owner_id = ? AND owner_type = ?`, ownerID, ownerType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*model.Variable
	for rows.Next() {
		var v model.Variable
		if err := rows.Scan(&v.ID, &v.OwnerID, &v.OwnerType, &v.Key, &v.Value, &v.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &v)
	}
	return list, rows.Err()
}

func (s *SQLite) UpdateVariable(ctx context.Context, id int64, key, value string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE variables SET key = ?, value = ? WHERE id = ?`, key, value, id)
	return err
}

func (s *SQLite) DeleteVariable(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM variables WHERE id = ?`, id)
	return err
}

// =============================================================================
// Responses and executions
// =============================================================================

// InsertResponse persists an immutable response record and returns its
// generated id. CreatedAt is set here if the caller left it zero.
func (s *SQLite) InsertResponse(ctx context.Context, rec *model.ResponseRecord) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO responses (status_code, headers, body, response_time_ms, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.StatusCode, rec.Headers, rec.Body, rec.ResponseTimeMs, rec.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert response: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	rec.ID = id
	return id, nil
}

func (s *SQLite) GetResponseByID(ctx context.Context, id int64) (*model.ResponseRecord, error) {
	var r model.ResponseRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT id, status_code, headers, body, response_time_ms, created_at
		 FROM responses WHERE id = ?`, id).
		Scan(&r.ID, &r.StatusCode, &r.Headers, &r.Body, &r.ResponseTimeMs, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan response: %w", err)
	}
	return &r, nil
}

func (s *SQLite) DeleteResponse(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM responses WHERE id = ?`, id)
	return err
}

// InsertExecution appends an execution referencing an already persisted
// response. The foreign key on response_id enforces that ordering.
func (s *SQLite) InsertExecution(ctx context.Context, userID, requestID, responseID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO request_executions (user_id, request_id, response_id, executed_at)
		 VALUES (?, ?, ?, ?)`,
		userID, requestID, responseID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("insert execution: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLite) GetExecutionByID(ctx context.Context, id int64) (*model.ExecutionRecord, error) {
	var e model.ExecutionRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, request_id, response_id, executed_at
		 FROM request_executions WHERE id = ?`, id).
		Scan(&e.ID, &e.UserID, &e.RequestID, &e.ResponseID, &e.ExecutedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan execution: %w", err)
	}
	return &e, nil
}

// ListExecutionsJoined returns one page of a user's executions for a
// request, newest first, each joined with its response columns.
func (s *SQLite) ListExecutionsJoined(ctx context.Context, requestID, userID int64, limit, offset int) ([]*model.ExecutionWithResponse, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.id, e.user_id, e.request_id, e.response_id, e.executed_at,
		        r.status_code, r.headers, r.body, r.response_time_ms, r.created_at AS response_created_at
		 FROM request_executions e
		 JOIN responses r ON e.response_id = r.id
		 WHERE e.request_id = ? AND e.user_id = ?
		 ORDER BY e.executed_at DESC, e.id DESC
		 LIMIT ? OFFSET ?`,
		requestID, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*model.ExecutionWithResponse
	for rows.Next() {
		var ex model.ExecutionWithResponse
		if err := rows.Scan(
			&ex.ID, &ex.UserID, &ex.RequestID, &ex.ResponseID, &ex.ExecutedAt,
			&ex.StatusCode, &ex.Headers, &ex.Body, &ex.ResponseTimeMs, &ex.ResponseCreatedAt,
		); err != nil {
			return nil, err
		}
		list = append(list, &ex)
	}
	return list, rows.Err()
}

func (s *SQLite) CountExecutions(ctx context.Context, requestID, userID int64) (int, error) {
	return s.count(ctx,
		`SELECT COUNT(id) FROM request_executions WHERE request_id = ? AND user_id = ?`,
		requestID, userID)
}
