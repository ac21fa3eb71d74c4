package storage

import (
	"context"
	"time"

	"github.com/codebuildervaibhav/Postman-clone-server/pkg/model"
)

// Store defines the interface for persisting data. A single concrete
// store is constructed in main and injected into every component that
// needs it; there is no package-level database handle.
type Store interface {
	// Users and sessions
	CreateUser(ctx context.Context, email, name, passwordHash string) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	CreateSession(ctx context.Context, userID int64, token string, expiresAt time.Time) (int64, error)
	GetLiveSession(ctx context.Context, token string) (*model.Session, error)
	DeleteSession(ctx context.Context, token string) error

	// Workspaces
	CreateWorkspace(ctx context.Context, name string, creatorID int64) (int64, error)
	GetWorkspaceByIDAndCreator(ctx context.Context, id, creatorID int64) (*model.Workspace, error)
	ListWorkspaces(ctx context.Context, creatorID int64) ([]*model.Workspace, error)
	UpdateWorkspaceName(ctx context.Context, id int64, name string) error
	DeleteWorkspace(ctx context.Context, id int64) error
	CountCollections(ctx context.Context, workspaceID int64) (int, error)
	CountEnvironments(ctx context.Context, workspaceID int64) (int, error)

	// Collections
	CreateCollection(ctx context.Context, workspaceID int64, name, description string) (int64, error)
	GetCollectionByID(ctx context.Context, id int64) (*model.Collection, error)
	ListCollections(ctx context.Context, workspaceID int64) ([]*model.Collection, error)
	UpdateCollection(ctx context.Context, id int64, name, description string) error
	DeleteCollection(ctx context.Context, id int64) error
	CountRequests(ctx context.Context, collectionID int64) (int, error)

	// Request definitions
	CreateRequest(ctx context.Context, req *model.RequestDefinition) (int64, error)
	GetRequestByID(ctx context.Context, id int64) (*model.RequestDefinition, error)
	ListRequests(ctx context.Context, collectionID int64) ([]*model.RequestDefinition, error)
	UpdateRequest(ctx context.Context, req *model.RequestDefinition) error
	DeleteRequest(ctx context.Context, id int64) error

	// Environments and variables
	CreateEnvironment(ctx context.Context, workspaceID int64, name string) (int64, error)
	ListEnvironments(ctx context.Context, workspaceID int64) ([]*model.Environment, error)
	DeleteEnvironment(ctx context.Context, id int64) error
	CreateVariable(ctx context.Context, v *model.Variable) (int64, error)
	GetVariableByID(ctx context.Context, id int64) (*model.Variable, error)
	ListVariables(ctx context.Context, ownerID int64, ownerType string) ([]*model.Variable, error)
	UpdateVariable(ctx context.Context, id int64, key, value string) error
	DeleteVariable(ctx context.Context, id int64) error

	// Responses and executions (append-only audit trail)
	InsertResponse(ctx context.Context, rec *model.ResponseRecord) (int64, error)
	GetResponseByID(ctx context.Context, id int64) (*model.ResponseRecord, error)
	DeleteResponse(ctx context.Context, id int64) error
	InsertExecution(ctx context.Context, userID, requestID, responseID int64) (int64, error)
	GetExecutionByID(ctx context.Context, id int64) (*model.ExecutionRecord, error)
	ListExecutionsJoined(ctx context.Context, requestID, userID int64, limit, offset int) ([]*model.ExecutionWithResponse, error)
	CountExecutions(ctx context.Context, requestID, userID int64) (int, error)

	// Health check
	Ping(ctx context.Context) error
	Close() error
}
