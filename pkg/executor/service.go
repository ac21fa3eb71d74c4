package executor

import (
	"context"
	"fmt"

	"github.com/codebuildervaibhav/Postman-clone-server/pkg/model"
	"github.com/codebuildervaibhav/Postman-clone-server/pkg/storage"

	"go.uber.org/zap"
)

// DefaultHistoryLimit is the page size used when a listing does not ask
// for one.
const DefaultHistoryLimit = 20

// Service is the execution and history core: it authorizes access to a
// request definition, dispatches it, records the outcome, and serves
// the recorded history. All collaborators are injected.
type Service struct {
	store      storage.Store
	dispatcher *Dispatcher
	log        *zap.Logger
}

// ExecutionResult is what one call to Execute produces once the
// outbound call has been dispatched and recorded.
type ExecutionResult struct {
	Execution *model.ExecutionRecord
	Response  *model.ResponseRecord
	// NetworkFailure is set when the remote call itself failed and the
	// sentinel response was recorded instead of a real one.
	NetworkFailure *NetworkError
}

// HistoryPage is one page of a request's execution history.
type HistoryPage struct {
	Executions []*model.ExecutionWithResponse
	Pagination model.Pagination
}

func NewService(store storage.Store, dispatcher *Dispatcher, log *zap.Logger) *Service {
	return &Service{store: store, dispatcher: dispatcher, log: log}
}

// Resolve looks up the request definition and enforces that userID is
// the creator of the workspace transitively owning it. The three-hop
// chain runs on every call; nothing is cached. Errors: *NotFoundError
// for a missing request or collection, ErrAccessDenied when the
// workspace lookup scoped to the creator finds nothing.
func (s *Service) Resolve(ctx context.Context, requestID, userID int64) (*model.RequestDefinition, error) {
	req, err := s.store.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("resolve request: %w", err)
	}
	if req == nil {
		return nil, NotFound("request")
	}

	coll, err := s.store.GetCollectionByID(ctx, req.CollectionID)
	if err != nil {
		return nil, fmt.Errorf("resolve collection: %w", err)
	}
	if coll == nil {
		// data-integrity violation; should not happen while the
		// cascade constraints hold, but it must not panic
		return nil, NotFound("collection")
	}

	ws, err := s.store.GetWorkspaceByIDAndCreator(ctx, coll.WorkspaceID, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace: %w", err)
	}
	if ws == nil {
		return nil, ErrAccessDenied
	}
	return req, nil
}

// Execute authorizes, dispatches and records one execution of the
// request identified by requestID on behalf of userID.
//
// Authorization failures short-circuit before any network egress. A
// network failure is captured as the sentinel response and recorded
// like a success; it is reported through ExecutionResult.NetworkFailure
// rather than the error return. Only a persistence failure after the
// dispatch produces an error (*RecordingError), which still carries
// the captured response.
//
// Once the dispatch starts it runs to completion even if the caller's
// context is cancelled, so every attempt that produced egress has an
// audit entry.
func (s *Service) Execute(ctx context.Context, requestID, userID int64) (*ExecutionResult, error) {
	req, err := s.Resolve(ctx, requestID, userID)
	if err != nil {
		return nil, err
	}

	// Detach from the caller: a dropped client connection must not
	// abort a call that is about to leave the building.
	ctx = context.WithoutCancel(ctx)

	var (
		record  *model.ResponseRecord
		netFail *NetworkError
	)
	res, err := s.dispatcher.Dispatch(ctx, req.Method, req.URL, req.HeaderMap(), req.Body)
	if err != nil {
		nerr, ok := err.(*NetworkError)
		if !ok {
			nerr = &NetworkError{Err: err}
		}
		netFail = nerr
		record = CaptureFailure(nerr)
		executionsTotal.WithLabelValues("network_failure").Inc()
		s.log.Warn("outbound dispatch failed",
			zap.Int64("request_id", requestID),
			zap.Int64("user_id", userID),
			zap.Error(nerr.Err))
	} else {
		record = Capture(res)
		executionsTotal.WithLabelValues("success").Inc()
	}

	exec, err := s.record(ctx, userID, requestID, record)
	if err != nil {
		recordingFailures.Inc()
		s.log.Error("execution recording failed",
			zap.Int64("request_id", requestID),
			zap.Int64("user_id", userID),
			zap.Error(err))
		return nil, &RecordingError{Err: err, Response: record}
	}

	return &ExecutionResult{Execution: exec, Response: record, NetworkFailure: netFail}, nil
}

// record persists the response, then the execution referencing it, then
// re-reads the execution. The response insert strictly precedes the
// execution insert; a failure between the two leaves an unreferenced
// response behind, which is harmless, while an execution can never
// reference a response that was not persisted.
func (s *Service) record(ctx context.Context, userID, requestID int64, rec *model.ResponseRecord) (*model.ExecutionRecord, error) {
	responseID, err := s.store.InsertResponse(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("persist response: %w", err)
	}

	executionID, err := s.store.InsertExecution(ctx, userID, requestID, responseID)
	if err != nil {
		return nil, fmt.Errorf("persist execution: %w", err)
	}

	exec, err := s.store.GetExecutionByID(ctx, executionID)
	if err != nil {
		return nil, fmt.Errorf("read back execution: %w", err)
	}
	if exec == nil {
		return nil, fmt.Errorf("execution %d vanished after insert", executionID)
	}
	return exec, nil
}

// ListExecutions returns one page of the acting user's execution
// history for a request, newest first. The same authorization check as
// Execute runs first. Only rows created by userID are visible, even if
// another identity could also access the request.
func (s *Service) ListExecutions(ctx context.Context, requestID, userID int64, page, limit int) (*HistoryPage, error) {
	if _, err := s.Resolve(ctx, requestID, userID); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	offset := (page - 1) * limit

	executions, err := s.store.ListExecutionsJoined(ctx, requestID, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	if executions == nil {
		executions = []*model.ExecutionWithResponse{}
	}

	total, err := s.store.CountExecutions(ctx, requestID, userID)
	if err != nil {
		return nil, fmt.Errorf("count executions: %w", err)
	}

	return &HistoryPage{
		Executions: executions,
		Pagination: model.Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: (total + limit - 1) / limit,
		},
	}, nil
}

// RecentExecutions returns up to limit of the newest history rows for a
// request, for embedding into request detail views. Authorization is
// the caller's responsibility (the request handler resolves first).
func (s *Service) RecentExecutions(ctx context.Context, requestID, userID int64, limit int) ([]*model.ExecutionWithResponse, error) {
	executions, err := s.store.ListExecutionsJoined(ctx, requestID, userID, limit, 0)
	if err != nil {
		return nil, fmt.Errorf("list recent executions: %w", err)
	}
	if executions == nil {
		executions = []*model.ExecutionWithResponse{}
	}
	return executions, nil
}
