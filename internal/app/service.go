package app

import (
	"context"
	"fmt"

	"subtext/internal/chat"
	"subtext/internal/search"
	"subtext/internal/session"
	"subtext/internal/upload"
)

// UploadStatus is the pipeline view exposed to the progress indicator.
type UploadStatus struct {
	State    upload.State `json:"state"`
	Progress int          `json:"progress"`
	Reason   string       `json:"reason,omitempty"`
}

type chatClient interface {
	Send(ctx context.Context, query string, history []chat.Message) (string, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Service composes the session controller, the upload pipeline and the
// collaborator clients behind one facade for the HTTP layer.
type Service struct {
	controller *session.Controller
	pipeline   *upload.Pipeline
	chat       chatClient
	search     *search.Service
	backends   map[string]pinger
}

func New(controller *session.Controller, pipeline *upload.Pipeline, chatClient chatClient, searchService *search.Service) *Service {
	return &Service{
		controller: controller,
		pipeline:   pipeline,
		chat:       chatClient,
		search:     searchService,
		backends:   map[string]pinger{},
	}
}

// RegisterBackend adds a named backend to the readiness probe.
func (s *Service) RegisterBackend(name string, p pinger) {
	s.backends[name] = p
}

// Bootstrap rehydrates the session from the persisted stores.
func (s *Service) Bootstrap(ctx context.Context) {
	s.controller.Startup(ctx)
}

// Analyze runs one upload attempt through the pipeline and, on
// success, makes the resulting report the active session state.
func (s *Service) Analyze(ctx context.Context, filename, mediaType string, data []byte) (session.Snapshot, error) {
	r, err := s.pipeline.Run(ctx, filename, mediaType, data)
	if err != nil {
		return session.Snapshot{}, err
	}
	return s.controller.Adopt(ctx, r, data), nil
}

// Upload returns the current pipeline state and progress.
func (s *Service) Upload() UploadStatus {
	state, progress, reason := s.pipeline.Status()
	return UploadStatus{State: state, Progress: progress, Reason: reason}
}

// Session returns the current session snapshot.
func (s *Service) Session() session.Snapshot {
	return s.controller.Snapshot()
}

// ResetSession clears the active report, the stores and the handle.
func (s *Service) ResetSession(ctx context.Context) session.Snapshot {
	s.controller.Reset(ctx)
	return s.controller.Snapshot()
}

// Navigator cursor operations. The bool is false when no report with
// findings is active.

func (s *Service) NextFinding() (session.Cursor, bool)     { return s.controller.Next() }
func (s *Service) PreviousFinding() (session.Cursor, bool) { return s.controller.Previous() }
func (s *Service) JumpToFinding(i int) (session.Cursor, bool) {
	return s.controller.JumpTo(i)
}
func (s *Service) Cursor() (session.Cursor, bool) { return s.controller.CurrentCursor() }

// Document dereferences a renderable handle id.
func (s *Service) Document(id string) ([]byte, bool) {
	return s.controller.Document(id)
}

// Chat forwards a query with its history to the chat collaborator.
func (s *Service) Chat(ctx context.Context, query string, history []chat.Message) (string, error) {
	return s.chat.Send(ctx, query, history)
}

// SearchFindings looks up findings in the active report by keyword.
func (s *Service) SearchFindings(q search.Query) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q.Text}
	}
	return s.search.Search(q)
}

// Ping checks every registered backend.
func (s *Service) Ping(ctx context.Context) error {
	for name, backend := range s.backends {
		if err := backend.Ping(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// Close releases the live renderable handle.
func (s *Service) Close() {
	s.controller.Close()
}
