package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"pdfchat/internal/conversation"
	"pdfchat/internal/domain"
	"pdfchat/internal/ingest"
	"pdfchat/internal/logger"
)

const logModule = "app"

// Workspaces allocates and discards session directories.
type Workspaces interface {
	Allocate() (string, error)
	Discard(path string) error
}

// SessionFactory builds a session persisting into dir.
type SessionFactory interface {
	New(dir string) (domain.RAGSession, error)
}

// Result is what a surface renders after a handler returns.
type Result struct {
	Transcript []domain.Turn
	Status     string
	Failed     bool
	Workspace  string
}

// App is the session-scoped context every surface handler works on.
// Handlers are serialized, so Close waits for an in-flight action to finish.
type App struct {
	mu sync.Mutex

	workspaces Workspaces
	factory    SessionFactory
	bridge     *ingest.Bridge
	conv       *conversation.State
	log        logger.ILogger

	session   domain.RAGSession
	workspace string
	phase     Phase
	observer  func(Phase)
}

func New(ws Workspaces, factory SessionFactory, bridge *ingest.Bridge, log logger.ILogger) *App {
	if log == nil {
		log = logger.NewNop()
	}
	if bridge == nil {
		bridge = ingest.NewBridge("")
	}
	return &App{
		workspaces: ws,
		factory:    factory,
		bridge:     bridge,
		conv:       conversation.NewState(),
		log:        log,
	}
}

// OnPhase registers fn to be called on every reset phase transition.
// fn runs while the app is locked and must not call back into it.
func (a *App) OnPhase(fn func(Phase)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observer = fn
}

// Start allocates the first workspace and session.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.ensureSession(); err != nil {
		return err
	}
	a.log.Info(logModule, "workspace ready", map[string]interface{}{"dir": a.workspace})
	return nil
}

// Upload ingests a PDF. It never adds a conversation turn.
func (a *App) Upload(ctx context.Context, filename string, blob []byte) (Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.ensureSession(); err != nil {
		return a.failure("Upload failed", err), err
	}
	report, err := a.bridge.IngestUpload(ctx, a.session, blob, filename, domain.PDFKind)
	if err != nil {
		a.log.Warn(logModule, "upload failed", map[string]interface{}{"file": filename, "error": err})
		return a.failure("Upload failed", err), err
	}
	a.log.Info(logModule, "upload ingested", map[string]interface{}{"file": report.Filename, "chunks": report.Chunks})

	status := fmt.Sprintf("Successfully uploaded %s!", report.Filename)
	if report.Summary != "" {
		status += " " + report.Summary
	}
	return a.result(status), nil
}

// Ask records the question, queries the session and records the answer.
// Blank input is ignored. On failure the question stays in the transcript
// without an answer.
func (a *App) Ask(ctx context.Context, text string) (Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	text = strings.TrimSpace(text)
	if text == "" {
		return a.result(""), nil
	}
	if err := a.ensureSession(); err != nil {
		return a.failure("Question failed", err), err
	}
	a.conv.Append(domain.RoleUser, text)
	answer, err := a.session.Query(ctx, text)
	if err != nil {
		a.log.Error(logModule, "query failed", map[string]interface{}{"error": err})
		return a.failure("Question failed", err), err
	}
	a.conv.Append(domain.RoleAssistant, answer)
	return a.result(""), nil
}

// Reset discards the knowledge base and conversation and starts over in a
// fresh workspace. The old session and directory are dropped before
// teardown begins, so a failure leaves no reference to them; the next
// action then allocates a new workspace.
func (a *App) Reset(ctx context.Context) (Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setPhase(PhaseClearing)
	old, oldDir := a.session, a.workspace
	a.session, a.workspace = nil, ""
	a.conv.Clear()

	var errs []error
	if old != nil {
		if err := old.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close session: %w", err))
		}
	}
	// the directory goes even when close failed, nothing else references it now
	if err := a.workspaces.Discard(oldDir); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return a.resetFailed(err)
	}

	a.setPhase(PhaseRebuilding)
	sess, dir, err := a.build()
	if err != nil {
		return a.resetFailed(err)
	}
	if err := sess.Reset(ctx); err != nil {
		a.teardown(sess, dir)
		return a.resetFailed(err)
	}
	a.session, a.workspace = sess, dir
	a.setPhase(PhaseIdle)

	a.log.Info(logModule, "session reset", map[string]interface{}{"old_dir": oldDir, "dir": dir})
	return a.result("Chat history and documents cleared."), nil
}

func (a *App) resetFailed(err error) (Result, error) {
	a.setPhase(PhaseFailed)
	a.log.Error(logModule, "reset failed", map[string]interface{}{"error": err})
	res := a.failure("Reset failed", err)
	a.setPhase(PhaseIdle)
	return res, err
}

// Transcript returns a copy of the conversation.
func (a *App) Transcript() []domain.Turn {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conv.All()
}

// WorkspacePath is the live workspace directory, empty when none is allocated.
func (a *App) WorkspacePath() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.workspace
}

// Phase reports the reset phase. Outside a Reset it is always PhaseIdle.
func (a *App) Phase() Phase {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.phase
}

// Close ends the session and removes its workspace.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	sess, dir := a.session, a.workspace
	a.session, a.workspace = nil, ""
	var errs []error
	if sess != nil {
		if err := sess.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.workspaces.Discard(dir); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) ensureSession() error {
	if a.session != nil {
		return nil
	}
	sess, dir, err := a.build()
	if err != nil {
		return err
	}
	a.session, a.workspace = sess, dir
	return nil
}

func (a *App) build() (domain.RAGSession, string, error) {
	dir, err := a.workspaces.Allocate()
	if err != nil {
		return nil, "", err
	}
	sess, err := a.factory.New(dir)
	if err != nil {
		if derr := a.workspaces.Discard(dir); derr != nil {
			a.log.Warn(logModule, "discard after failed build", map[string]interface{}{"dir": dir, "error": derr})
		}
		return nil, "", err
	}
	return sess, dir, nil
}

func (a *App) teardown(sess domain.RAGSession, dir string) {
	if err := sess.Close(); err != nil {
		a.log.Warn(logModule, "close session", map[string]interface{}{"dir": dir, "error": err})
	}
	if err := a.workspaces.Discard(dir); err != nil {
		a.log.Warn(logModule, "discard workspace", map[string]interface{}{"dir": dir, "error": err})
	}
}

func (a *App) setPhase(p Phase) {
	a.phase = p
	if a.observer != nil {
		a.observer(p)
	}
}

func (a *App) result(status string) Result {
	return Result{Transcript: a.conv.All(), Status: status, Workspace: a.workspace}
}

func (a *App) failure(prefix string, err error) Result {
	res := a.result(prefix + ": " + describe(err))
	res.Failed = true
	return res
}

// describe turns an error into text for the status line.
func describe(err error) string {
	switch {
	case errors.Is(err, domain.ErrBackendUnavailable):
		return "the model server is unreachable or returned an error (" + err.Error() + ")"
	case errors.Is(err, domain.ErrIngestion):
		return "the file could not be read as a PDF (" + err.Error() + ")"
	case errors.Is(err, domain.ErrFilesystem):
		return "workspace error (" + err.Error() + ")"
	default:
		return err.Error()
	}
}
