package docsession

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/buger/jsonparser"
	"github.com/gofrs/uuid"

	"github.com/collabhost/docsession.go/pkg/editor"
	"github.com/collabhost/docsession.go/pkg/events"
	"github.com/collabhost/docsession.go/pkg/logger"
)

// DefaultAppName scopes the bus topics a session listens on when the
// embedder does not name the app itself.
const DefaultAppName = "html-documents"

// Params configures a new Session. Gateway and Bus are required; Editor
// defaults to a no-op adapter and Logger to an slog text logger on stdout.
type Params struct {
	Gateway Gateway
	Bus     *events.Bus
	Editor  editor.Adapter
	Logger  logger.Logger

	// AppName prefixes the inbound bus topics, "<app>_showApp" etc.
	AppName string

	WorkspaceID int
	ContentID   int

	// Statuses is the configured set of workflow status slugs. When set,
	// ChangeStatus rejects slugs outside it before touching the remote.
	Statuses []string
}

// Session is one active document session bound to a single content identity.
// It owns the mode state machine, the current content snapshot, the pending
// edit and comment buffers and the assembled timeline, and it is the only
// writer of that state. Editor and bus callbacks push signals through it,
// they never mutate state directly.
//
// All methods are safe for concurrent use.
type Session struct {
	gateway  Gateway
	bus      *events.Bus
	editor   editor.Adapter
	logger   logger.Logger
	appName  string
	statuses []string

	lock           sync.Mutex
	mode           Mode
	content        Content
	timeline       Timeline
	pendingComment string
	pendingContent string
	visible        bool
	commentEditor  bool
	closed         bool
	generation     string

	subs []*events.Subscription
	done chan struct{}
}

// New creates a session bound to the given workspace/content identity and
// subscribes it to the host lifecycle topics. The caller should follow up
// with LoadContent to populate it, and must Close it on teardown.
func New(p Params) (*Session, error) {
	if p.Gateway == nil {
		return nil, ErrNoGateway
	}
	if p.Bus == nil {
		return nil, ErrNoBus
	}

	log := p.Logger
	if log == nil {
		log = logger.New(slog.NewTextHandler(os.Stdout, nil))
	}
	adapter := p.Editor
	if adapter == nil {
		adapter = editor.Nop{}
	}
	appName := p.AppName
	if appName == "" {
		appName = DefaultAppName
	}

	s := &Session{
		gateway:  p.Gateway,
		bus:      p.Bus,
		editor:   adapter,
		logger:   log,
		appName:  appName,
		statuses: p.Statuses,
		mode:     ModeView,
		visible:  true,
		content: Content{
			ContentID:   p.ContentID,
			WorkspaceID: p.WorkspaceID,
		},
		timeline: Timeline{},
		done:     make(chan struct{}),
	}

	show := p.Bus.Subscribe(events.Topic(appName, events.TopicShowApp))
	hide := p.Bus.Subscribe(events.Topic(appName, events.TopicHideApp))
	reload := p.Bus.Subscribe(events.Topic(appName, events.TopicReloadContent))
	s.subs = []*events.Subscription{show, hide, reload}

	go s.dispatch(show, hide, reload)

	return s, nil
}

// LoadContent fetches the content snapshot, comment list and revision list
// concurrently, waits for all three and applies them atomically. The content
// snapshot is replaced on its own success regardless of the other two; the
// timeline is rebuilt only when both the comment and revision fetches
// succeed, and reset to empty otherwise. Fetch failures degrade the view and
// are logged, they are not fatal.
//
// A load that was superseded by a newer one (or by Close) discards its
// results instead of overwriting fresher state.
func (s *Session) LoadContent(ctx context.Context) error {
	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		return ErrSessionClosed
	}
	gen := uuid.Must(uuid.NewV4()).String()
	s.generation = gen
	workspaceID, contentID := s.content.WorkspaceID, s.content.ContentID
	s.lock.Unlock()

	var (
		wg sync.WaitGroup

		contentRes   Result[Content]
		commentsRes  Result[[]Comment]
		revisionsRes Result[[]Revision]

		contentErr, commentsErr, revisionsErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		contentRes, contentErr = s.gateway.GetContent(ctx, workspaceID, contentID)
	}()
	go func() {
		defer wg.Done()
		commentsRes, commentsErr = s.gateway.GetComments(ctx, workspaceID, contentID)
	}()
	go func() {
		defer wg.Done()
		revisionsRes, revisionsErr = s.gateway.GetRevisions(ctx, workspaceID, contentID)
	}()
	wg.Wait()

	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed || s.generation != gen {
		s.logger.Debug("discarding superseded load", "content_id", contentID)
		return nil
	}

	switch {
	case contentErr != nil:
		s.logger.Error("error loading content", "content_id", contentID, "error", contentErr)
	case !contentRes.OK():
		s.logger.Error("error loading content", "content_id", contentID, "status", contentRes.Status)
	default:
		s.content = contentRes.Body
	}

	switch {
	case commentsErr != nil:
		s.logger.Error("error loading timeline", "content_id", contentID, "error", commentsErr)
		s.timeline = Timeline{}
	case revisionsErr != nil:
		s.logger.Error("error loading timeline", "content_id", contentID, "error", revisionsErr)
		s.timeline = Timeline{}
	case !commentsRes.OK() || !revisionsRes.OK():
		s.logger.Error("error loading timeline", "content_id", contentID,
			"comments_status", commentsRes.Status, "revisions_status", revisionsRes.Status)
		s.timeline = Timeline{}
	default:
		timeline, diag := BuildTimelineDiagnostics(revisionsRes.Body, commentsRes.Body)
		if diag.DanglingRefs > 0 {
			s.logger.Warn("timeline references unknown comments",
				"content_id", contentID, "dangling_refs", diag.DanglingRefs)
		}
		s.timeline = timeline
	}

	return nil
}

// EnterEdit transitions from view to edit mode and mounts the body editor
// bound to the current raw content. Only valid from view mode.
func (s *Session) EnterEdit() error {
	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		return ErrSessionClosed
	}
	if s.mode != ModeView {
		s.lock.Unlock()
		return ErrInvalidTransition
	}
	s.mode = ModeEdit
	s.pendingContent = s.content.RawContent
	s.lock.Unlock()

	if err := s.editor.Mount(editor.BodyTarget, s.onBodyChange); err != nil {
		s.lock.Lock()
		s.mode = ModeView
		s.pendingContent = ""
		s.lock.Unlock()
		return err
	}

	return nil
}

// CancelEdit discards the pending edit buffer and returns to view mode.
// The editor surface is torn down before the transition completes. Only
// valid from edit mode; repeated calls leave the session in view mode with
// an empty buffer.
func (s *Session) CancelEdit() error {
	s.lock.Lock()
	if s.mode != ModeEdit {
		s.lock.Unlock()
		return ErrInvalidTransition
	}
	s.lock.Unlock()

	if err := s.editor.Unmount(editor.BodyTarget); err != nil {
		s.logger.Warn("error unmounting editor", "error", err)
	}

	s.lock.Lock()
	s.mode = ModeView
	s.pendingContent = ""
	s.lock.Unlock()

	return nil
}

// SaveEdit writes the pending edit buffer as a new version. On success the
// editor is unmounted, the session returns to view mode and reloads from the
// authoritative remote state. On failure the session stays in edit mode with
// the buffer intact.
func (s *Session) SaveEdit(ctx context.Context) error {
	s.lock.Lock()
	if s.mode != ModeEdit {
		s.lock.Unlock()
		return ErrInvalidTransition
	}
	workspaceID, contentID := s.content.WorkspaceID, s.content.ContentID
	label, rawContent := s.content.Label, s.pendingContent
	s.lock.Unlock()

	res, err := s.gateway.PutContent(ctx, workspaceID, contentID, label, rawContent)
	if err != nil {
		s.logger.Warn("error saving document", "content_id", contentID, "error", err)
		return err
	}
	if res.Status != http.StatusOK {
		s.logger.Warn("error saving document", "content_id", contentID, "status", res.Status)
		return fmt.Errorf("%w: status %d", ErrRejected, res.Status)
	}

	if err := s.editor.Unmount(editor.BodyTarget); err != nil {
		s.logger.Warn("error unmounting editor", "error", err)
	}

	s.lock.Lock()
	s.mode = ModeView
	s.pendingContent = ""
	s.lock.Unlock()

	return s.LoadContent(ctx)
}

// SaveTitle writes a new title, keeping the current body. Callable from any
// mode; the mode is unchanged. On success the session reloads.
func (s *Session) SaveTitle(ctx context.Context, newTitle string) error {
	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		return ErrSessionClosed
	}
	workspaceID, contentID := s.content.WorkspaceID, s.content.ContentID
	rawContent := s.content.RawContent
	s.lock.Unlock()

	res, err := s.gateway.PutContent(ctx, workspaceID, contentID, newTitle, rawContent)
	if err != nil {
		s.logger.Warn("error saving title", "content_id", contentID, "error", err)
		return err
	}
	if res.Status != http.StatusOK {
		s.logger.Warn("error saving title", "content_id", contentID, "status", res.Status)
		return fmt.Errorf("%w: status %d", ErrRejected, res.Status)
	}

	return s.LoadContent(ctx)
}

// ChangeStatus writes a new workflow status. Not allowed while inspecting a
// revision. The remote answers 204 on success; anything else is logged and
// leaves state untouched.
func (s *Session) ChangeStatus(ctx context.Context, status string) error {
	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		return ErrSessionClosed
	}
	if s.mode == ModeRevision {
		s.lock.Unlock()
		return ErrInvalidTransition
	}
	workspaceID, contentID := s.content.WorkspaceID, s.content.ContentID
	s.lock.Unlock()

	if len(s.statuses) > 0 && !s.knownStatus(status) {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}

	res, err := s.gateway.PutStatus(ctx, workspaceID, contentID, status)
	if err != nil {
		s.logger.Warn("error saving status", "content_id", contentID, "error", err)
		return err
	}
	if res.Status != http.StatusNoContent {
		s.logger.Warn("error saving status", "content_id", contentID, "status", res.Status)
		return fmt.Errorf("%w: status %d", ErrRejected, res.Status)
	}

	return s.LoadContent(ctx)
}

func (s *Session) knownStatus(status string) bool {
	for _, known := range s.statuses {
		if known == status {
			return true
		}
	}
	return false
}

// ViewRevision overlays the chosen revision's fields onto the displayed
// content and enters revision mode. The overlay is display-only, the remote
// resource is untouched. Rejected while an edit is in progress.
func (s *Session) ViewRevision(rev Revision) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.mode == ModeEdit {
		return ErrInvalidTransition
	}

	s.content.Label = rev.Label
	s.content.RawContent = rev.RawContent
	s.content.Number = rev.Number
	s.content.Status = rev.Status
	s.mode = ModeRevision

	return nil
}

// ReturnToLatest leaves revision mode and reloads the latest persisted
// state. Only valid from revision mode.
func (s *Session) ReturnToLatest(ctx context.Context) error {
	s.lock.Lock()
	if s.mode != ModeRevision {
		s.lock.Unlock()
		return ErrInvalidTransition
	}
	s.mode = ModeView
	s.lock.Unlock()

	return s.LoadContent(ctx)
}

// SubmitComment posts text as a new comment. Not allowed while inspecting a
// revision. On success the pending comment buffer is cleared and the session
// reloads; on failure the buffer is left intact.
func (s *Session) SubmitComment(ctx context.Context, text string) error {
	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		return ErrSessionClosed
	}
	if s.mode == ModeRevision {
		s.lock.Unlock()
		return ErrInvalidTransition
	}
	workspaceID, contentID := s.content.WorkspaceID, s.content.ContentID
	s.lock.Unlock()

	res, err := s.gateway.PostComment(ctx, workspaceID, contentID, text)
	if err != nil {
		s.logger.Warn("error saving comment", "content_id", contentID, "error", err)
		return err
	}
	if res.Status != http.StatusOK {
		s.logger.Warn("error saving comment", "content_id", contentID, "status", res.Status)
		return fmt.Errorf("%w: status %d", ErrRejected, res.Status)
	}

	s.lock.Lock()
	s.pendingComment = ""
	s.lock.Unlock()

	return s.LoadContent(ctx)
}

// SetPendingComment replaces the pending comment buffer. The comment editor
// surface streams its change events here.
func (s *Session) SetPendingComment(text string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.pendingComment = text
}

// ToggleCommentEditor flips the rich-text flag of the comment surface,
// mounting or unmounting it accordingly. Independent of the session mode.
func (s *Session) ToggleCommentEditor() error {
	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		return ErrSessionClosed
	}
	active := s.commentEditor
	s.lock.Unlock()

	if active {
		if err := s.editor.Unmount(editor.CommentTarget); err != nil {
			return err
		}
		s.lock.Lock()
		s.commentEditor = false
		s.lock.Unlock()
		return nil
	}

	if err := s.editor.Mount(editor.CommentTarget, s.SetPendingComment); err != nil {
		return err
	}
	s.lock.Lock()
	s.commentEditor = true
	s.lock.Unlock()
	return nil
}

// Close dismisses the session: editor surfaces are unmounted, the bus
// subscriptions are released and appClosed is emitted for the host to tear
// down the container. Idempotent.
func (s *Session) Close() error {
	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		return nil
	}
	s.closed = true
	s.visible = false
	mode := s.mode
	commentEditor := s.commentEditor
	s.lock.Unlock()

	if mode == ModeEdit {
		if err := s.editor.Unmount(editor.BodyTarget); err != nil {
			s.logger.Warn("error unmounting editor", "error", err)
		}
	}
	if commentEditor {
		if err := s.editor.Unmount(editor.CommentTarget); err != nil {
			s.logger.Warn("error unmounting editor", "error", err)
		}
	}

	close(s.done)
	for _, sub := range s.subs {
		sub.Close()
	}

	s.bus.Publish(events.TopicAppClosed, nil)

	return nil
}

// --------------------------------------------------
// Accessors
// --------------------------------------------------

func (s *Session) Mode() Mode {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.mode
}

func (s *Session) Content() Content {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.content
}

func (s *Session) Timeline() Timeline {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.timeline
}

func (s *Session) PendingComment() string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.pendingComment
}

// PendingContent returns the edit buffer. It is only meaningful in edit
// mode; outside of it the buffer is empty.
func (s *Session) PendingContent() string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.pendingContent
}

func (s *Session) Visible() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.visible
}

func (s *Session) CommentEditorActive() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.commentEditor
}

// --------------------------------------------------
// Inbound signals
// --------------------------------------------------

func (s *Session) onBodyChange(text string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.mode == ModeEdit {
		s.pendingContent = text
	}
}

func (s *Session) dispatch(show, hide, reload *events.Subscription) {
	for {
		select {
		case <-s.done:
			return
		case _, ok := <-show.C():
			if !ok {
				return
			}
			s.setVisible(true)
		case _, ok := <-hide.C():
			if !ok {
				return
			}
			s.setVisible(false)
		case ev, ok := <-reload.C():
			if !ok {
				return
			}
			s.applyReload(ev.Data)
		}
	}
}

func (s *Session) setVisible(visible bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.visible = visible
}

// applyReload merges the partial content fields supplied by the host into
// the snapshot and forces the session visible. A changed content identity
// triggers a full reload.
func (s *Session) applyReload(data []byte) {
	s.lock.Lock()
	previousID := s.content.ContentID

	if v, err := jsonparser.GetString(data, "label"); err == nil {
		s.content.Label = v
	}
	if v, err := jsonparser.GetString(data, "raw_content"); err == nil {
		s.content.RawContent = v
	}
	if v, err := jsonparser.GetString(data, "status"); err == nil {
		s.content.Status = v
	}
	if v, err := jsonparser.GetInt(data, "number"); err == nil {
		s.content.Number = int(v)
	}
	if v, err := jsonparser.GetInt(data, "workspace_id"); err == nil {
		s.content.WorkspaceID = int(v)
	}
	if v, err := jsonparser.GetInt(data, "content_id"); err == nil {
		s.content.ContentID = int(v)
	}

	s.visible = true
	changed := s.content.ContentID != previousID
	s.lock.Unlock()

	if changed {
		if err := s.LoadContent(context.Background()); err != nil {
			s.logger.Error("error reloading content", "error", err)
		}
	}
}
