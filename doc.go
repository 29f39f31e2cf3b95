// The [docsession] package implements a client-side document session for a
// collaboration host application.
//
// A [Session] binds one versioned document (title, rich-text body, workflow
// status) together with the merged history of its revisions and comments, and
// lets the embedder view the document, edit it, or inspect a past revision.
//
// # Session state machine
//
// A session is always in one of three modes: [ModeView], [ModeEdit] or
// [ModeRevision]. Transitions are explicit and checked: [Session.EnterEdit]
// is only valid from view mode, [Session.ReturnToLatest] only from revision
// mode, and inspecting a revision while an edit is in progress is rejected.
// Invalid transitions return [ErrInvalidTransition] and leave state untouched.
//
// # Remote reconciliation
//
// [Session.LoadContent] fetches the content snapshot, the comment list and
// the revision list concurrently through a [Gateway], waits for all three,
// and applies the results atomically. A generation token taken at call start
// discards responses that were superseded by a newer load, so a slow reload
// can never overwrite fresher state. Comments and revisions are merged into a
// [Timeline] by [BuildTimeline]; revisions keep fetch order and each
// revision's comments immediately follow it.
//
// # Host integration
//
// The session subscribes to host lifecycle topics (show, hide, reload) on a
// [github.com/collabhost/docsession.go/pkg/events.Bus] and emits an appClosed
// event when dismissed. A rich-text editing surface is driven through a
// [github.com/collabhost/docsession.go/pkg/editor.Adapter], mounted and
// unmounted only on state-transition edges.
//
// The [github.com/collabhost/docsession.go/pkg/gateway] package provides the
// HTTP implementation of [Gateway] used against the host REST API.
package docsession
