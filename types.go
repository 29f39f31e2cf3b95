package docsession

import (
	"time"
)

// Mode is the session's current interaction state. The displayed content is
// authoritative in ModeView and ModeEdit; in ModeRevision a frozen past
// revision is projected onto the content fields instead.
type Mode string

const (
	ModeView     Mode = "VIEW"
	ModeEdit     Mode = "EDIT"
	ModeRevision Mode = "REVISION"
)

// Content is the editable document entity: title, rich-text body, workflow
// status and identity. It is replaced wholesale on every successful reload.
type Content struct {
	ContentID   int       `json:"content_id"`
	WorkspaceID int       `json:"workspace_id"`
	Label       string    `json:"label"`
	RawContent  string    `json:"raw_content"`
	Status      string    `json:"status"`
	Number      int       `json:"number"`
	Created     time.Time `json:"created"`
}

// Author identifies the user a comment belongs to.
type Author struct {
	UserID     int    `json:"user_id"`
	PublicName string `json:"public_name"`
}

// Comment is a timestamped remark attached to a revision. Its ContentID is
// its own identity, distinct from the parent document's.
type Comment struct {
	ContentID  int       `json:"content_id"`
	ParentID   int       `json:"parent_id"`
	Created    time.Time `json:"created"`
	RawContent string    `json:"raw_content"`
	Author     Author    `json:"author"`
}

// Revision is an immutable historical snapshot of a document at a past save
// point. Number is assigned from fetch order (index+1), never taken from the
// server, so it is stable within one fetch but not across reloads.
type Revision struct {
	ContentID  int       `json:"content_id"`
	Created    time.Time `json:"created"`
	Label      string    `json:"label"`
	RawContent string    `json:"raw_content"`
	Status     string    `json:"status"`
	Number     int       `json:"number"`
	CommentIDs []int     `json:"comment_ids"`
}

// EntryKind tags which entity a timeline entry carries.
type EntryKind string

const (
	EntryRevision EntryKind = "revision"
	EntryComment  EntryKind = "comment"
)

// TimelineEntry is a tagged union over a revision or a comment. Revision
// entries also carry the comments resolved against their CommentIDs, in
// fetch order. Entries are rendering state only, never persisted.
type TimelineEntry struct {
	Kind        EntryKind `json:"timelineType"`
	Revision    *Revision `json:"revision,omitempty"`
	Comment     *Comment  `json:"comment,omitempty"`
	CommentList []Comment `json:"commentList,omitempty"`
}

// Timeline is the merged, ordered view of revisions interleaved with their
// comments.
type Timeline []TimelineEntry

// Revisions returns the number of revision entries, which is also the latest
// version number displayed next to the editor.
func (t Timeline) Revisions() int {
	n := 0
	for _, e := range t {
		if e.Kind == EntryRevision {
			n++
		}
	}
	return n
}

// Result is the normalized outcome of a remote operation. HTTP-level failures
// are values: callers inspect Status instead of receiving an error. Only a
// transport failure (no response at all) surfaces as an error from the
// gateway call itself.
type Result[T any] struct {
	Status int
	Body   T
}

// OK reports whether the remote side answered with a success status.
func (r Result[T]) OK() bool {
	return r.Status >= 200 && r.Status < 300
}
