package docsession

import "context"

// Gateway wraps the six remote operations of the host API behind the
// normalized [Result] contract. A non-nil error means the transport failed
// and no response was received; every HTTP-level outcome, success or not, is
// reported through Result.Status.
//
// Implementations must not retry: each call either completes or the caller
// proceeds with stale state.
type Gateway interface {
	GetContent(ctx context.Context, workspaceID, contentID int) (Result[Content], error)
	GetComments(ctx context.Context, workspaceID, contentID int) (Result[[]Comment], error)
	GetRevisions(ctx context.Context, workspaceID, contentID int) (Result[[]Revision], error)
	PostComment(ctx context.Context, workspaceID, contentID int, text string) (Result[Comment], error)
	PutContent(ctx context.Context, workspaceID, contentID int, label, rawContent string) (Result[Content], error)
	PutStatus(ctx context.Context, workspaceID, contentID int, status string) (Result[struct{}], error)
}
