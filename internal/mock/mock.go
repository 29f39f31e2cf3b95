// Package mock provides a scriptable in-memory gateway for session tests.
package mock

import (
	"context"
	"net/http"
	"sync"

	docsession "github.com/collabhost/docsession.go"
)

// Gateway implements docsession.Gateway from canned results. Zero value
// answers every operation with 200 and empty bodies. Tests override the
// fields they care about and inspect Calls afterwards.
type Gateway struct {
	lock  sync.Mutex
	calls []string

	Content      docsession.Result[docsession.Content]
	ContentErr   error
	Comments     docsession.Result[[]docsession.Comment]
	CommentsErr  error
	Revisions    docsession.Result[[]docsession.Revision]
	RevisionsErr error

	CommentResult int
	CommentErr    error
	PutResult     int
	PutErr        error
	StatusResult  int
	StatusErr     error

	// PutContentFn, when set, observes every content write.
	PutContentFn func(label, rawContent string)
	// PostCommentFn, when set, observes every posted comment.
	PostCommentFn func(text string)

	gate chan struct{}
}

// SetGate installs a channel every Get operation blocks on before
// returning. Tests use it to hold a load in flight; pass nil to remove it.
func (g *Gateway) SetGate(gate chan struct{}) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.gate = gate
}

func (g *Gateway) record(op string) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.calls = append(g.calls, op)
}

// Calls returns the operations performed, in order.
func (g *Gateway) Calls() []string {
	g.lock.Lock()
	defer g.lock.Unlock()
	return append([]string(nil), g.calls...)
}

func (g *Gateway) wait() {
	g.lock.Lock()
	gate := g.gate
	g.lock.Unlock()

	if gate != nil {
		<-gate
	}
}

func orOK(status int) int {
	if status == 0 {
		return http.StatusOK
	}
	return status
}

func (g *Gateway) GetContent(_ context.Context, _, _ int) (docsession.Result[docsession.Content], error) {
	g.record("GetContent")
	g.wait()
	res := g.Content
	res.Status = orOK(res.Status)
	return res, g.ContentErr
}

func (g *Gateway) GetComments(_ context.Context, _, _ int) (docsession.Result[[]docsession.Comment], error) {
	g.record("GetComments")
	g.wait()
	res := g.Comments
	res.Status = orOK(res.Status)
	return res, g.CommentsErr
}

func (g *Gateway) GetRevisions(_ context.Context, _, _ int) (docsession.Result[[]docsession.Revision], error) {
	g.record("GetRevisions")
	g.wait()
	res := g.Revisions
	res.Status = orOK(res.Status)
	return res, g.RevisionsErr
}

func (g *Gateway) PostComment(_ context.Context, _, _ int, text string) (docsession.Result[docsession.Comment], error) {
	g.record("PostComment")
	if g.PostCommentFn != nil {
		g.PostCommentFn(text)
	}
	return docsession.Result[docsession.Comment]{Status: orOK(g.CommentResult)}, g.CommentErr
}

func (g *Gateway) PutContent(_ context.Context, _, _ int, label, rawContent string) (docsession.Result[docsession.Content], error) {
	g.record("PutContent")
	if g.PutContentFn != nil {
		g.PutContentFn(label, rawContent)
	}
	return docsession.Result[docsession.Content]{Status: orOK(g.PutResult)}, g.PutErr
}

func (g *Gateway) PutStatus(_ context.Context, _, _ int, _ string) (docsession.Result[struct{}], error) {
	g.record("PutStatus")
	status := g.StatusResult
	if status == 0 {
		status = http.StatusNoContent
	}
	return docsession.Result[struct{}]{Status: status}, g.StatusErr
}
