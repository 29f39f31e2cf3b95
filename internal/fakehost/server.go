// Package fakehost provides a fake collaboration host API for testing.
// It serves the document, comment and revision endpoints a session talks to,
// over plain HTTP with JSON bodies, and lets tests override statuses and
// delay responses per operation to exercise failure paths.
package fakehost

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"

	docsession "github.com/collabhost/docsession.go"
)

// Operation names used to target overrides at a single endpoint.
const (
	OpGetContent   = "get_content"
	OpGetComments  = "get_comments"
	OpGetRevisions = "get_revisions"
	OpPostComment  = "post_comment"
	OpPutContent   = "put_content"
	OpPutStatus    = "put_status"
)

// Server is an in-memory host API. State mutations follow the real host's
// shape: a content write appends a revision and bumps the snapshot, a posted
// comment lands in the latest revision's comment list.
type Server struct {
	lock      sync.Mutex
	content   docsession.Content
	comments  []docsession.Comment
	revisions []docsession.Revision
	nextID    int

	statusOverride map[string]int
	delay          map[string]time.Duration

	httpServer *httptest.Server
}

// New starts a server seeded with the given snapshot. The first revision is
// derived from the snapshot itself so the timeline is never empty.
func New(content docsession.Content) *Server {
	s := &Server{
		content:        content,
		nextID:         content.ContentID + 1,
		statusOverride: make(map[string]int),
		delay:          make(map[string]time.Duration),
	}
	s.revisions = []docsession.Revision{{
		ContentID:  content.ContentID,
		Created:    content.Created,
		Label:      content.Label,
		RawContent: content.RawContent,
		Status:     content.Status,
		CommentIDs: []int{},
	}}

	router := mux.NewRouter()
	router.HandleFunc("/workspaces/{wid}/html-documents/{cid}", s.handleGetContent).Methods(http.MethodGet)
	router.HandleFunc("/workspaces/{wid}/html-documents/{cid}", s.handlePutContent).Methods(http.MethodPut)
	router.HandleFunc("/workspaces/{wid}/html-documents/{cid}/revisions", s.handleGetRevisions).Methods(http.MethodGet)
	router.HandleFunc("/workspaces/{wid}/html-documents/{cid}/status", s.handlePutStatus).Methods(http.MethodPut)
	router.HandleFunc("/workspaces/{wid}/contents/{cid}/comments", s.handleGetComments).Methods(http.MethodGet)
	router.HandleFunc("/workspaces/{wid}/contents/{cid}/comments", s.handlePostComment).Methods(http.MethodPost)

	s.httpServer = httptest.NewServer(router)
	return s
}

// URL returns the server's base URL.
func (s *Server) URL() string {
	return s.httpServer.URL
}

func (s *Server) Close() {
	s.httpServer.Close()
}

// Fail makes op answer with the given status instead of its handler.
func (s *Server) Fail(op string, status int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.statusOverride[op] = status
}

// Restore removes a failure override.
func (s *Server) Restore(op string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.statusOverride, op)
}

// Delay holds op's response for d before answering.
func (s *Server) Delay(op string, d time.Duration) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.delay[op] = d
}

// Content returns the current snapshot.
func (s *Server) Content() docsession.Content {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.content
}

// Comments returns the stored comments.
func (s *Server) Comments() []docsession.Comment {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]docsession.Comment(nil), s.comments...)
}

// intercept applies the per-operation delay and failure override. It reports
// whether the request was already answered.
func (s *Server) intercept(w http.ResponseWriter, op string) bool {
	s.lock.Lock()
	delay := s.delay[op]
	status, failed := s.statusOverride[op]
	s.lock.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if failed {
		w.WriteHeader(status)
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleGetContent(w http.ResponseWriter, _ *http.Request) {
	if s.intercept(w, OpGetContent) {
		return
	}
	s.lock.Lock()
	content := s.content
	s.lock.Unlock()
	writeJSON(w, content)
}

func (s *Server) handleGetComments(w http.ResponseWriter, _ *http.Request) {
	if s.intercept(w, OpGetComments) {
		return
	}
	s.lock.Lock()
	comments := append([]docsession.Comment(nil), s.comments...)
	s.lock.Unlock()
	writeJSON(w, comments)
}

func (s *Server) handleGetRevisions(w http.ResponseWriter, _ *http.Request) {
	if s.intercept(w, OpGetRevisions) {
		return
	}
	s.lock.Lock()
	revisions := append([]docsession.Revision(nil), s.revisions...)
	s.lock.Unlock()
	writeJSON(w, revisions)
}

func (s *Server) handlePutContent(w http.ResponseWriter, r *http.Request) {
	if s.intercept(w, OpPutContent) {
		return
	}

	var payload struct {
		Label      string `json:"label"`
		RawContent string `json:"raw_content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.lock.Lock()
	s.content.Label = payload.Label
	s.content.RawContent = payload.RawContent
	s.content.Number++
	s.revisions = append(s.revisions, docsession.Revision{
		ContentID:  s.nextID,
		Created:    time.Now(),
		Label:      payload.Label,
		RawContent: payload.RawContent,
		Status:     s.content.Status,
		CommentIDs: []int{},
	})
	s.nextID++
	content := s.content
	s.lock.Unlock()

	writeJSON(w, content)
}

func (s *Server) handlePutStatus(w http.ResponseWriter, r *http.Request) {
	if s.intercept(w, OpPutStatus) {
		return
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.lock.Lock()
	s.content.Status = payload.Status
	s.revisions[len(s.revisions)-1].Status = payload.Status
	s.lock.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePostComment(w http.ResponseWriter, r *http.Request) {
	if s.intercept(w, OpPostComment) {
		return
	}

	var payload struct {
		RawContent string `json:"raw_content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.lock.Lock()
	comment := docsession.Comment{
		ContentID:  s.nextID,
		ParentID:   s.content.ContentID,
		Created:    time.Now(),
		RawContent: payload.RawContent,
	}
	s.nextID++
	s.comments = append(s.comments, comment)
	last := len(s.revisions) - 1
	s.revisions[last].CommentIDs = append(s.revisions[last].CommentIDs, comment.ContentID)
	s.lock.Unlock()

	writeJSON(w, comment)
}
