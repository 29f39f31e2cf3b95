package gateway_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docsession "github.com/collabhost/docsession.go"
	"github.com/collabhost/docsession.go/internal/fakehost"
	"github.com/collabhost/docsession.go/pkg/gateway"
)

func setupHost(t *testing.T) (*fakehost.Server, *gateway.HTTP) {
	t.Helper()

	host := fakehost.New(docsession.Content{
		ContentID:   42,
		WorkspaceID: 7,
		Label:       "Spec",
		RawContent:  "<p>a</p>",
		Status:      "open",
		Number:      1,
		Created:     time.Date(2020, 3, 4, 12, 0, 0, 0, time.UTC),
	})
	t.Cleanup(host.Close)

	gw, err := gateway.New(gateway.Params{BaseURL: host.URL()})
	require.NoError(t, err)

	return host, gw
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := gateway.New(gateway.Params{})
	assert.Error(t, err)
}

func TestGetContent(t *testing.T) {
	_, gw := setupHost(t)

	res, err := gw.GetContent(context.Background(), 7, 42)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	assert.True(t, res.OK())
	assert.Equal(t, 42, res.Body.ContentID)
	assert.Equal(t, "Spec", res.Body.Label)
	assert.Equal(t, "<p>a</p>", res.Body.RawContent)
}

func TestGetCommentsAndRevisions(t *testing.T) {
	_, gw := setupHost(t)

	postRes, err := gw.PostComment(context.Background(), 7, 42, "<p>nice</p>")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, postRes.Status)
	assert.Equal(t, "<p>nice</p>", postRes.Body.RawContent)

	comments, err := gw.GetComments(context.Background(), 7, 42)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, comments.Status)
	require.Len(t, comments.Body, 1)
	assert.Equal(t, "<p>nice</p>", comments.Body[0].RawContent)

	revisions, err := gw.GetRevisions(context.Background(), 7, 42)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, revisions.Status)
	require.Len(t, revisions.Body, 1)
	assert.Equal(t, comments.Body[0].ContentID, revisions.Body[0].CommentIDs[0])
}

func TestPutContentCreatesRevision(t *testing.T) {
	_, gw := setupHost(t)

	res, err := gw.PutContent(context.Background(), 7, 42, "Spec v2", "<p>b</p>")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "Spec v2", res.Body.Label)
	assert.Equal(t, 2, res.Body.Number)

	revisions, err := gw.GetRevisions(context.Background(), 7, 42)
	require.NoError(t, err)
	require.Len(t, revisions.Body, 2)
	assert.Equal(t, "<p>b</p>", revisions.Body[1].RawContent)
}

func TestPutStatusAnswersNoContent(t *testing.T) {
	host, gw := setupHost(t)

	res, err := gw.PutStatus(context.Background(), 7, 42, "closed-validated")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, res.Status)
	assert.Equal(t, "closed-validated", host.Content().Status)
}

func TestNonSuccessStatusIsAValueNotAnError(t *testing.T) {
	host, gw := setupHost(t)
	host.Fail(fakehost.OpGetContent, http.StatusInternalServerError)

	res, err := gw.GetContent(context.Background(), 7, 42)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, res.Status)
	assert.False(t, res.OK())
	assert.Zero(t, res.Body.ContentID)

	host.Restore(fakehost.OpGetContent)
	res, err = gw.GetContent(context.Background(), 7, 42)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status)
}

func TestTransportFailureIsAnError(t *testing.T) {
	host, gw := setupHost(t)
	host.Close()

	_, err := gw.GetContent(context.Background(), 7, 42)
	assert.Error(t, err)
}

func TestContextCancellation(t *testing.T) {
	host, gw := setupHost(t)
	host.Delay(fakehost.OpGetContent, 200*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := gw.GetContent(ctx, 7, 42)
	assert.Error(t, err)
}
