package posts_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tiktalkapp/tiktalk-service/internal/feed"
	"github.com/tiktalkapp/tiktalk-service/internal/http/handlers/posts"
	"github.com/tiktalkapp/tiktalk-service/internal/http/middleware"
	"github.com/tiktalkapp/tiktalk-service/internal/storage/memory"
	"github.com/tiktalkapp/tiktalk-service/internal/types"
)

const testCookie = "tiktalk_session"

// fakeSessions is an in-memory session.Store for handler tests.
type fakeSessions struct {
	tokens map[string]string
}

func (f *fakeSessions) Resolve(_ context.Context, token string) (string, bool, error) {
	userID, ok := f.tokens[token]
	return userID, ok, nil
}

func (f *fakeSessions) Create(_ context.Context, userID string) (string, error) {
	token := fmt.Sprintf("token-%s", userID)
	f.tokens[token] = userID
	return token, nil
}

func (f *fakeSessions) Destroy(_ context.Context, token string) error {
	delete(f.tokens, token)
	return nil
}

type harness struct {
	svc      *feed.Service
	sessions *fakeSessions
	router   *http.ServeMux
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	svc := feed.NewService(memory.NewMemory())
	sessions := &fakeSessions{tokens: map[string]string{}}

	requireAuth := middleware.Auth(sessions, testCookie)
	optionalAuth := middleware.OptionalAuth(sessions, testCookie)

	router := http.NewServeMux()
	router.Handle("GET /feed", optionalAuth(posts.Feed(svc)))
	router.Handle("GET /search", optionalAuth(posts.Search(svc)))
	router.Handle("GET /posts/{id}", optionalAuth(posts.Get(svc)))
	router.Handle("PATCH /posts/{id}", requireAuth(posts.Edit(svc)))
	router.Handle("DELETE /posts/{id}", requireAuth(posts.Delete(svc)))
	router.Handle("POST /posts/{id}/like", requireAuth(posts.React(svc, types.PolarityLike)))
	router.Handle("POST /posts/{id}/dislike", requireAuth(posts.React(svc, types.PolarityDislike)))
	router.Handle("POST /posts/{id}/save", requireAuth(posts.Save(svc)))

	return &harness{svc: svc, sessions: sessions, router: router}
}

func (h *harness) login(t *testing.T, username string) (types.User, *http.Cookie) {
	t.Helper()
	user, err := h.svc.Register(context.Background(), username, "password123")
	require.NoError(t, err)
	token, err := h.sessions.Create(context.Background(), user.ID)
	require.NoError(t, err)
	return user, &http.Cookie{Name: testCookie, Value: token}
}

func (h *harness) do(t *testing.T, method, target string, body string, cookie *http.Cookie) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload), "body: %s", rec.Body.String())
	return rec, payload
}

func TestFeedAnonymous(t *testing.T) {
	h := newHarness(t)
	alice, _ := h.login(t, "alice")
	_, err := h.svc.CreatePost(context.Background(), alice.ID, "hello world", "", "General")
	require.NoError(t, err)

	rec, payload := h.do(t, http.MethodGet, "/feed", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, payload["success"])
	data := payload["data"].([]any)
	require.Len(t, data, 1)
	post := data[0].(map[string]any)
	assert.Equal(t, "hello world", post["caption"])
	assert.Equal(t, false, post["is_owner"], "anonymous viewer owns nothing")
}

func TestGetPostNotFound(t *testing.T) {
	h := newHarness(t)

	rec, payload := h.do(t, http.MethodGet, "/posts/no-such-id", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, payload["success"])
}

func TestReactRequiresSession(t *testing.T) {
	h := newHarness(t)
	alice, _ := h.login(t, "alice")
	post, err := h.svc.CreatePost(context.Background(), alice.ID, "hello", "", "General")
	require.NoError(t, err)

	rec, payload := h.do(t, http.MethodPost, "/posts/"+post.ID+"/like", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, payload["success"])
	assert.Equal(t, "you must be logged in", payload["error"])
}

func TestLikeDislikeRoundTrip(t *testing.T) {
	h := newHarness(t)
	alice, _ := h.login(t, "alice")
	_, bobCookie := h.login(t, "bob")
	post, err := h.svc.CreatePost(context.Background(), alice.ID, "hello", "", "General")
	require.NoError(t, err)

	rec, payload := h.do(t, http.MethodPost, "/posts/"+post.ID+"/like", "", bobCookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, payload["liked"])
	assert.Equal(t, float64(1), payload["likesCount"])

	rec, payload = h.do(t, http.MethodPost, "/posts/"+post.ID+"/dislike", "", bobCookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, payload["disliked"])
	assert.Equal(t, float64(0), payload["likesCount"])
	assert.Equal(t, float64(1), payload["dislikesCount"])

	rec, payload = h.do(t, http.MethodPost, "/posts/"+post.ID+"/dislike", "", bobCookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, payload["disliked"])
	assert.Equal(t, float64(0), payload["dislikesCount"])
}

func TestEditPostForbiddenForNonOwner(t *testing.T) {
	h := newHarness(t)
	alice, _ := h.login(t, "alice")
	_, bobCookie := h.login(t, "bob")
	post, err := h.svc.CreatePost(context.Background(), alice.ID, "original", "", "General")
	require.NoError(t, err)

	rec, payload := h.do(t, http.MethodPatch, "/posts/"+post.ID, `{"caption":"hijacked"}`, bobCookie)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, false, payload["success"])

	view, err := h.svc.Post(context.Background(), post.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "original", view.Caption)
}

func TestEditPostByOwner(t *testing.T) {
	h := newHarness(t)
	alice, aliceCookie := h.login(t, "alice")
	post, err := h.svc.CreatePost(context.Background(), alice.ID, "original", "", "General")
	require.NoError(t, err)

	rec, payload := h.do(t, http.MethodPatch, "/posts/"+post.ID, `{"caption":"updated"}`, aliceCookie)

	assert.Equal(t, http.StatusOK, rec.Code)
	data := payload["data"].(map[string]any)
	assert.Equal(t, "updated", data["caption"])
	assert.Equal(t, true, data["edited"])
}

func TestDeletePost(t *testing.T) {
	h := newHarness(t)
	alice, aliceCookie := h.login(t, "alice")
	post, err := h.svc.CreatePost(context.Background(), alice.ID, "short-lived", "", "General")
	require.NoError(t, err)

	rec, payload := h.do(t, http.MethodDelete, "/posts/"+post.ID, "", aliceCookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, payload["success"])

	rec, _ = h.do(t, http.MethodGet, "/posts/"+post.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveToggle(t *testing.T) {
	h := newHarness(t)
	alice, _ := h.login(t, "alice")
	_, bobCookie := h.login(t, "bob")
	post, err := h.svc.CreatePost(context.Background(), alice.ID, "keeper", "", "General")
	require.NoError(t, err)

	rec, payload := h.do(t, http.MethodPost, "/posts/"+post.ID+"/save", "", bobCookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, payload["saved"])

	rec, payload = h.do(t, http.MethodPost, "/posts/"+post.ID+"/save", "", bobCookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, payload["saved"])
}

func TestSearch(t *testing.T) {
	h := newHarness(t)
	alice, _ := h.login(t, "alice")
	_, err := h.svc.CreatePost(context.Background(), alice.ID, "Fresh Coffee beans", "", "Food")
	require.NoError(t, err)
	_, err = h.svc.CreatePost(context.Background(), alice.ID, "morning run", "", "Fitness")
	require.NoError(t, err)

	rec, payload := h.do(t, http.MethodGet, "/search?q=coffee", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	data := payload["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "Fresh Coffee beans", data[0].(map[string]any)["caption"])
}
