package render

import (
	"strings"
	"testing"
	"time"

	"github.com/tiktalkapp/tiktalk-service/internal/feed"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New()
	if err != nil {
		t.Fatalf("failed to build renderer: %v", err)
	}
	return r
}

func TestRenderComment(t *testing.T) {
	r := newTestRenderer(t)

	html, err := r.Render("comment", feed.CommentView{
		ID:      "c1",
		PostID:  "p1",
		Author:  feed.UserRef{ID: "u1", Username: "alice", ProfilePic: "/static/pic.png"},
		Content: "nice post",
		IsOwner: true,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	for _, want := range []string{
		`data-comment-id="c1"`,
		`data-post-id="p1"`,
		"alice",
		"nice post",
		"delete-comment-btn",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("fragment missing %q:\n%s", want, html)
		}
	}
}

func TestRenderCommentHidesOwnerActionsForOthers(t *testing.T) {
	r := newTestRenderer(t)

	html, err := r.Render("comment", feed.CommentView{
		ID:      "c1",
		PostID:  "p1",
		Author:  feed.UserRef{Username: "alice"},
		Content: "hi",
		IsOwner: false,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(html, "delete-comment-btn") {
		t.Error("non-owner fragment must not carry the delete button")
	}
}

func TestRenderReply(t *testing.T) {
	r := newTestRenderer(t)

	created := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	html, err := r.Render("reply", feed.ReplyView{
		ID:        "r1",
		PostID:    "p1",
		CommentID: "c1",
		Author:    feed.UserRef{Username: "bob"},
		Content:   "agreed",
		CreatedAt: created,
		Liked:     true,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	for _, want := range []string{
		`data-reply-id="r1"`,
		`data-comment-id="c1"`,
		"bob",
		"agreed",
		"2025-03-14 09:30:00",
		"like-reply-btn active",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("fragment missing %q:\n%s", want, html)
		}
	}
}

func TestRenderEscapesContent(t *testing.T) {
	r := newTestRenderer(t)

	html, err := r.Render("comment", feed.CommentView{
		Author:  feed.UserRef{Username: "alice"},
		Content: `<script>alert("x")</script>`,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Error("user content must be HTML-escaped")
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	r := newTestRenderer(t)

	if _, err := r.Render("missing", nil); err == nil {
		t.Error("expected an error for an unknown template")
	}
}
