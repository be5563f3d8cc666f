package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tiktalkapp/tiktalk-service/internal/storage"
	"github.com/tiktalkapp/tiktalk-service/internal/types"
)

func TestUserLookup(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	user := types.User{ID: "u1", Username: "alice"}
	if err := m.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := m.GetUserByID(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if got.Username != "alice" {
		t.Errorf("got username %q, want alice", got.Username)
	}

	got, err = m.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if got.ID != "u1" {
		t.Errorf("got id %q, want u1", got.ID)
	}

	if _, err := m.GetUserByID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := m.GetUserByUsername(ctx, "nobody"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateUserAppliesCallback(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.CreateUser(ctx, types.User{ID: "u1", Username: "alice"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	updated, err := m.UpdateUser(ctx, "u1", func(u *types.User) error {
		u.Likes.Add("p1")
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if !updated.Likes.Has("p1") {
		t.Error("callback mutation not returned")
	}

	stored, _ := m.GetUserByID(ctx, "u1")
	if !stored.Likes.Has("p1") {
		t.Error("callback mutation not persisted")
	}
}

func TestUpdateUserCallbackErrorDiscardsChanges(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.CreateUser(ctx, types.User{ID: "u1", Username: "alice", Likes: types.IDSet{"p1", "p2"}}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	boom := errors.New("boom")
	_, err := m.UpdateUser(ctx, "u1", func(u *types.User) error {
		u.Username = "mallory"
		u.Likes.Remove("p1")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}

	stored, _ := m.GetUserByID(ctx, "u1")
	if stored.Username != "alice" {
		t.Errorf("username = %q after aborted update, want alice", stored.Username)
	}
	if !stored.Likes.Has("p1") || !stored.Likes.Has("p2") || len(stored.Likes) != 2 {
		t.Errorf("likes = %v after aborted update, want [p1 p2]", stored.Likes)
	}
}

func TestUpdatePostCallbackErrorDiscardsChanges(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.CreatePost(ctx, types.Post{
		ID: "p1",
		Comments: []types.Comment{
			{ID: "c1", Content: "original", Likes: types.IDSet{"u2"}},
		},
	})

	boom := errors.New("boom")
	_, err := m.UpdatePost(ctx, "p1", func(p *types.Post) error {
		p.Comments[0].Content = "mutated"
		p.Comments[0].Likes.Remove("u2")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}

	stored, _ := m.GetPost(ctx, "p1")
	if stored.Comments[0].Content != "original" {
		t.Errorf("comment content = %q after aborted update, want original", stored.Comments[0].Content)
	}
	if !stored.Comments[0].Likes.Has("u2") {
		t.Error("comment likes lost membership after aborted update")
	}
}

func TestGetPostReturnsIsolatedCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.CreatePost(ctx, types.Post{
		ID: "p1",
		Comments: []types.Comment{
			{ID: "c1", Content: "original", Likes: types.IDSet{"u2"}},
		},
	})

	snapshot, err := m.GetPost(ctx, "p1")
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}

	if _, err := m.UpdatePost(ctx, "p1", func(p *types.Post) error {
		p.Comments[0].Content = "updated"
		p.Comments[0].Likes.Remove("u2")
		return nil
	}); err != nil {
		t.Fatalf("UpdatePost: %v", err)
	}

	if snapshot.Comments[0].Content != "original" {
		t.Errorf("earlier snapshot mutated to %q", snapshot.Comments[0].Content)
	}
	if !snapshot.Comments[0].Likes.Has("u2") {
		t.Error("earlier snapshot lost set membership")
	}

	// the returned copy must not be writable through either
	snapshot.Comments[0].Content = "scribbled"
	stored, _ := m.GetPost(ctx, "p1")
	if stored.Comments[0].Content != "updated" {
		t.Errorf("stored content = %q, want updated", stored.Comments[0].Content)
	}
}

func TestListPostsNewestFirst(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Now()
	for i, id := range []string{"p1", "p2", "p3"} {
		post := types.Post{ID: id, UserID: "u1", Caption: id, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := m.CreatePost(ctx, post); err != nil {
			t.Fatalf("CreatePost: %v", err)
		}
	}

	posts, err := m.ListPosts(ctx)
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("got %d posts, want 3", len(posts))
	}
	for i, want := range []string{"p3", "p2", "p1"} {
		if posts[i].ID != want {
			t.Errorf("posts[%d] = %s, want %s", i, posts[i].ID, want)
		}
	}
}

func TestSearchPostsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.CreatePost(ctx, types.Post{ID: "p1", Caption: "Fresh Coffee beans"})
	m.CreatePost(ctx, types.Post{ID: "p2", Caption: "morning run"})

	posts, err := m.SearchPosts(ctx, "COFFEE")
	if err != nil {
		t.Fatalf("SearchPosts: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != "p1" {
		t.Errorf("got %v, want [p1]", posts)
	}
}

func TestListPostsByTagAndUser(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.CreatePost(ctx, types.Post{ID: "p1", UserID: "u1", PostTag: "Food"})
	m.CreatePost(ctx, types.Post{ID: "p2", UserID: "u2", PostTag: "Travel"})

	byTag, err := m.ListPostsByTag(ctx, "Food")
	if err != nil {
		t.Fatalf("ListPostsByTag: %v", err)
	}
	if len(byTag) != 1 || byTag[0].ID != "p1" {
		t.Errorf("byTag = %v, want [p1]", byTag)
	}

	byUser, err := m.ListPostsByUser(ctx, "u2")
	if err != nil {
		t.Fatalf("ListPostsByUser: %v", err)
	}
	if len(byUser) != 1 || byUser[0].ID != "p2" {
		t.Errorf("byUser = %v, want [p2]", byUser)
	}
}

func TestListPostsByIDsSkipsMissing(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.CreatePost(ctx, types.Post{ID: "p1"})

	posts, err := m.ListPostsByIDs(ctx, []string{"p1", "gone"})
	if err != nil {
		t.Fatalf("ListPostsByIDs: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != "p1" {
		t.Errorf("got %v, want [p1]", posts)
	}
}

func TestUpdateUserAndPostAtomicPair(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.CreateUser(ctx, types.User{ID: "u1"})
	m.CreatePost(ctx, types.Post{ID: "p1", UserID: "u1"})

	_, _, err := m.UpdateUserAndPost(ctx, "u1", "p1", func(u *types.User, p *types.Post) error {
		u.Likes.Add("p1")
		p.LikesCount++
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateUserAndPost: %v", err)
	}

	user, _ := m.GetUserByID(ctx, "u1")
	post, _ := m.GetPost(ctx, "p1")
	if !user.Likes.Has("p1") || post.LikesCount != 1 {
		t.Error("pair update not persisted on both documents")
	}

	if _, _, err := m.UpdateUserAndPost(ctx, "u1", "gone", func(*types.User, *types.Post) error { return nil }); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing post, got %v", err)
	}
}

func TestDeletePostCleansUserSets(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.CreateUser(ctx, types.User{
		ID:       "u1",
		Posts:    types.IDSet{"p1"},
		Likes:    types.IDSet{"p1"},
		Dislikes: types.IDSet{"p1"},
		Saved:    types.IDSet{"p1"},
		Hidden:   types.IDSet{"p1"},
	})
	m.CreatePost(ctx, types.Post{ID: "p1", UserID: "u1"})

	if err := m.DeletePost(ctx, "p1"); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	if _, err := m.GetPost(ctx, "p1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatal("post still present after delete")
	}

	user, _ := m.GetUserByID(ctx, "u1")
	for _, set := range []types.IDSet{user.Posts, user.Likes, user.Dislikes, user.Saved, user.Hidden} {
		if set.Has("p1") {
			t.Error("deleted post id still referenced by user set")
		}
	}

	if err := m.DeletePost(ctx, "p1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}
