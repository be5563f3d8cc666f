package feed

import (
	"context"
	"time"

	"github.com/tiktalkapp/tiktalk-service/internal/types"
)

// UserRef is the public slice of a user embedded in rendered content.
type UserRef struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	ProfilePic string `json:"profile_pic"`
	UserTag    string `json:"user_tag"`
}

// PostView is a post materialized for one viewer: IsOwner/Liked/Disliked are
// derived per request and never stored.
type PostView struct {
	ID            string        `json:"id"`
	Author        UserRef       `json:"author"`
	Caption       string        `json:"caption"`
	ImageURL      string        `json:"image_url"`
	PostTag       string        `json:"post_tag"`
	CreatedAt     time.Time     `json:"created_at"`
	Edited        bool          `json:"edited"`
	LikesCount    int           `json:"likes_count"`
	DislikesCount int           `json:"dislikes_count"`
	IsOwner       bool          `json:"is_owner"`
	Liked         bool          `json:"liked"`
	Disliked      bool          `json:"disliked"`
	Saved         bool          `json:"saved"`
	Hidden        bool          `json:"hidden"`
	CommentsCount int           `json:"comments_count"`
	Comments      []CommentView `json:"comments"`
}

type CommentView struct {
	ID            string      `json:"id"`
	PostID        string      `json:"post_id"`
	Author        UserRef     `json:"author"`
	Content       string      `json:"content"`
	LikesCount    int         `json:"likes_count"`
	DislikesCount int         `json:"dislikes_count"`
	IsOwner       bool        `json:"is_owner"`
	Liked         bool        `json:"liked"`
	Disliked      bool        `json:"disliked"`
	Replies       []ReplyView `json:"replies"`
}

type ReplyView struct {
	ID            string    `json:"id"`
	PostID        string    `json:"post_id"`
	CommentID     string    `json:"comment_id"`
	Author        UserRef   `json:"author"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
	LikesCount    int       `json:"likes_count"`
	DislikesCount int       `json:"dislikes_count"`
	IsOwner       bool      `json:"is_owner"`
	Liked         bool      `json:"liked"`
	Disliked      bool      `json:"disliked"`
}

func userRef(authors map[string]types.User, id string) UserRef {
	u, ok := authors[id]
	if !ok {
		return UserRef{ID: id}
	}
	return UserRef{ID: u.ID, Username: u.Username, ProfilePic: u.ProfilePic, UserTag: u.UserTag}
}

// annotatePost computes the viewer-derived flags across the whole tree.
// A nil viewer (anonymous request) leaves every flag false.
func annotatePost(p types.Post, authors map[string]types.User, viewer *types.User) PostView {
	view := PostView{
		ID:            p.ID,
		Author:        userRef(authors, p.UserID),
		Caption:       p.Caption,
		ImageURL:      p.ImageURL,
		PostTag:       p.PostTag,
		CreatedAt:     p.CreatedAt,
		Edited:        p.Edited,
		LikesCount:    p.LikesCount,
		DislikesCount: p.DislikesCount,
		CommentsCount: len(p.Comments),
		Comments:      make([]CommentView, 0, len(p.Comments)),
	}
	if viewer != nil {
		view.IsOwner = p.UserID == viewer.ID
		view.Liked = viewer.Likes.Has(p.ID)
		view.Disliked = viewer.Dislikes.Has(p.ID)
		view.Saved = viewer.Saved.Has(p.ID)
		view.Hidden = viewer.Hidden.Has(p.ID)
	}
	for _, c := range p.Comments {
		view.Comments = append(view.Comments, annotateComment(p.ID, c, authors, viewer))
	}
	return view
}

func annotateComment(postID string, c types.Comment, authors map[string]types.User, viewer *types.User) CommentView {
	view := CommentView{
		ID:            c.ID,
		PostID:        postID,
		Author:        userRef(authors, c.UserID),
		Content:       c.Content,
		LikesCount:    len(c.Likes),
		DislikesCount: len(c.Dislikes),
		Replies:       make([]ReplyView, 0, len(c.Replies)),
	}
	if viewer != nil {
		view.IsOwner = c.UserID == viewer.ID
		view.Liked = c.Likes.Has(viewer.ID)
		view.Disliked = c.Dislikes.Has(viewer.ID)
	}
	for _, r := range c.Replies {
		view.Replies = append(view.Replies, annotateReply(postID, c.ID, r, authors, viewer))
	}
	return view
}

func annotateReply(postID, commentID string, r types.Reply, authors map[string]types.User, viewer *types.User) ReplyView {
	view := ReplyView{
		ID:            r.ID,
		PostID:        postID,
		CommentID:     commentID,
		Author:        userRef(authors, r.UserID),
		Content:       r.Content,
		CreatedAt:     r.CreatedAt,
		LikesCount:    len(r.Likes),
		DislikesCount: len(r.Dislikes),
	}
	if viewer != nil {
		view.IsOwner = r.UserID == viewer.ID
		view.Liked = r.Likes.Has(viewer.ID)
		view.Disliked = r.Dislikes.Has(viewer.ID)
	}
	return view
}

func authorIDs(posts []types.Post) []string {
	seen := map[string]struct{}{}
	var ids []string
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, p := range posts {
		add(p.UserID)
		for _, c := range p.Comments {
			add(c.UserID)
			for _, r := range c.Replies {
				add(r.UserID)
			}
		}
	}
	return ids
}

// viewer resolves the optional viewer document; an empty id means anonymous.
func (s *Service) viewer(ctx context.Context, viewerID string) (*types.User, error) {
	if viewerID == "" {
		return nil, nil
	}
	u, err := s.store.GetUserByID(ctx, viewerID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

func (s *Service) annotateAll(ctx context.Context, posts []types.Post, viewerID string) ([]PostView, error) {
	viewer, err := s.viewer(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	authors, err := s.store.GetUsersByIDs(ctx, authorIDs(posts))
	if err != nil {
		return nil, err
	}
	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, annotatePost(p, authors, viewer))
	}
	return views, nil
}

// Feed returns all posts newest-first, annotated for the viewer.
func (s *Service) Feed(ctx context.Context, viewerID string) ([]PostView, error) {
	posts, err := s.store.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	return s.annotateAll(ctx, posts, viewerID)
}

// Search matches the query as a case-insensitive substring of the caption.
func (s *Service) Search(ctx context.Context, query, viewerID string) ([]PostView, error) {
	posts, err := s.store.SearchPosts(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.annotateAll(ctx, posts, viewerID)
}

func (s *Service) PostsByTag(ctx context.Context, tag, viewerID string) ([]PostView, error) {
	posts, err := s.store.ListPostsByTag(ctx, tag)
	if err != nil {
		return nil, err
	}
	return s.annotateAll(ctx, posts, viewerID)
}

func (s *Service) PostsByUser(ctx context.Context, userID, viewerID string) ([]PostView, error) {
	posts, err := s.store.ListPostsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.annotateAll(ctx, posts, viewerID)
}

// Post materializes a single post for the viewer.
func (s *Service) Post(ctx context.Context, postID, viewerID string) (PostView, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return PostView{}, notFound(err, "post")
	}
	views, err := s.annotateAll(ctx, []types.Post{post}, viewerID)
	if err != nil {
		return PostView{}, err
	}
	return views[0], nil
}

// Shelf identifies one of the viewer's post-reference sets.
type Shelf string

const (
	ShelfLikes    Shelf = "likes"
	ShelfDislikes Shelf = "dislikes"
	ShelfSaved    Shelf = "saved"
	ShelfHidden   Shelf = "hidden"
)

// ShelfPosts returns the posts referenced by one of the viewer's sets,
// annotated for that same viewer. Requires an authenticated viewer.
func (s *Service) ShelfPosts(ctx context.Context, viewerID string, shelf Shelf) ([]PostView, error) {
	if err := requireActor(viewerID); err != nil {
		return nil, err
	}
	viewer, err := s.store.GetUserByID(ctx, viewerID)
	if err != nil {
		return nil, notFound(err, "user")
	}

	var ids types.IDSet
	switch shelf {
	case ShelfLikes:
		ids = viewer.Likes
	case ShelfDislikes:
		ids = viewer.Dislikes
	case ShelfSaved:
		ids = viewer.Saved
	case ShelfHidden:
		ids = viewer.Hidden
	default:
		return nil, ErrNotFound
	}

	posts, err := s.store.ListPostsByIDs(ctx, []string(ids))
	if err != nil {
		return nil, err
	}
	return s.annotateAll(ctx, posts, viewerID)
}
