package storage

import (
	"context"
	"errors"

	"github.com/tiktalkapp/tiktalk-service/internal/types"
)

// ErrNotFound is returned when a requested user or post does not exist.
var ErrNotFound = errors.New("not found")

// Storage is the persistence collaborator: document fetches, predicate
// queries and atomic read-modify-write on user and post documents. The
// Update* callbacks run inside the store's atomic scope; returning an error
// from a callback aborts the write untouched.
type Storage interface {
	CreateUser(ctx context.Context, user types.User) error
	GetUserByID(ctx context.Context, id string) (types.User, error)
	GetUserByUsername(ctx context.Context, username string) (types.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]types.User, error)
	UpdateUser(ctx context.Context, id string, fn func(*types.User) error) (types.User, error)

	CreatePost(ctx context.Context, post types.Post) error
	GetPost(ctx context.Context, id string) (types.Post, error)
	ListPosts(ctx context.Context) ([]types.Post, error)
	ListPostsByUser(ctx context.Context, userID string) ([]types.Post, error)
	ListPostsByIDs(ctx context.Context, ids []string) ([]types.Post, error)
	SearchPosts(ctx context.Context, query string) ([]types.Post, error)
	ListPostsByTag(ctx context.Context, tag string) ([]types.Post, error)
	UpdatePost(ctx context.Context, id string, fn func(*types.Post) error) (types.Post, error)
	UpdateUserAndPost(ctx context.Context, userID, postID string, fn func(*types.User, *types.Post) error) (types.User, types.Post, error)

	// DeletePost removes the post and detaches its id from every user's
	// posts/likes/dislikes/saved/hidden sets.
	DeletePost(ctx context.Context, id string) error
}
