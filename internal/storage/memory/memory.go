// Package memory is a mutex-guarded Storage used for tests and local mode.
// A single lock covers every operation, which trivially gives the atomic
// read-modify-write semantics the reaction toggle needs. Documents are
// deep-copied on the way in and out, so callers and update callbacks never
// alias store memory and an aborted callback leaves the document untouched.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/tiktalkapp/tiktalk-service/internal/storage"
	"github.com/tiktalkapp/tiktalk-service/internal/types"
)

type Memory struct {
	mu    sync.Mutex
	users map[string]types.User
	posts map[string]types.Post
}

func NewMemory() *Memory {
	return &Memory{
		users: make(map[string]types.User),
		posts: make(map[string]types.Post),
	}
}

func cloneSet(s types.IDSet) types.IDSet {
	out := make(types.IDSet, len(s))
	copy(out, s)
	return out
}

func cloneUser(u types.User) types.User {
	u.Posts = cloneSet(u.Posts)
	u.Likes = cloneSet(u.Likes)
	u.Dislikes = cloneSet(u.Dislikes)
	u.Saved = cloneSet(u.Saved)
	u.Hidden = cloneSet(u.Hidden)
	return u
}

func clonePost(p types.Post) types.Post {
	comments := make([]types.Comment, len(p.Comments))
	for i, c := range p.Comments {
		c.Likes = cloneSet(c.Likes)
		c.Dislikes = cloneSet(c.Dislikes)
		replies := make([]types.Reply, len(c.Replies))
		for j, r := range c.Replies {
			r.Likes = cloneSet(r.Likes)
			r.Dislikes = cloneSet(r.Dislikes)
			replies[j] = r
		}
		c.Replies = replies
		comments[i] = c
	}
	p.Comments = comments
	return p
}

func clonePosts(posts []types.Post) []types.Post {
	out := make([]types.Post, len(posts))
	for i, p := range posts {
		out[i] = clonePost(p)
	}
	return out
}

func (m *Memory) CreateUser(_ context.Context, user types.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = cloneUser(user)
	return nil
}

func (m *Memory) GetUserByID(_ context.Context, id string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return types.User{}, storage.ErrNotFound
	}
	return cloneUser(user), nil
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Username == username {
			return cloneUser(user), nil
		}
	}
	return types.User{}, storage.ErrNotFound
}

func (m *Memory) GetUsersByIDs(_ context.Context, ids []string) (map[string]types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]types.User, len(ids))
	for _, id := range ids {
		if user, ok := m.users[id]; ok {
			out[id] = cloneUser(user)
		}
	}
	return out, nil
}

func (m *Memory) UpdateUser(_ context.Context, id string, fn func(*types.User) error) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.users[id]
	if !ok {
		return types.User{}, storage.ErrNotFound
	}
	user := cloneUser(stored)
	if err := fn(&user); err != nil {
		return types.User{}, err
	}
	m.users[id] = cloneUser(user)
	return user, nil
}

func (m *Memory) CreatePost(_ context.Context, post types.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts[post.ID] = clonePost(post)
	return nil
}

func (m *Memory) GetPost(_ context.Context, id string) (types.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	post, ok := m.posts[id]
	if !ok {
		return types.Post{}, storage.ErrNotFound
	}
	return clonePost(post), nil
}

func sortNewestFirst(posts []types.Post) []types.Post {
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts
}

func (m *Memory) ListPosts(_ context.Context) ([]types.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.Post, 0, len(m.posts))
	for _, post := range m.posts {
		out = append(out, post)
	}
	return sortNewestFirst(clonePosts(out)), nil
}

func (m *Memory) ListPostsByUser(_ context.Context, userID string) ([]types.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.Post
	for _, post := range m.posts {
		if post.UserID == userID {
			out = append(out, post)
		}
	}
	return sortNewestFirst(clonePosts(out)), nil
}

func (m *Memory) ListPostsByIDs(_ context.Context, ids []string) ([]types.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.Post
	for _, id := range ids {
		if post, ok := m.posts[id]; ok {
			out = append(out, post)
		}
	}
	return sortNewestFirst(clonePosts(out)), nil
}

func (m *Memory) SearchPosts(_ context.Context, query string) ([]types.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	query = strings.ToLower(query)
	var out []types.Post
	for _, post := range m.posts {
		if strings.Contains(strings.ToLower(post.Caption), query) {
			out = append(out, post)
		}
	}
	return sortNewestFirst(clonePosts(out)), nil
}

func (m *Memory) ListPostsByTag(_ context.Context, tag string) ([]types.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.Post
	for _, post := range m.posts {
		if post.PostTag == tag {
			out = append(out, post)
		}
	}
	return sortNewestFirst(clonePosts(out)), nil
}

func (m *Memory) UpdatePost(_ context.Context, id string, fn func(*types.Post) error) (types.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.posts[id]
	if !ok {
		return types.Post{}, storage.ErrNotFound
	}
	post := clonePost(stored)
	if err := fn(&post); err != nil {
		return types.Post{}, err
	}
	m.posts[id] = clonePost(post)
	return post, nil
}

func (m *Memory) UpdateUserAndPost(_ context.Context, userID, postID string, fn func(*types.User, *types.Post) error) (types.User, types.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	storedPost, ok := m.posts[postID]
	if !ok {
		return types.User{}, types.Post{}, storage.ErrNotFound
	}
	storedUser, ok := m.users[userID]
	if !ok {
		return types.User{}, types.Post{}, storage.ErrNotFound
	}
	user := cloneUser(storedUser)
	post := clonePost(storedPost)
	if err := fn(&user, &post); err != nil {
		return types.User{}, types.Post{}, err
	}
	m.users[userID] = cloneUser(user)
	m.posts[postID] = clonePost(post)
	return user, post, nil
}

func (m *Memory) DeletePost(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.posts, id)
	for uid, user := range m.users {
		user.Posts.Remove(id)
		user.Likes.Remove(id)
		user.Dislikes.Remove(id)
		user.Saved.Remove(id)
		user.Hidden.Remove(id)
		m.users[uid] = user
	}
	return nil
}
