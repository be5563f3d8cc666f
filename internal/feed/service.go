package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tiktalkapp/tiktalk-service/internal/storage"
	"github.com/tiktalkapp/tiktalk-service/internal/types"
)

// Service is the interaction-state engine over the content tree. It accepts
// the resolved actor identity as a parameter on every call; session lookup
// happens upstream in the HTTP layer.
type Service struct {
	store storage.Storage
}

func NewService(store storage.Storage) *Service {
	return &Service{store: store}
}

// notFound translates the storage sentinel into the core taxonomy, leaving
// errors raised inside update callbacks (forbidden, invalid input) intact.
func notFound(err error, resource string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s: %w", resource, ErrNotFound)
	}
	return err
}

func findComment(p *types.Post, commentID string) *types.Comment {
	for i := range p.Comments {
		if p.Comments[i].ID == commentID {
			return &p.Comments[i]
		}
	}
	return nil
}

func findReply(c *types.Comment, replyID string) *types.Reply {
	for i := range c.Replies {
		if c.Replies[i].ID == replyID {
			return &c.Replies[i]
		}
	}
	return nil
}

// CreatePost requires a caption or an image, never both absent.
func (s *Service) CreatePost(ctx context.Context, actorID, caption, imageURL, postTag string) (types.Post, error) {
	if err := requireActor(actorID); err != nil {
		return types.Post{}, err
	}
	caption = strings.TrimSpace(caption)
	postTag = strings.TrimSpace(postTag)
	if caption == "" && imageURL == "" {
		return types.Post{}, fmt.Errorf("%w: post must contain a caption or an image", ErrInvalidInput)
	}

	if _, err := s.store.GetUserByID(ctx, actorID); err != nil {
		return types.Post{}, notFound(err, "user")
	}

	post := types.Post{
		ID:        uuid.NewString(),
		UserID:    actorID,
		Caption:   caption,
		ImageURL:  imageURL,
		PostTag:   postTag,
		CreatedAt: time.Now().UTC(),
		Comments:  []types.Comment{},
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return types.Post{}, err
	}
	if _, err := s.store.UpdateUser(ctx, actorID, func(u *types.User) error {
		u.Posts.Add(post.ID)
		return nil
	}); err != nil {
		return types.Post{}, notFound(err, "user")
	}

	slog.Info("post created", slog.String("post_id", post.ID), slog.String("user_id", actorID))
	return post, nil
}

// EditPost updates the caption only; the image and tag are immutable after
// creation. A successful edit marks the post edited.
func (s *Service) EditPost(ctx context.Context, actorID, postID, caption string) (types.Post, error) {
	if err := requireActor(actorID); err != nil {
		return types.Post{}, err
	}
	caption = strings.TrimSpace(caption)
	if caption == "" {
		return types.Post{}, fmt.Errorf("%w: caption cannot be empty", ErrInvalidInput)
	}

	post, err := s.store.UpdatePost(ctx, postID, func(p *types.Post) error {
		if err := authorize(actorID, p.UserID); err != nil {
			return err
		}
		p.Caption = caption
		p.Edited = true
		return nil
	})
	if err != nil {
		return types.Post{}, notFound(err, "post")
	}
	return post, nil
}

// DeletePost cascades: comments and replies go with the post, and the post
// id is detached from every user's likes/dislikes/saved/hidden sets.
func (s *Service) DeletePost(ctx context.Context, actorID, postID string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return notFound(err, "post")
	}
	if err := authorize(actorID, post.UserID); err != nil {
		return err
	}
	if err := s.store.DeletePost(ctx, postID); err != nil {
		return notFound(err, "post")
	}
	slog.Info("post deleted", slog.String("post_id", postID), slog.String("user_id", actorID))
	return nil
}

func (s *Service) AddComment(ctx context.Context, actorID, postID, content string) (CommentView, error) {
	if err := requireActor(actorID); err != nil {
		return CommentView{}, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return CommentView{}, fmt.Errorf("%w: comment content cannot be empty", ErrInvalidInput)
	}

	author, err := s.store.GetUserByID(ctx, actorID)
	if err != nil {
		return CommentView{}, notFound(err, "user")
	}

	comment := types.Comment{
		ID:       uuid.NewString(),
		UserID:   actorID,
		Content:  content,
		Likes:    types.IDSet{},
		Dislikes: types.IDSet{},
		Replies:  []types.Reply{},
	}
	if _, err := s.store.UpdatePost(ctx, postID, func(p *types.Post) error {
		p.Comments = append(p.Comments, comment)
		return nil
	}); err != nil {
		return CommentView{}, notFound(err, "post")
	}

	view := annotateComment(postID, comment, map[string]types.User{actorID: author}, &author)
	return view, nil
}

func (s *Service) EditComment(ctx context.Context, actorID, postID, commentID, content string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return fmt.Errorf("%w: comment content cannot be empty", ErrInvalidInput)
	}

	_, err := s.store.UpdatePost(ctx, postID, func(p *types.Post) error {
		comment := findComment(p, commentID)
		if comment == nil {
			return fmt.Errorf("comment: %w", ErrNotFound)
		}
		if err := authorize(actorID, comment.UserID); err != nil {
			return err
		}
		comment.Content = content
		return nil
	})
	return notFound(err, "post")
}

// DeleteComment removes the comment and its replies as a unit.
func (s *Service) DeleteComment(ctx context.Context, actorID, postID, commentID string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	_, err := s.store.UpdatePost(ctx, postID, func(p *types.Post) error {
		for i := range p.Comments {
			if p.Comments[i].ID != commentID {
				continue
			}
			if err := authorize(actorID, p.Comments[i].UserID); err != nil {
				return err
			}
			p.Comments = append(p.Comments[:i], p.Comments[i+1:]...)
			return nil
		}
		return fmt.Errorf("comment: %w", ErrNotFound)
	})
	return notFound(err, "post")
}

func (s *Service) AddReply(ctx context.Context, actorID, postID, commentID, content string) (ReplyView, error) {
	if err := requireActor(actorID); err != nil {
		return ReplyView{}, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return ReplyView{}, fmt.Errorf("%w: reply content cannot be empty", ErrInvalidInput)
	}

	author, err := s.store.GetUserByID(ctx, actorID)
	if err != nil {
		return ReplyView{}, notFound(err, "user")
	}

	reply := types.Reply{
		ID:        uuid.NewString(),
		UserID:    actorID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
		Likes:     types.IDSet{},
		Dislikes:  types.IDSet{},
	}
	if _, err := s.store.UpdatePost(ctx, postID, func(p *types.Post) error {
		comment := findComment(p, commentID)
		if comment == nil {
			return fmt.Errorf("comment: %w", ErrNotFound)
		}
		comment.Replies = append(comment.Replies, reply)
		return nil
	}); err != nil {
		return ReplyView{}, notFound(err, "post")
	}

	view := annotateReply(postID, commentID, reply, map[string]types.User{actorID: author}, &author)
	return view, nil
}

func (s *Service) EditReply(ctx context.Context, actorID, postID, commentID, replyID, content string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return fmt.Errorf("%w: reply content cannot be empty", ErrInvalidInput)
	}

	_, err := s.store.UpdatePost(ctx, postID, func(p *types.Post) error {
		comment := findComment(p, commentID)
		if comment == nil {
			return fmt.Errorf("comment: %w", ErrNotFound)
		}
		reply := findReply(comment, replyID)
		if reply == nil {
			return fmt.Errorf("reply: %w", ErrNotFound)
		}
		if err := authorize(actorID, reply.UserID); err != nil {
			return err
		}
		reply.Content = content
		return nil
	})
	return notFound(err, "post")
}

func (s *Service) DeleteReply(ctx context.Context, actorID, postID, commentID, replyID string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	_, err := s.store.UpdatePost(ctx, postID, func(p *types.Post) error {
		comment := findComment(p, commentID)
		if comment == nil {
			return fmt.Errorf("comment: %w", ErrNotFound)
		}
		for i := range comment.Replies {
			if comment.Replies[i].ID != replyID {
				continue
			}
			if err := authorize(actorID, comment.Replies[i].UserID); err != nil {
				return err
			}
			comment.Replies = append(comment.Replies[:i], comment.Replies[i+1:]...)
			return nil
		}
		return fmt.Errorf("reply: %w", ErrNotFound)
	})
	return notFound(err, "post")
}

// ReactToPost flips the actor's reaction on a post. Membership lives in the
// acting user's likes/dislikes sets; the post carries denormalized counters
// that move with the same write.
func (s *Service) ReactToPost(ctx context.Context, actorID, postID string, polarity types.Polarity) (ReactionResult, error) {
	if err := requireActor(actorID); err != nil {
		return ReactionResult{}, err
	}

	var result ReactionResult
	_, post, err := s.store.UpdateUserAndPost(ctx, actorID, postID, func(u *types.User, p *types.Post) error {
		active, likeDelta, dislikeDelta := flip(&u.Likes, &u.Dislikes, p.ID, polarity)
		p.LikesCount += likeDelta
		p.DislikesCount += dislikeDelta
		result.Active = active
		return nil
	})
	if err != nil {
		return ReactionResult{}, notFound(err, "post")
	}
	result.LikesCount = post.LikesCount
	result.DislikesCount = post.DislikesCount
	return result, nil
}

// ReactToComment flips the actor's reaction on a comment; membership is the
// actor's id on the comment's own sets, counts are set sizes.
func (s *Service) ReactToComment(ctx context.Context, actorID, postID, commentID string, polarity types.Polarity) (ReactionResult, error) {
	if err := requireActor(actorID); err != nil {
		return ReactionResult{}, err
	}

	var result ReactionResult
	_, err := s.store.UpdatePost(ctx, postID, func(p *types.Post) error {
		comment := findComment(p, commentID)
		if comment == nil {
			return fmt.Errorf("comment: %w", ErrNotFound)
		}
		active, _, _ := flip(&comment.Likes, &comment.Dislikes, actorID, polarity)
		result = ReactionResult{
			Active:        active,
			LikesCount:    len(comment.Likes),
			DislikesCount: len(comment.Dislikes),
		}
		return nil
	})
	if err != nil {
		return ReactionResult{}, notFound(err, "post")
	}
	return result, nil
}

func (s *Service) ReactToReply(ctx context.Context, actorID, postID, commentID, replyID string, polarity types.Polarity) (ReactionResult, error) {
	if err := requireActor(actorID); err != nil {
		return ReactionResult{}, err
	}

	var result ReactionResult
	_, err := s.store.UpdatePost(ctx, postID, func(p *types.Post) error {
		comment := findComment(p, commentID)
		if comment == nil {
			return fmt.Errorf("comment: %w", ErrNotFound)
		}
		reply := findReply(comment, replyID)
		if reply == nil {
			return fmt.Errorf("reply: %w", ErrNotFound)
		}
		active, _, _ := flip(&reply.Likes, &reply.Dislikes, actorID, polarity)
		result = ReactionResult{
			Active:        active,
			LikesCount:    len(reply.Likes),
			DislikesCount: len(reply.Dislikes),
		}
		return nil
	})
	if err != nil {
		return ReactionResult{}, notFound(err, "post")
	}
	return result, nil
}

// SavePost toggles the post's membership in the actor's saved set.
func (s *Service) SavePost(ctx context.Context, actorID, postID string) (bool, error) {
	return s.toggleShelf(ctx, actorID, postID, func(u *types.User) *types.IDSet { return &u.Saved })
}

// HidePost toggles the post's membership in the actor's hidden set.
func (s *Service) HidePost(ctx context.Context, actorID, postID string) (bool, error) {
	return s.toggleShelf(ctx, actorID, postID, func(u *types.User) *types.IDSet { return &u.Hidden })
}

func (s *Service) toggleShelf(ctx context.Context, actorID, postID string, pick func(*types.User) *types.IDSet) (bool, error) {
	if err := requireActor(actorID); err != nil {
		return false, err
	}
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		return false, notFound(err, "post")
	}

	var active bool
	_, err := s.store.UpdateUser(ctx, actorID, func(u *types.User) error {
		set := pick(u)
		if set.Has(postID) {
			set.Remove(postID)
		} else {
			set.Add(postID)
			active = true
		}
		return nil
	})
	if err != nil {
		return false, notFound(err, "user")
	}
	return active, nil
}
