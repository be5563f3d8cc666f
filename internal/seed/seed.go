// Package seed fills an empty store with sample users and posts so a fresh
// local instance has something on the feed.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tiktalkapp/tiktalk-service/internal/feed"
	"github.com/tiktalkapp/tiktalk-service/internal/storage"
)

type sampleUser struct {
	username string
	password string
}

type sampleComment struct {
	username string
	content  string
}

type samplePost struct {
	username string
	caption  string
	imageURL string
	postTag  string
	comments []sampleComment
}

var sampleUsers = []sampleUser{
	{"User1", "password1"},
	{"User2", "password2"},
	{"User3", "password3"},
	{"Archer_User", "securepassword"},
}

var samplePosts = []samplePost{
	{
		username: "User1",
		caption:  "Love this new recipe!",
		postTag:  "Food",
		comments: []sampleComment{
			{"Archer_User", "Looks Yummy!"},
			{"User2", "Can I have some?"},
			{"User3", "What's the secret ingredient?"},
		},
	},
	{
		username: "User2",
		caption:  "Trying out this new coffee shop!",
		postTag:  "Coffee",
		comments: []sampleComment{
			{"Archer_User", "That looks delicious!"},
			{"User1", "I'll visit this place soon!"},
		},
	},
	{
		username: "User3",
		caption:  "Beautiful sunset at the beach!",
		postTag:  "Travel",
		comments: []sampleComment{
			{"User1", "Wow! Where is this?"},
			{"User2", "Perfect vacation spot!"},
			{"Archer_User", "Nature is amazing!"},
		},
	},
}

// Run seeds through the service so every invariant (hashed passwords, user
// post references, comment ids) holds. A store that already has User1 is
// left alone.
func Run(ctx context.Context, svc *feed.Service, store storage.Storage) error {
	if _, err := store.GetUserByUsername(ctx, sampleUsers[0].username); err == nil {
		slog.Info("seed skipped, users already exist")
		return nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	userIDs := make(map[string]string, len(sampleUsers))
	for _, su := range sampleUsers {
		user, err := svc.Register(ctx, su.username, su.password)
		if err != nil {
			return fmt.Errorf("failed to seed user %s: %w", su.username, err)
		}
		userIDs[su.username] = user.ID
	}

	for _, sp := range samplePosts {
		post, err := svc.CreatePost(ctx, userIDs[sp.username], sp.caption, sp.imageURL, sp.postTag)
		if err != nil {
			return fmt.Errorf("failed to seed post by %s: %w", sp.username, err)
		}
		for _, sc := range sp.comments {
			if _, err := svc.AddComment(ctx, userIDs[sc.username], post.ID, sc.content); err != nil {
				return fmt.Errorf("failed to seed comment by %s: %w", sc.username, err)
			}
		}
	}

	slog.Info("seed data added", slog.Int("users", len(sampleUsers)), slog.Int("posts", len(samplePosts)))
	return nil
}
