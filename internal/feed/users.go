package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/tiktalkapp/tiktalk-service/internal/storage"
	"github.com/tiktalkapp/tiktalk-service/internal/types"
	"github.com/tiktalkapp/tiktalk-service/internal/utils/password"
)

const defaultProfilePic = "/static/profile-placeholder.png"

// Register creates a new user. Usernames are unique; the user tag is derived
// from the username and follows it on rename.
func (s *Service) Register(ctx context.Context, username, plainPassword string) (types.User, error) {
	username = strings.TrimSpace(username)

	if _, err := s.store.GetUserByUsername(ctx, username); err == nil {
		return types.User{}, fmt.Errorf("%w: username already exists", ErrConflict)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return types.User{}, err
	}

	hashed, err := password.Hash(plainPassword)
	if err != nil {
		return types.User{}, err
	}

	user := types.User{
		ID:         uuid.NewString(),
		Username:   username,
		Password:   hashed,
		ProfilePic: defaultProfilePic,
		UserTag:    "u/" + username,
		Posts:      types.IDSet{},
		Likes:      types.IDSet{},
		Dislikes:   types.IDSet{},
		Saved:      types.IDSet{},
		Hidden:     types.IDSet{},
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return types.User{}, err
	}

	slog.Info("user registered", slog.String("user_id", user.ID), slog.String("username", username))
	return user, nil
}

// Authenticate checks the credentials and returns the user. Failures are
// indistinguishable between unknown username and wrong password.
func (s *Service) Authenticate(ctx context.Context, username, plainPassword string) (types.User, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return types.User{}, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
		}
		return types.User{}, err
	}
	if !password.Check(plainPassword, user.Password) {
		return types.User{}, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	}
	return user, nil
}

func (s *Service) UserByID(ctx context.Context, id string) (types.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return types.User{}, notFound(err, "user")
	}
	return user, nil
}

// ChangeUsername renames the actor; the derived user tag moves with it.
func (s *Service) ChangeUsername(ctx context.Context, actorID, newUsername string) (types.User, error) {
	if err := requireActor(actorID); err != nil {
		return types.User{}, err
	}
	newUsername = strings.TrimSpace(newUsername)
	if newUsername == "" {
		return types.User{}, fmt.Errorf("%w: username cannot be empty", ErrInvalidInput)
	}

	if existing, err := s.store.GetUserByUsername(ctx, newUsername); err == nil && existing.ID != actorID {
		return types.User{}, fmt.Errorf("%w: username already exists", ErrConflict)
	} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return types.User{}, err
	}

	user, err := s.store.UpdateUser(ctx, actorID, func(u *types.User) error {
		u.Username = newUsername
		u.UserTag = "u/" + newUsername
		return nil
	})
	if err != nil {
		return types.User{}, notFound(err, "user")
	}
	return user, nil
}

// SetProfilePic points the actor's profile picture at an uploaded URL.
func (s *Service) SetProfilePic(ctx context.Context, actorID, url string) (types.User, error) {
	if err := requireActor(actorID); err != nil {
		return types.User{}, err
	}
	user, err := s.store.UpdateUser(ctx, actorID, func(u *types.User) error {
		u.ProfilePic = url
		return nil
	})
	if err != nil {
		return types.User{}, notFound(err, "user")
	}
	return user, nil
}
