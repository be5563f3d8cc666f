package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/tiktalkapp/tiktalk-service/internal/config"
	"github.com/tiktalkapp/tiktalk-service/internal/storage"
	"github.com/tiktalkapp/tiktalk-service/internal/types"
)

// Postgres stores users and posts as document rows: scalar columns for the
// queryable fields, jsonb for the reaction sets and the comment tree. The
// Update* methods take row locks so concurrent reaction toggles on the same
// target serialize instead of losing updates.
type Postgres struct {
	Db *sql.DB
}

func NewPostgres(cfg *config.Config) (*Postgres, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.PGSQL.Host, cfg.PGSQL.Port, cfg.PGSQL.User, cfg.PGSQL.Password, cfg.PGSQL.DBName, cfg.PGSQL.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	pg := &Postgres{Db: db}
	if err := pg.CreateTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return pg, nil
}

func (p *Postgres) CreateTables() error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password TEXT NOT NULL,
			profile_pic TEXT NOT NULL DEFAULT '',
			user_tag TEXT NOT NULL DEFAULT '',
			posts JSONB NOT NULL DEFAULT '[]',
			likes JSONB NOT NULL DEFAULT '[]',
			dislikes JSONB NOT NULL DEFAULT '[]',
			saved JSONB NOT NULL DEFAULT '[]',
			hidden JSONB NOT NULL DEFAULT '[]'
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS posts (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			caption TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			post_tag TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			edited BOOLEAN NOT NULL DEFAULT FALSE,
			likes_count INTEGER NOT NULL DEFAULT 0,
			dislikes_count INTEGER NOT NULL DEFAULT 0,
			comments JSONB NOT NULL DEFAULT '[]'
		);
		`,
		`CREATE INDEX IF NOT EXISTS idx_posts_post_tag ON posts (post_tag);`,
		`CREATE INDEX IF NOT EXISTS idx_posts_user_id ON posts (user_id);`,
	}

	for _, q := range queries {
		if _, err := p.Db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func marshalSet(s types.IDSet) []byte {
	if s == nil {
		s = types.IDSet{}
	}
	data, _ := json.Marshal(s)
	return data
}

const userColumns = `id, username, password, profile_pic, user_tag, posts, likes, dislikes, saved, hidden`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (types.User, error) {
	var u types.User
	var posts, likes, dislikes, saved, hidden []byte
	err := row.Scan(&u.ID, &u.Username, &u.Password, &u.ProfilePic, &u.UserTag,
		&posts, &likes, &dislikes, &saved, &hidden)
	if errors.Is(err, sql.ErrNoRows) {
		return types.User{}, storage.ErrNotFound
	}
	if err != nil {
		return types.User{}, err
	}
	for _, pair := range []struct {
		raw []byte
		dst *types.IDSet
	}{
		{posts, &u.Posts}, {likes, &u.Likes}, {dislikes, &u.Dislikes}, {saved, &u.Saved}, {hidden, &u.Hidden},
	} {
		if err := json.Unmarshal(pair.raw, pair.dst); err != nil {
			return types.User{}, err
		}
	}
	return u, nil
}

const postColumns = `id, user_id, caption, image_url, post_tag, created_at, edited, likes_count, dislikes_count, comments`

func scanPost(row rowScanner) (types.Post, error) {
	var post types.Post
	var comments []byte
	err := row.Scan(&post.ID, &post.UserID, &post.Caption, &post.ImageURL, &post.PostTag,
		&post.CreatedAt, &post.Edited, &post.LikesCount, &post.DislikesCount, &comments)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Post{}, storage.ErrNotFound
	}
	if err != nil {
		return types.Post{}, err
	}
	if err := json.Unmarshal(comments, &post.Comments); err != nil {
		return types.Post{}, err
	}
	return post, nil
}

func (p *Postgres) CreateUser(ctx context.Context, user types.User) error {
	query := `
	INSERT INTO users (id, username, password, profile_pic, user_tag, posts, likes, dislikes, saved, hidden)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := p.Db.ExecContext(ctx, query, user.ID, user.Username, user.Password, user.ProfilePic, user.UserTag,
		marshalSet(user.Posts), marshalSet(user.Likes), marshalSet(user.Dislikes), marshalSet(user.Saved), marshalSet(user.Hidden))
	return err
}

func (p *Postgres) GetUserByID(ctx context.Context, id string) (types.User, error) {
	row := p.Db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (p *Postgres) GetUserByUsername(ctx context.Context, username string) (types.User, error) {
	row := p.Db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

func (p *Postgres) GetUsersByIDs(ctx context.Context, ids []string) (map[string]types.User, error) {
	out := make(map[string]types.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := p.Db.QueryContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out[user.ID] = user
	}
	return out, rows.Err()
}

func (p *Postgres) UpdateUser(ctx context.Context, id string, fn func(*types.User) error) (types.User, error) {
	var out types.User
	err := p.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
		user, err := scanUser(row)
		if err != nil {
			return err
		}
		if err := fn(&user); err != nil {
			return err
		}
		if err := writeUser(ctx, tx, user); err != nil {
			return err
		}
		out = user
		return nil
	})
	return out, err
}

func writeUser(ctx context.Context, tx *sql.Tx, user types.User) error {
	query := `
	UPDATE users SET username = $2, password = $3, profile_pic = $4, user_tag = $5,
		posts = $6, likes = $7, dislikes = $8, saved = $9, hidden = $10
	WHERE id = $1
	`
	_, err := tx.ExecContext(ctx, query, user.ID, user.Username, user.Password, user.ProfilePic, user.UserTag,
		marshalSet(user.Posts), marshalSet(user.Likes), marshalSet(user.Dislikes), marshalSet(user.Saved), marshalSet(user.Hidden))
	return err
}

func (p *Postgres) CreatePost(ctx context.Context, post types.Post) error {
	comments, err := json.Marshal(post.Comments)
	if err != nil {
		return err
	}
	query := `
	INSERT INTO posts (id, user_id, caption, image_url, post_tag, created_at, edited, likes_count, dislikes_count, comments)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = p.Db.ExecContext(ctx, query, post.ID, post.UserID, post.Caption, post.ImageURL, post.PostTag,
		post.CreatedAt, post.Edited, post.LikesCount, post.DislikesCount, comments)
	return err
}

func (p *Postgres) GetPost(ctx context.Context, id string) (types.Post, error) {
	row := p.Db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	return scanPost(row)
}

func (p *Postgres) listPosts(ctx context.Context, where string, args ...any) ([]types.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts ` + where + ` ORDER BY created_at DESC`
	rows, err := p.Db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	posts := []types.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (p *Postgres) ListPosts(ctx context.Context) ([]types.Post, error) {
	return p.listPosts(ctx, ``)
}

func (p *Postgres) ListPostsByUser(ctx context.Context, userID string) ([]types.Post, error) {
	return p.listPosts(ctx, `WHERE user_id = $1`, userID)
}

func (p *Postgres) ListPostsByIDs(ctx context.Context, ids []string) ([]types.Post, error) {
	if len(ids) == 0 {
		return []types.Post{}, nil
	}
	return p.listPosts(ctx, `WHERE id = ANY($1)`, pq.Array(ids))
}

// escapeLike neutralizes LIKE metacharacters so the user query always
// matches as a literal substring.
var escapeLike = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace

func (p *Postgres) SearchPosts(ctx context.Context, query string) ([]types.Post, error) {
	return p.listPosts(ctx, `WHERE caption ILIKE '%' || $1 || '%' ESCAPE '\'`, escapeLike(query))
}

func (p *Postgres) ListPostsByTag(ctx context.Context, tag string) ([]types.Post, error) {
	return p.listPosts(ctx, `WHERE post_tag = $1`, tag)
}

func (p *Postgres) UpdatePost(ctx context.Context, id string, fn func(*types.Post) error) (types.Post, error) {
	var out types.Post
	err := p.withTx(ctx, func(tx *sql.Tx) error {
		post, err := lockPost(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(&post); err != nil {
			return err
		}
		if err := writePost(ctx, tx, post); err != nil {
			return err
		}
		out = post
		return nil
	})
	return out, err
}

// UpdateUserAndPost locks the post row before the user row; DeletePost
// follows the same order, keeping multi-row writes deadlock-free.
func (p *Postgres) UpdateUserAndPost(ctx context.Context, userID, postID string, fn func(*types.User, *types.Post) error) (types.User, types.Post, error) {
	var outUser types.User
	var outPost types.Post
	err := p.withTx(ctx, func(tx *sql.Tx) error {
		post, err := lockPost(ctx, tx, postID)
		if err != nil {
			return err
		}
		row := tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, userID)
		user, err := scanUser(row)
		if err != nil {
			return err
		}
		if err := fn(&user, &post); err != nil {
			return err
		}
		if err := writeUser(ctx, tx, user); err != nil {
			return err
		}
		if err := writePost(ctx, tx, post); err != nil {
			return err
		}
		outUser, outPost = user, post
		return nil
	})
	return outUser, outPost, err
}

func lockPost(ctx context.Context, tx *sql.Tx, id string) (types.Post, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1 FOR UPDATE`, id)
	return scanPost(row)
}

func writePost(ctx context.Context, tx *sql.Tx, post types.Post) error {
	comments, err := json.Marshal(post.Comments)
	if err != nil {
		return err
	}
	query := `
	UPDATE posts SET caption = $2, image_url = $3, post_tag = $4, edited = $5,
		likes_count = $6, dislikes_count = $7, comments = $8
	WHERE id = $1
	`
	_, err = tx.ExecContext(ctx, query, post.ID, post.Caption, post.ImageURL, post.PostTag, post.Edited,
		post.LikesCount, post.DislikesCount, comments)
	return err
}

// DeletePost removes the post row and strips its id from every user's
// reference sets in the same transaction (jsonb '-' removes a string
// element from an array).
func (p *Postgres) DeletePost(ctx context.Context, id string) error {
	return p.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := lockPost(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id); err != nil {
			return err
		}
		cleanup := `
		UPDATE users SET posts = posts - $1, likes = likes - $1, dislikes = dislikes - $1,
			saved = saved - $1, hidden = hidden - $1
		WHERE posts ? $1 OR likes ? $1 OR dislikes ? $1 OR saved ? $1 OR hidden ? $1
		`
		_, err := tx.ExecContext(ctx, cleanup, id)
		return err
	})
}

func (p *Postgres) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := p.Db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
