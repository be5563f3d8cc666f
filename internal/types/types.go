package types

import "time"

type Polarity string

const (
	PolarityLike    Polarity = "like"
	PolarityDislike Polarity = "dislike"
)

// IDSet is an unordered set of ids stored as a JSON array. Add is a no-op
// for members already present, so uniqueness holds without a map.
type IDSet []string

func (s IDSet) Has(id string) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

func (s *IDSet) Add(id string) {
	if s.Has(id) {
		return
	}
	*s = append(*s, id)
}

func (s *IDSet) Remove(id string) {
	out := (*s)[:0]
	for _, v := range *s {
		if v != id {
			out = append(out, v)
		}
	}
	*s = out
}

// User holds the identity plus its reaction sets. Likes/Dislikes/Saved/Hidden
// are sets of post ids; a post id appears in at most one of Likes/Dislikes.
type User struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Password   string `json:"-"`
	ProfilePic string `json:"profile_pic"`
	UserTag    string `json:"user_tag"`
	Posts      IDSet  `json:"posts"`
	Likes      IDSet  `json:"likes"`
	Dislikes   IDSet  `json:"dislikes"`
	Saved      IDSet  `json:"saved"`
	Hidden     IDSet  `json:"hidden"`
}

// Post is the root of a content tree: it exclusively owns its comments and
// each comment exclusively owns its replies. LikesCount/DislikesCount are
// denormalized from the user-held reaction sets.
type Post struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Caption       string    `json:"caption"`
	ImageURL      string    `json:"image_url"`
	PostTag       string    `json:"post_tag"`
	CreatedAt     time.Time `json:"created_at"`
	Edited        bool      `json:"edited"`
	LikesCount    int       `json:"likes_count"`
	DislikesCount int       `json:"dislikes_count"`
	Comments      []Comment `json:"comments"`
}

// Comment reactions are raw user-id sets on the node itself, unlike post
// reactions which live in the acting user's sets. Counts for comments and
// replies are always set lengths, never stored counters.
type Comment struct {
	ID       string  `json:"id"`
	UserID   string  `json:"user_id"`
	Content  string  `json:"content"`
	Likes    IDSet   `json:"likes"`
	Dislikes IDSet   `json:"dislikes"`
	Replies  []Reply `json:"replies"`
}

type Reply struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Likes     IDSet     `json:"likes"`
	Dislikes  IDSet     `json:"dislikes"`
}
