package feed

import "github.com/tiktalkapp/tiktalk-service/internal/types"

// ReactionResult is what every reaction endpoint reports back: whether the
// actor ends up active in the requested polarity, plus both counters.
type ReactionResult struct {
	Active        bool `json:"active"`
	LikesCount    int  `json:"likes_count"`
	DislikesCount int  `json:"dislikes_count"`
}

// flip toggles member's presence in the requested polarity's set while
// keeping the opposite set mutually exclusive. A switch (present in the
// opposite set) moves the membership in one step; a repeat toggles off.
// The returned deltas say how each counter changed: at most one +1 and one
// -1 per call.
//
// For post-level reactions member is a post id flipped inside the acting
// user's sets; for comment/reply-level reactions member is the acting user's
// id flipped on the node's own sets. The algorithm is identical either way.
func flip(likes, dislikes *types.IDSet, member string, polarity types.Polarity) (active bool, likeDelta, dislikeDelta int) {
	same, opposite := likes, dislikes
	sameDelta, oppDelta := &likeDelta, &dislikeDelta
	if polarity == types.PolarityDislike {
		same, opposite = dislikes, likes
		sameDelta, oppDelta = &dislikeDelta, &likeDelta
	}

	if same.Has(member) {
		same.Remove(member)
		*sameDelta = -1
		return false, likeDelta, dislikeDelta
	}

	same.Add(member)
	*sameDelta = 1
	if opposite.Has(member) {
		opposite.Remove(member)
		*oppDelta = -1
	}
	return true, likeDelta, dislikeDelta
}
