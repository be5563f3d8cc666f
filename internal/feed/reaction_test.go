package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tiktalkapp/tiktalk-service/internal/types"
)

func TestFlipToggleOn(t *testing.T) {
	likes := types.IDSet{}
	dislikes := types.IDSet{}

	active, likeDelta, dislikeDelta := flip(&likes, &dislikes, "alice", types.PolarityLike)

	assert.True(t, active)
	assert.Equal(t, 1, likeDelta)
	assert.Equal(t, 0, dislikeDelta)
	assert.True(t, likes.Has("alice"))
	assert.False(t, dislikes.Has("alice"))
}

func TestFlipDoubleToggleIsNoOp(t *testing.T) {
	likes := types.IDSet{"bob"}
	dislikes := types.IDSet{"carol"}

	_, d1, _ := flip(&likes, &dislikes, "alice", types.PolarityLike)
	active, d2, _ := flip(&likes, &dislikes, "alice", types.PolarityLike)

	assert.False(t, active)
	assert.Equal(t, 0, d1+d2)
	assert.ElementsMatch(t, types.IDSet{"bob"}, likes)
	assert.ElementsMatch(t, types.IDSet{"carol"}, dislikes)
}

func TestFlipSwitchMovesMembershipAtomically(t *testing.T) {
	likes := types.IDSet{"alice"}
	dislikes := types.IDSet{}

	active, likeDelta, dislikeDelta := flip(&likes, &dislikes, "alice", types.PolarityDislike)

	assert.True(t, active)
	assert.Equal(t, -1, likeDelta)
	assert.Equal(t, 1, dislikeDelta)
	assert.False(t, likes.Has("alice"))
	assert.True(t, dislikes.Has("alice"))
}

func TestFlipNeverInBothSets(t *testing.T) {
	likes := types.IDSet{}
	dislikes := types.IDSet{}

	sequence := []types.Polarity{
		types.PolarityLike, types.PolarityDislike, types.PolarityDislike,
		types.PolarityLike, types.PolarityLike, types.PolarityDislike,
	}
	for _, polarity := range sequence {
		flip(&likes, &dislikes, "alice", polarity)
		assert.False(t, likes.Has("alice") && dislikes.Has("alice"),
			"member must never be in both sets")
	}
}

func TestAuthorize(t *testing.T) {
	assert.NoError(t, authorize("u1", "u1"))
	assert.ErrorIs(t, authorize("u2", "u1"), ErrForbidden)
	assert.NoError(t, authorize(" u1 ", "u1"), "identity comparison is string-normalized")
}

func TestRequireActor(t *testing.T) {
	assert.NoError(t, requireActor("u1"))
	assert.ErrorIs(t, requireActor(""), ErrUnauthorized)
	assert.ErrorIs(t, requireActor("   "), ErrUnauthorized)
}
