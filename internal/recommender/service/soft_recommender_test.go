package service

import (
	"testing"

	"golang-stock-recommender/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func companyIDs(entries []entity.FollowLedgerEntry) []uint {
	ids := make([]uint, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.CompanyID)
	}
	return ids
}

func TestSoftRecommender_ClosestSectorFirst(t *testing.T) {
	h := newHarness(t)
	tech := h.f.Sector("Tech")
	fin := h.f.Sector("Finance")
	u := h.f.User("u@example.com", tech)
	b := h.f.Company("B", fin)
	a := h.f.Company("A", tech)

	got, err := h.soft.Recommend(h.ctx, u.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{a.ID}, companyIDs(got))

	got, err = h.soft.Recommend(h.ctx, u.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, []uint{a.ID, b.ID}, companyIDs(got))
}

func TestSoftRecommender_NeverReturnsFollowed(t *testing.T) {
	h := newHarness(t)
	u := h.f.User("u@example.com")
	cs := h.companies(4)
	h.follow(u.ID, cs[0].ID)
	h.follow(u.ID, cs[2].ID)

	got, err := h.soft.Recommend(h.ctx, u.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{cs[1].ID, cs[3].ID}, companyIDs(got))
	for _, e := range got {
		assert.False(t, e.IsFollowing())
	}
}

func TestSoftRecommender_UnfollowedRankLast(t *testing.T) {
	h := newHarness(t)
	tech := h.f.Sector("Tech")
	fin := h.f.Sector("Finance")
	u := h.f.User("u@example.com", tech)
	dropped := h.f.Company("Dropped", tech)
	far := h.f.Company("Far", fin)
	h.follow(u.ID, dropped.ID)
	h.unfollow(u.ID, dropped.ID)

	got, err := h.soft.Recommend(h.ctx, u.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{far.ID, dropped.ID}, companyIDs(got))
	assert.True(t, got[1].IsUnfollowed())
}

func TestSoftRecommender_TiesBreakOnCompanyID(t *testing.T) {
	h := newHarness(t)
	u := h.f.User("u@example.com")
	cs := h.companies(3)

	got, err := h.soft.Recommend(h.ctx, u.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint{cs[0].ID, cs[1].ID, cs[2].ID}, companyIDs(got))
}

func TestSoftRecommender_EdgeCases(t *testing.T) {
	h := newHarness(t)
	u := h.f.User("u@example.com")
	cs := h.companies(2)

	got, err := h.soft.Recommend(h.ctx, u.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, h.db.Delete(&entity.Company{}, cs[0].ID).Error)
	got, err = h.soft.Recommend(h.ctx, u.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{cs[1].ID}, companyIDs(got))

	_, err = h.soft.Recommend(h.ctx, 999, 3)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
