package service

import (
	"testing"

	"golang-stock-recommender/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymmetricDifference(t *testing.T) {
	tests := []struct {
		name string
		a, b []uint
		want int
	}{
		{name: "both empty", want: 0},
		{name: "identical", a: []uint{1, 2}, b: []uint{2, 1}, want: 0},
		{name: "disjoint", a: []uint{1}, b: []uint{2, 3}, want: 3},
		{name: "overlap", a: []uint{1, 2, 3}, b: []uint{3, 4}, want: 3},
		{name: "one side empty", a: []uint{1, 2}, want: 2},
		{name: "duplicates ignored", a: []uint{1, 1}, b: []uint{1}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SymmetricDifference(tt.a, tt.b))
			assert.Equal(t, tt.want, SymmetricDifference(tt.b, tt.a))
		})
	}
}

func TestAffinity_DistanceWithNoSectorsIsZero(t *testing.T) {
	h := newHarness(t)
	u := h.f.User("u@example.com")
	c := h.f.Company("Acme")

	d, err := h.affinity.Distance(h.ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, d)
}

func TestAffinity_DistanceBySectorOverlap(t *testing.T) {
	h := newHarness(t)
	tech := h.f.Sector("Tech")
	fin := h.f.Sector("Finance")
	u := h.f.User("u@example.com", tech)
	a := h.f.Company("A", tech)
	b := h.f.Company("B", fin)

	d, err := h.affinity.Distance(h.ctx, u.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, d)

	d, err = h.affinity.Distance(h.ctx, u.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, d)
}

func TestAffinity_SetDistances(t *testing.T) {
	h := newHarness(t)
	tech := h.f.Sector("Tech")
	fin := h.f.Sector("Finance")
	u := h.f.User("u@example.com", tech)
	fresh := h.f.Company("Fresh", tech, fin)
	stale := h.f.Company("Stale", tech)
	followed := h.f.Company("Followed", fin)
	dropped := h.f.Company("Dropped", fin)

	h.f.Ledger(u.ID, stale.ID, entity.FollowStateCandidate, 9)
	h.f.Ledger(u.ID, followed.ID, entity.FollowStateFollowing, 0)
	h.f.Ledger(u.ID, dropped.ID, entity.FollowStateUnfollowed, 0)

	require.NoError(t, h.affinity.SetDistances(h.ctx, u.ID))

	got := h.f.Entry(u.ID, fresh.ID)
	assert.Equal(t, entity.FollowStateCandidate, got.State)
	assert.Equal(t, uint32(1), got.Distance)

	assert.Equal(t, uint32(0), h.f.Entry(u.ID, stale.ID).Distance)
	assert.Equal(t, entity.FollowStateFollowing, h.f.Entry(u.ID, followed.ID).State)

	got = h.f.Entry(u.ID, dropped.ID)
	assert.Equal(t, entity.FollowStateUnfollowed, got.State)
	assert.Equal(t, uint32(0), got.Distance)

	// A second pass changes nothing.
	require.NoError(t, h.affinity.SetDistances(h.ctx, u.ID))
	entries, err := h.ledgerRepo.ListByUser(h.ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestAffinity_SetDistancesUnknownUser(t *testing.T) {
	h := newHarness(t)
	h.f.Company("Acme")

	err := h.affinity.SetDistances(h.ctx, 42)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
