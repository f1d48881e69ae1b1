package repository

import (
	"context"
	"errors"
	"testing"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestFollowLedgerRepository_UpsertKeepsOneEntryPerPair(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	f := testutil.NewFixture(t, db)
	repo := NewFollowLedgerRepository(db)
	ctx := context.Background()

	u := f.User("u@example.com")
	c := f.Company("Acme")

	require.NoError(t, repo.Upsert(ctx, &entity.FollowLedgerEntry{UserID: u.ID, CompanyID: c.ID, State: entity.FollowStateCandidate, Distance: 3}))
	require.NoError(t, repo.Upsert(ctx, &entity.FollowLedgerEntry{UserID: u.ID, CompanyID: c.ID, State: entity.FollowStateFollowing}))

	entries, err := repo.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.FollowStateFollowing, entries[0].State)
	assert.Equal(t, uint32(0), entries[0].Distance)
}

func TestFollowLedgerRepository_FindMissing(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewFollowLedgerRepository(db)

	_, err := repo.Find(context.Background(), 1, 1)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestFollowLedgerRepository_Queries(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	f := testutil.NewFixture(t, db)
	repo := NewFollowLedgerRepository(db)
	ctx := context.Background()

	u1 := f.User("a@example.com")
	u2 := f.User("b@example.com")
	a := f.Company("A")
	b := f.Company("B")
	c := f.Company("C")

	f.Ledger(u1.ID, a.ID, entity.FollowStateFollowing, 0)
	f.Ledger(u1.ID, b.ID, entity.FollowStateUnfollowed, 0)
	f.Ledger(u1.ID, c.ID, entity.FollowStateCandidate, 2)
	f.Ledger(u2.ID, a.ID, entity.FollowStateFollowing, 0)

	followed, err := repo.ListFollowedCompanies(ctx, u1.ID)
	require.NoError(t, err)
	require.Len(t, followed, 1)
	assert.Equal(t, a.ID, followed[0].ID)

	rest, err := repo.ListNonFollowing(ctx, u1.ID)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, b.ID, rest[0].CompanyID)
	require.NotNil(t, rest[1].Company)
	assert.Equal(t, "C", rest[1].Company.Name)

	feedback, err := repo.ListFeedback(ctx)
	require.NoError(t, err)
	assert.Len(t, feedback, 3)

	followers, err := repo.ListFollowerIDs(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{u1.ID, u2.ID}, followers)
}

func TestFollowLedgerRepository_UpdateDistanceOnlyTouchesCandidates(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	f := testutil.NewFixture(t, db)
	repo := NewFollowLedgerRepository(db)
	ctx := context.Background()

	u := f.User("u@example.com")
	a := f.Company("A")
	b := f.Company("B")
	f.Ledger(u.ID, a.ID, entity.FollowStateCandidate, 4)
	f.Ledger(u.ID, b.ID, entity.FollowStateUnfollowed, 0)

	require.NoError(t, repo.UpdateDistance(ctx, u.ID, a.ID, 1))
	require.NoError(t, repo.UpdateDistance(ctx, u.ID, b.ID, 1))

	assert.Equal(t, uint32(1), f.Entry(u.ID, a.ID).Distance)
	got := f.Entry(u.ID, b.ID)
	assert.Equal(t, entity.FollowStateUnfollowed, got.State)
	assert.Equal(t, uint32(0), got.Distance)
}

func TestFollowLedgerRepository_WithTxRollsBack(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	f := testutil.NewFixture(t, db)
	repo := NewFollowLedgerRepository(db)
	ctx := context.Background()

	u := f.User("u@example.com")
	c := f.Company("Acme")

	boom := errors.New("boom")
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := repo.WithTx(tx).CreateBatch(ctx, []entity.FollowLedgerEntry{
			{UserID: u.ID, CompanyID: c.ID, State: entity.FollowStateCandidate, Distance: 1},
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	entries, err := repo.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
