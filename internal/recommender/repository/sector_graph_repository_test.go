package repository

import (
	"context"
	"testing"

	"golang-stock-recommender/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectorGraphRepository_UserSectors(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	f := testutil.NewFixture(t, db)
	repo := NewSectorGraphRepository(db)
	ctx := context.Background()

	tech := f.Sector("Tech")
	fin := f.Sector("Finance")
	u := f.User("u@example.com", tech)

	require.NoError(t, repo.AddUserSector(ctx, u.ID, fin.ID))
	require.NoError(t, repo.AddUserSector(ctx, u.ID, fin.ID))

	ids, err := repo.UserSectorIDs(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{tech.ID, fin.ID}, ids)

	require.NoError(t, repo.RemoveUserSector(ctx, u.ID, tech.ID))
	sectors, err := repo.UserSectors(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, sectors, 1)
	assert.Equal(t, "Finance", sectors[0].Name)
}

func TestSectorGraphRepository_CompanySectorMap(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	f := testutil.NewFixture(t, db)
	repo := NewSectorGraphRepository(db)

	tech := f.Sector("Tech")
	fin := f.Sector("Finance")
	a := f.Company("A", tech, fin)
	b := f.Company("B")

	sectors, companyIDs, err := repo.CompanySectorMap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint{a.ID, b.ID}, companyIDs)
	assert.Equal(t, []uint{tech.ID, fin.ID}, sectors[a.ID])
	assert.Empty(t, sectors[b.ID])
}
