package repository

import (
	"context"
	"testing"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationRepository_FanOut(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	f := testutil.NewFixture(t, db)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	u1 := f.User("a@example.com")
	u2 := f.User("b@example.com")
	c := f.Company("Acme")

	first := &entity.Notification{TargetID: c.ID, TargetType: entity.NotificationTargetCompany, Message: "first"}
	require.NoError(t, repo.CreateForUsers(ctx, first, []uint{u1.ID, u2.ID}))
	second := &entity.Notification{TargetID: c.ID, TargetType: entity.NotificationTargetCompany, Message: "second"}
	require.NoError(t, repo.CreateForUsers(ctx, second, []uint{u1.ID}))

	items, err := repo.ListByUser(ctx, u1.ID, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "second", items[0].Notification.Message)
	assert.False(t, items[0].Read)

	items, err = repo.ListByUser(ctx, u2.ID, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "first", items[0].Notification.Message)
}
