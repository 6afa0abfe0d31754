package kitchen

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"lightfoot-pos/internal/apperr"
	"lightfoot-pos/internal/database/models"
	"lightfoot-pos/internal/events"
	"lightfoot-pos/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newQueue(t *testing.T) (*Queue, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	rdb, _ := testutil.NewRedis(t)
	q := NewQueue(db, events.NewPublisher(rdb, testutil.Logger()), time.UTC, testutil.Logger())
	return q, db
}

func queueLine(t *testing.T, db *gorm.DB, orderID, menuItemID int64, group int, created time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&models.CurrentOrderLine{
		OrderID:      orderID,
		MenuItemID:   menuItemID,
		Quantity:     1,
		OrderCreated: created,
		ItemGroup:    group,
	}).Error)
}

func TestListCurrent_GroupsAndSorts(t *testing.T) {
	q, db := newQueue(t)
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	bowl := testutil.CreateMenuItem(t, db, "Bowl", models.CategoryMeal, "8.30")
	rice := testutil.CreateMenuItem(t, db, "Fried Rice", models.CategorySide, "0")

	queueLine(t, db, 12, bowl.MenuItemID, 1, created)
	queueLine(t, db, 12, rice.MenuItemID, 1, created)
	queueLine(t, db, 12, 777, 2, created)
	queueLine(t, db, 10, rice.MenuItemID, 1, created)

	tickets, err := q.ListCurrent(ctx)
	require.NoError(t, err)
	require.Len(t, tickets, 2)

	assert.Equal(t, int64(10), tickets[0].OrderID)
	assert.Equal(t, int64(12), tickets[1].OrderID)

	items := tickets[1].Items
	require.Len(t, items, 3)
	assert.Equal(t, 2, items[0].ItemGroup)
	assert.Equal(t, UnknownItemName, items[0].Name)
	assert.Equal(t, UnknownItemType, items[0].ItemType)
	assert.Equal(t, "Bowl", items[1].Name)
	assert.Equal(t, "Fried Rice", items[2].Name)
}

func TestComplete_MovesRows(t *testing.T) {
	q, db := newQueue(t)
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	done := created.Add(7 * time.Minute)
	q.now = func() time.Time { return done }

	queueLine(t, db, 5, 1, 1, created)
	queueLine(t, db, 5, 2, 1, created)
	queueLine(t, db, 6, 3, 1, created)

	completedAt, err := q.Complete(ctx, 5)
	require.NoError(t, err)
	assert.True(t, completedAt.Equal(done))

	var current []models.CurrentOrderLine
	require.NoError(t, db.Find(&current).Error)
	require.Len(t, current, 1)
	assert.Equal(t, int64(6), current[0].OrderID)

	var completed []models.CompletedOrderLine
	require.NoError(t, db.Order("id").Find(&completed).Error)
	require.Len(t, completed, 2)
	for _, c := range completed {
		assert.Equal(t, int64(5), c.OrderID)
		assert.True(t, c.CompletedAt.Equal(done))
		assert.True(t, c.OrderCreated.Equal(created))
	}
}

func TestComplete_UnknownOrder(t *testing.T) {
	q, db := newQueue(t)
	queueLine(t, db, 6, 3, 1, time.Now().UTC())

	_, err := q.Complete(context.Background(), 99)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	var n int64
	require.NoError(t, db.Model(&models.CompletedOrderLine{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, db.Model(&models.CurrentOrderLine{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestComplete_PublishesEvent(t *testing.T) {
	db := testutil.NewDB(t)
	rdb, _ := testutil.NewRedis(t)
	q := NewQueue(db, events.NewPublisher(rdb, testutil.Logger()), time.UTC, testutil.Logger())
	ctx := context.Background()

	sub := rdb.Subscribe(ctx, events.Channel(events.OrderCompleted))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	queueLine(t, db, 3, 9, 1, time.Now().UTC())
	_, err = q.Complete(ctx, 3)
	require.NoError(t, err)

	select {
	case msg := <-sub.Channel():
		var ev events.Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
		assert.Equal(t, events.OrderCompleted, ev.EventType)
		assert.Equal(t, int64(3), ev.OrderID)
		assert.Equal(t, []int64{9}, ev.Items)
	case <-time.After(2 * time.Second):
		t.Fatal("no completion event received")
	}
}

func TestListCompletedToday(t *testing.T) {
	q, db := newQueue(t)
	ctx := context.Background()
	today := time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC)
	q.now = func() time.Time { return today }

	require.NoError(t, db.Create(&[]models.CompletedOrderLine{
		{OrderID: 1, MenuItemID: 1, Quantity: 1, ItemGroup: 1, OrderCreated: today, CompletedAt: today.Add(-2 * time.Hour)},
		{OrderID: 2, MenuItemID: 1, Quantity: 1, ItemGroup: 1, OrderCreated: today, CompletedAt: today.Add(-1 * time.Hour)},
		{OrderID: 2, MenuItemID: 2, Quantity: 1, ItemGroup: 1, OrderCreated: today, CompletedAt: today.Add(-1 * time.Hour)},
		{OrderID: 3, MenuItemID: 1, Quantity: 1, ItemGroup: 1, OrderCreated: today, CompletedAt: today.AddDate(0, 0, -1)},
	}).Error)

	tickets, err := q.ListCompletedToday(ctx)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, int64(2), tickets[0].OrderID)
	assert.Len(t, tickets[0].Items, 2)
	assert.Equal(t, int64(1), tickets[1].OrderID)
}
