package customers

import (
	"context"
	"sync"
	"testing"

	"lightfoot-pos/internal/apperr"
	"lightfoot-pos/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewards_SignUpFlow(t *testing.T) {
	r := NewRewards(testutil.NewDB(t), testutil.Logger())
	ctx := context.Background()

	status, err := r.CheckEmail(ctx, "guest@example.com")
	require.NoError(t, err)
	assert.False(t, status.Exists)
	assert.Nil(t, status.Points)

	c, err := r.Create(ctx, "Guest@Example.com")
	require.NoError(t, err)
	assert.NotZero(t, c.UserID)
	assert.Equal(t, "guest@example.com", c.Email)

	_, err = r.Create(ctx, "guest@example.com")
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, "Email already exists.", apperr.Message(err))

	status, err = r.CheckEmail(ctx, "guest@example.com")
	require.NoError(t, err)
	assert.True(t, status.Exists)
	require.NotNil(t, status.Points)
	assert.Zero(t, *status.Points)
}

func TestRewards_Points(t *testing.T) {
	r := NewRewards(testutil.NewDB(t), testutil.Logger())
	ctx := context.Background()

	_, err := r.Create(ctx, "guest@example.com")
	require.NoError(t, err)

	balance, err := r.AddPoints(ctx, "guest@example.com", 12)
	require.NoError(t, err)
	assert.Equal(t, int64(12), balance)

	balance, err = r.AddPoints(ctx, "guest@example.com", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(15), balance)

	_, err = r.AddPoints(ctx, "guest@example.com", 0)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = r.AddPoints(ctx, "nobody@example.com", 5)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, "User not found.", apperr.Message(err))

	left, err := r.RedeemPoints(ctx, "guest@example.com", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), left)

	_, err = r.RedeemPoints(ctx, "guest@example.com", -1)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = r.RedeemPoints(ctx, "nobody@example.com", 0)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRewards_ConcurrentAdds(t *testing.T) {
	r := NewRewards(testutil.NewDB(t), testutil.Logger())
	ctx := context.Background()
	_, err := r.Create(ctx, "guest@example.com")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.AddPoints(ctx, "guest@example.com", 2)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	status, err := r.CheckEmail(ctx, "guest@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(20), *status.Points)
}

func TestRewards_InvalidEmail(t *testing.T) {
	r := NewRewards(testutil.NewDB(t), testutil.Logger())
	_, err := r.CheckEmail(context.Background(), "not-an-email")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = r.Create(context.Background(), "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestPointsForTotal(t *testing.T) {
	assert.Equal(t, int64(12), PointsForTotal(decimal.RequireFromString("12.99")))
	assert.Equal(t, int64(0), PointsForTotal(decimal.RequireFromString("0.50")))
	assert.Equal(t, int64(0), PointsForTotal(decimal.RequireFromString("-3")))
}
