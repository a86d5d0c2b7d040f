package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinoosan/banking/internal/ledger"
	"github.com/tinoosan/banking/internal/service/statement"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, 0), mr
}

var _ statement.Cache = (*Statements)(nil)

func TestRedisCache_SetGetDelete(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	type payload struct{ N int }
	require.NoError(t, c.Set(ctx, "k", payload{N: 7}, time.Minute))
	assert.True(t, mr.Exists("k"))

	var got payload
	ok, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7, got.N)

	require.NoError(t, c.Delete(ctx, "k"))
	ok, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache_Expires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "short", 1, time.Second))
	mr.FastForward(2 * time.Second)
	var v int
	ok, err := c.Get(ctx, "short", &v)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStatements_RoundTripKeepsDecimals(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	sc := NewStatements(c, time.Hour)

	st := ledger.Statement{
		AccountID:        uuid.New(),
		Period:           "NOVEMBER",
		Month:            11,
		Year:             2025,
		Currency:         "INR",
		OpeningBalance:   decimal.RequireFromString("5000.00"),
		TotalDeposits:    decimal.RequireFromString("3000.00"),
		TotalWithdrawals: decimal.RequireFromString("2000.00"),
		ClosingBalance:   decimal.RequireFromString("6000.00"),
		TransactionCount: 2,
	}
	require.NoError(t, sc.SetStatement(ctx, "statement:x", st))
	got, ok, err := sc.GetStatement(ctx, "statement:x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, st.AccountID, got.AccountID)
	assert.True(t, st.ClosingBalance.Equal(got.ClosingBalance))
	assert.Equal(t, "NOVEMBER", got.Period)

	_, ok, err = sc.GetStatement(ctx, "statement:missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache_Ready(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, c.Ready(context.Background()))
	mr.Close()
	assert.Error(t, c.Ready(context.Background()))
}
