package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenSource_CachesUntilExpiry(t *testing.T) {
	exchanges := 0
	src := NewTokenSource(func(ctx context.Context) (string, time.Duration, error) {
		exchanges++
		return "tok-1", time.Hour, nil
	})

	tok, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	tok, err = src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, 1, exchanges)
}

func TestTokenSource_ReExchangesPastExpiry(t *testing.T) {
	exchanges := 0
	src := NewTokenSource(func(ctx context.Context) (string, time.Duration, error) {
		exchanges++
		if exchanges == 1 {
			return "tok-1", time.Hour, nil
		}
		return "tok-2", time.Hour, nil
	})

	clock := time.Now()
	src.now = func() time.Time { return clock }

	tok, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	// Step past the hour minus the refresh skew.
	clock = clock.Add(time.Hour)

	tok, err = src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
	assert.Equal(t, 2, exchanges)
}

func TestTokenSource_SkewRefreshesEarly(t *testing.T) {
	exchanges := 0
	src := NewTokenSource(func(ctx context.Context) (string, time.Duration, error) {
		exchanges++
		return "tok", time.Minute, nil
	})

	clock := time.Now()
	src.now = func() time.Time { return clock }

	_, err := src.Token(context.Background())
	require.NoError(t, err)

	// 31s into a 60s lifetime is already inside the 30s skew window.
	clock = clock.Add(31 * time.Second)

	_, err = src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, exchanges)
}

func TestTokenSource_Invalidate(t *testing.T) {
	exchanges := 0
	src := NewTokenSource(func(ctx context.Context) (string, time.Duration, error) {
		exchanges++
		return "tok", time.Hour, nil
	})

	_, err := src.Token(context.Background())
	require.NoError(t, err)

	src.Invalidate()

	_, err = src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, exchanges)
}

func TestTokenSource_ExchangeError(t *testing.T) {
	wantErr := errors.New("401 unauthorized")
	src := NewTokenSource(func(ctx context.Context) (string, time.Duration, error) {
		return "", 0, wantErr
	})

	_, err := src.Token(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
}
