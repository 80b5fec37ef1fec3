package optimistic

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounter_ConfirmAndRollback(t *testing.T) {
	c := NewCounter(4)

	up := c.Apply(1)
	assert.EqualValues(t, 5, c.Value())

	flip := c.Apply(-2)
	assert.EqualValues(t, 3, c.Value())
	assert.Equal(t, 2, c.Pending())

	flip.Rollback()
	assert.EqualValues(t, 5, c.Value())

	up.Confirm(5)
	assert.EqualValues(t, 5, c.Value())
	assert.Equal(t, 0, c.Pending())

	// settled changes ignore further calls
	up.Rollback()
	flip.Confirm(100)
	assert.EqualValues(t, 5, c.Value())
}

func TestCounter_Do(t *testing.T) {
	c := NewCounter(0)

	err := c.Do(context.Background(), 1, func(ctx context.Context) (int64, error) {
		assert.EqualValues(t, 1, c.Value(), "adjustment visible while in flight")
		return 3, nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, c.Value())

	boom := errors.New("persistence failure")
	err = c.Do(context.Background(), -1, func(ctx context.Context) (int64, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.EqualValues(t, 3, c.Value())
}

func TestCounter_ConcurrentRollbacksAreExact(t *testing.T) {
	c := NewCounter(10)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ch := c.Apply(int64(i%3) - 1)
			ch.Rollback()
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 10, c.Value())
	assert.Equal(t, 0, c.Pending())
}

func TestVoteDelta(t *testing.T) {
	assert.EqualValues(t, 1, VoteDelta(0, 1))
	assert.EqualValues(t, -2, VoteDelta(1, -1))
	assert.EqualValues(t, 0, VoteDelta(-1, -1))
}
