package input

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestPushDrain_Order(t *testing.T) {
	q := NewQueue(0, nil)
	require.NoError(t, q.Push(Intent{Type: Move, Direction: "up"}))
	require.NoError(t, q.Push(Intent{Type: Interact}))
	require.NoError(t, q.Push(Intent{Type: UseAbility, ID: "prayer"}))

	got := q.Drain()
	require.Len(t, got, 3)
	assert.Equal(t, Move, got[0].Type)
	assert.Equal(t, "prayer", got[2].ID)
	assert.Empty(t, q.Drain())
}

func TestPush_Validation(t *testing.T) {
	q := NewQueue(4, nil)
	assert.ErrorIs(t, q.Push(Intent{Type: Move, Direction: "north"}), ErrBadIntent)
	assert.ErrorIs(t, q.Push(Intent{Type: UseItem}), ErrBadIntent)
	assert.ErrorIs(t, q.Push(Intent{Type: "fly"}), ErrBadIntent)
	assert.ErrorIs(t, q.Push(Intent{Type: StartQuest}), ErrBadIntent)
	assert.Zero(t, q.Len())

	require.NoError(t, q.Push(Intent{Type: StartQuest, ID: "daily_devotion"}))
	assert.Equal(t, 1, q.Len())
}

func TestPush_Capacity(t *testing.T) {
	q := NewQueue(2, nil)
	require.NoError(t, q.Push(Intent{Type: Interact}))
	require.NoError(t, q.Push(Intent{Type: Interact}))
	assert.ErrorIs(t, q.Push(Intent{Type: Interact}), ErrQueueFull)
}

func TestPush_RateLimitSparesControl(t *testing.T) {
	q := NewQueue(10, rate.NewLimiter(rate.Limit(0.001), 1))
	require.NoError(t, q.Push(Intent{Type: Interact}))
	assert.ErrorIs(t, q.Push(Intent{Type: Interact}), ErrRateLimited)
	assert.NoError(t, q.Push(Intent{Type: Pause}))
	assert.NoError(t, q.Push(Intent{Type: Save}))
	assert.Equal(t, 3, q.Len())
}

func TestPush_Concurrent(t *testing.T) {
	q := NewQueue(1000, nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = q.Push(Intent{Type: Interact})
			}
		}()
	}
	wg.Wait()
	assert.Len(t, q.Drain(), 400)
}
