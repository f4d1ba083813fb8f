package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryStopsAfterMaxAttempts(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 4, BaseDelay: time.Millisecond}

	calls := 0
	err := retryWithBackoff(context.Background(), p, func(ctx context.Context) error {
		calls++
		return ErrConflict("still conflicting")
	})

	require.Error(t, err)
	assert.Equal(t, CodeConcurrentConflict, CodeOf(err))
	assert.Equal(t, 4, calls)
}

func TestRetryTerminalErrorFailsFast(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Millisecond}

	calls := 0
	err := retryWithBackoff(context.Background(), p, func(ctx context.Context) error {
		calls++
		return ErrNoCopiesAvailable("no copies available")
	})

	assert.Equal(t, CodeNoCopiesAvailable, CodeOf(err))
	assert.Equal(t, 1, calls, "terminal errors must not be retried")
}

func TestRetrySucceedsAfterConflicts(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Millisecond}

	calls := 0
	err := retryWithBackoff(context.Background(), p, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return ErrConflict("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryRespectsContextCancellation(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: 50 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retryWithBackoff(ctx, p, func(ctx context.Context) error {
		calls++
		cancel() // 次のバックオフ待ちで中断されるはず
		return ErrConflict("transient")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicyDefaults(t *testing.T) {
	p := RetryPolicy{}.withDefaults()
	assert.Equal(t, 5, p.MaxAttempts)
	assert.Equal(t, 10*time.Millisecond, p.BaseDelay)
	assert.Equal(t, 0.3, p.JitterFactor)

	// 範囲外のジッタ係数はデフォルトに戻す
	p = RetryPolicy{MaxAttempts: 2, BaseDelay: time.Second, JitterFactor: 7}.withDefaults()
	assert.Equal(t, 2, p.MaxAttempts)
	assert.Equal(t, time.Second, p.BaseDelay)
	assert.Equal(t, 0.3, p.JitterFactor)
}
