package sync

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// countingService counts Pull invocations
type countingService struct {
	pulls   atomic.Int64
	pullErr error
}

func (c *countingService) Sync(ctx context.Context) (*SyncResult, error) {
	return &SyncResult{}, nil
}

func (c *countingService) Pull(ctx context.Context) (*SyncResult, error) {
	c.pulls.Add(1)
	if c.pullErr != nil {
		return nil, c.pullErr
	}
	return &SyncResult{}, nil
}

func TestPoller_PullsPeriodically(t *testing.T) {
	svc := &countingService{}
	poller := NewPoller(svc, 10*time.Millisecond, testLogger())

	poller.Start(context.Background())
	time.Sleep(55 * time.Millisecond)
	poller.Stop()

	assert.GreaterOrEqual(t, svc.pulls.Load(), int64(3))
}

func TestPoller_StopHaltsPulling(t *testing.T) {
	svc := &countingService{}
	poller := NewPoller(svc, 10*time.Millisecond, testLogger())

	poller.Start(context.Background())
	time.Sleep(25 * time.Millisecond)
	poller.Stop()

	after := svc.pulls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, svc.pulls.Load(), "no pulls after Stop")
}

func TestPoller_SurvivesPullErrors(t *testing.T) {
	svc := &countingService{pullErr: errors.New("server unreachable")}
	poller := NewPoller(svc, 10*time.Millisecond, testLogger())

	poller.Start(context.Background())
	time.Sleep(35 * time.Millisecond)
	poller.Stop()

	assert.GreaterOrEqual(t, svc.pulls.Load(), int64(2), "errors don't stop the loop")
}

func TestPoller_StartTwiceIsNoop(t *testing.T) {
	svc := &countingService{}
	poller := NewPoller(svc, 10*time.Millisecond, testLogger())

	poller.Start(context.Background())
	poller.Start(context.Background())
	poller.Stop()

	// Stop after double Start must not hang or panic.
	poller.Stop()
}

func TestPoller_DefaultInterval(t *testing.T) {
	poller := NewPoller(&countingService{}, 0, testLogger())
	assert.Equal(t, DefaultPollInterval, poller.interval)
}
