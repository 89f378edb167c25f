package inbound

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/safe4law/safe4law/internal/pkg/config"
	"github.com/safe4law/safe4law/internal/pkg/goroutine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countSweeper struct{ n atomic.Int32 }

func (c *countSweeper) Sweep(context.Context) error {
	c.n.Add(1)
	return nil
}

func TestRegisterSweepJob(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  recovery:\n    sweep_interval_seconds: 1\n"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	routine := goroutine.NewManager(4)
	sw := &countSweeper{}

	require.True(t, RegisterSweepJob(ctx, cfg, routine, sw))
	assert.Eventually(t, func() bool { return sw.n.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, routine.Wait())
}

func TestRegisterSweepJob_Disabled(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  recovery:\n    sweep_interval_seconds: -1\n"))
	require.NoError(t, err)

	assert.False(t, RegisterSweepJob(context.Background(), cfg, goroutine.NewManager(1), &countSweeper{}))
}
