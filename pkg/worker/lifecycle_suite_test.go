package worker

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// LifecycleSuite runs each test against a fresh, started pool.
type LifecycleSuite struct {
	suite.Suite

	logs   *syncBuffer
	ctx    context.Context
	cancel context.CancelFunc
	pool   *Pool[testWork]
}

// syncBuffer lets the workers and the test share a log sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLifecycleSuite(t *testing.T) {
	suite.Run(t, new(LifecycleSuite))
}

func (s *LifecycleSuite) SetupTest() {
	s.logs = &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(s.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.pool = NewPool(2, 8, func(_ context.Context, work testWork) error {
		if work.fail {
			return context.DeadlineExceeded
		}
		return nil
	}, WithLogger[testWork](logger))

	s.Require().NoError(s.pool.Start(s.ctx))
}

func (s *LifecycleSuite) TearDownTest() {
	s.Require().NoError(s.pool.Stop(5 * time.Second))
	s.cancel()
}

func (s *LifecycleSuite) TestStartTwice() {
	s.ErrorIs(s.pool.Start(s.ctx), ErrPoolAlreadyStarted)
}

func (s *LifecycleSuite) TestLogsLifecycle() {
	s.Contains(s.logs.String(), "worker pool started")
	s.Contains(s.logs.String(), "workers=2")
	s.Contains(s.logs.String(), "queue_size=8")

	s.Require().NoError(s.pool.Stop(5 * time.Second))
	s.Contains(s.logs.String(), "worker pool stopped")
}

func (s *LifecycleSuite) TestLogsFailures() {
	s.Require().NoError(s.pool.Submit(testWork{id: 1, fail: true}))
	s.Require().NoError(s.pool.Stop(5 * time.Second))

	s.Contains(s.logs.String(), "work item failed")
	s.Contains(s.logs.String(), context.DeadlineExceeded.Error())
	s.Equal(int64(1), s.pool.Stats().Failed)
}

func (s *LifecycleSuite) TestStopAfterCancel() {
	s.cancel()
	s.ErrorIs(s.pool.Submit(testWork{}), ErrPoolStopped)
	s.NoError(s.pool.Stop(5 * time.Second))
}

func (s *LifecycleSuite) TestResizeLogged() {
	s.Require().NoError(s.pool.Resize(16))
	s.Contains(s.logs.String(), "worker pool resized")
	s.Contains(s.logs.String(), "new_queue_size=16")
	s.Equal(16, s.pool.Stats().QueueSize)
}
