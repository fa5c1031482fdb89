package media

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectStrategy(t *testing.T) {
	require.Equal(t, StrategySimple, SelectStrategy(DefaultChunkedThreshold-1, DefaultChunkedThreshold))
	require.Equal(t, StrategyChunked, SelectStrategy(DefaultChunkedThreshold, DefaultChunkedThreshold))
	require.Equal(t, StrategyChunked, SelectStrategy(DefaultChunkedThreshold+1, DefaultChunkedThreshold))
	require.Equal(t, StrategySimple, SelectStrategy(0, DefaultChunkedThreshold))
}

func TestUploadSessionChunkedLifecycle(t *testing.T) {
	s := NewUploadSession(25, 10, StrategyChunked)
	require.Equal(t, 3, s.SegmentCount())
	require.Equal(t, SessionNotStarted, s.State())

	require.NoError(t, s.Initialized("m-1"))
	require.Equal(t, SessionInitialized, s.State())

	require.NoError(t, s.Appended(0, 10))
	require.Equal(t, SessionAppending, s.State())
	require.NoError(t, s.Appended(1, 10))
	require.False(t, s.ReadyForPolling())
	require.NoError(t, s.Appended(2, 5))
	require.Equal(t, SessionChunksSent, s.State())

	require.NoError(t, s.Finalized("m-1"))
	require.True(t, s.ReadyForPolling())
	require.Equal(t, "m-1", s.MediaID)
}

func TestUploadSessionRejectsOutOfOrderCalls(t *testing.T) {
	s := NewUploadSession(25, 10, StrategyChunked)
	require.ErrorIs(t, s.Appended(0, 10), ErrInvalidTransition)
	require.ErrorIs(t, s.Finalized(""), ErrInvalidTransition)

	require.NoError(t, s.Initialized("m-1"))
	require.ErrorIs(t, s.Initialized("m-2"), ErrInvalidTransition)
	require.Equal(t, "m-1", s.MediaID)

	require.ErrorIs(t, s.Appended(1, 10), ErrInvalidTransition, "gap")
	require.ErrorIs(t, s.Finalized(""), ErrInvalidTransition, "finalize before all chunks")
	require.NoError(t, s.Appended(0, 10))
	require.ErrorIs(t, s.Appended(0, 10), ErrInvalidTransition, "overlap")
	require.ErrorIs(t, s.Appended(1, 7), ErrInvalidTransition, "short chunk")
	require.NoError(t, s.Appended(1, 10))
	require.NoError(t, s.Appended(2, 5))
	require.ErrorIs(t, s.Appended(3, 1), ErrInvalidTransition, "past the end")
	require.ErrorIs(t, s.Finalized("m-9"), ErrInvalidTransition, "id is immutable")

	require.NoError(t, s.Finalized(""))
	require.ErrorIs(t, s.Appended(3, 1), ErrInvalidTransition, "append after finalize")
	require.ErrorIs(t, s.Finalized(""), ErrInvalidTransition, "finalize twice")
}

func TestUploadSessionSimple(t *testing.T) {
	s := NewUploadSession(10, 10, StrategySimple)
	require.Equal(t, 1, s.SegmentCount())
	require.ErrorIs(t, s.Initialized("m-1"), ErrInvalidTransition)
	require.ErrorIs(t, s.Finalized(""), ErrInvalidTransition)
	require.NoError(t, s.Finalized("m-1"))
	require.True(t, s.ReadyForPolling())
}

func TestUploadSessionAbort(t *testing.T) {
	s := NewUploadSession(25, 10, StrategyChunked)
	require.NoError(t, s.Initialized("m-1"))
	s.Abort()
	require.Equal(t, SessionAborted, s.State())
	require.ErrorIs(t, s.Appended(0, 10), ErrInvalidTransition)
	require.False(t, s.ReadyForPolling())

	done := NewUploadSession(10, 10, StrategySimple)
	require.NoError(t, done.Finalized("m-2"))
	done.Abort()
	require.Equal(t, SessionFinalized, done.State())
}
