package media

import (
	"errors"
	"fmt"
)

// SessionState is the position of an UploadSession in the upload protocol.
type SessionState string

const (
	SessionNotStarted  SessionState = "not_started"
	SessionInitialized SessionState = "initialized"
	SessionAppending   SessionState = "appending"
	SessionChunksSent  SessionState = "all_chunks_sent"
	SessionFinalized   SessionState = "finalized"
	SessionAborted     SessionState = "aborted"
)

var ErrInvalidTransition = errors.New("invalid upload session transition")

// allowedTransitions lists every legal edge. The simple strategy goes straight
// from not_started to finalized.
var allowedTransitions = map[SessionState][]SessionState{
	SessionNotStarted:  {SessionInitialized, SessionFinalized, SessionAborted},
	SessionInitialized: {SessionAppending, SessionChunksSent, SessionAborted},
	SessionAppending:   {SessionAppending, SessionChunksSent, SessionAborted},
	SessionChunksSent:  {SessionFinalized, SessionAborted},
}

// UploadSession tracks one upload from INIT to FINALIZE. It is local to a
// single pipeline invocation and is never shared or resumed.
type UploadSession struct {
	MediaID     string
	TotalBytes  int
	ChunkSize   int
	Strategy    UploadStrategy
	NextSegment int

	state     SessionState
	sentBytes int
}

// NewUploadSession creates a session for a payload of totalBytes.
func NewUploadSession(totalBytes, chunkSize int, strategy UploadStrategy) *UploadSession {
	return &UploadSession{
		TotalBytes: totalBytes,
		ChunkSize:  chunkSize,
		Strategy:   strategy,
		state:      SessionNotStarted,
	}
}

// State returns the current state.
func (s *UploadSession) State() SessionState {
	return s.state
}

// SegmentCount is ceil(TotalBytes / ChunkSize) for chunked sessions and 1 otherwise.
func (s *UploadSession) SegmentCount() int {
	if s.Strategy != StrategyChunked {
		return 1
	}
	if s.TotalBytes <= 0 || s.ChunkSize <= 0 {
		return 0
	}
	return (s.TotalBytes + s.ChunkSize - 1) / s.ChunkSize
}

// SegmentBounds returns the half-open byte range [start, end) of segment i.
func (s *UploadSession) SegmentBounds(i int) (int, int) {
	start := i * s.ChunkSize
	end := start + s.ChunkSize
	if end > s.TotalBytes {
		end = s.TotalBytes
	}
	return start, end
}

// Initialized records the media id returned by INIT.
func (s *UploadSession) Initialized(mediaID string) error {
	if s.Strategy != StrategyChunked {
		return fmt.Errorf("%w: INIT on a %s session", ErrInvalidTransition, s.Strategy)
	}
	if mediaID == "" {
		return fmt.Errorf("%w: empty media id from INIT", ErrInvalidTransition)
	}
	if err := s.advance(SessionInitialized); err != nil {
		return err
	}
	s.MediaID = mediaID
	return nil
}

// Appended records a successful APPEND of segment with the given byte length.
// Segments must arrive in order and cover the payload without gaps or overlaps.
func (s *UploadSession) Appended(segment, length int) error {
	if segment != s.NextSegment {
		return fmt.Errorf("%w: segment %d out of order, expected %d", ErrInvalidTransition, segment, s.NextSegment)
	}
	start, end := s.SegmentBounds(segment)
	if start != s.sentBytes || length != end-start || length <= 0 {
		return fmt.Errorf("%w: segment %d has %d bytes, expected %d", ErrInvalidTransition, segment, length, end-start)
	}

	next := SessionAppending
	if s.sentBytes+length == s.TotalBytes {
		next = SessionChunksSent
	}
	if err := s.advance(next); err != nil {
		return err
	}
	s.sentBytes += length
	s.NextSegment++
	return nil
}

// Finalized records FINALIZE for chunked sessions, or the single upload call
// for simple sessions (which also assigns the media id).
func (s *UploadSession) Finalized(mediaID string) error {
	if s.Strategy == StrategySimple {
		if mediaID == "" {
			return fmt.Errorf("%w: empty media id from simple upload", ErrInvalidTransition)
		}
		if err := s.advance(SessionFinalized); err != nil {
			return err
		}
		s.MediaID = mediaID
		s.sentBytes = s.TotalBytes
		return nil
	}
	if s.state == SessionNotStarted {
		return fmt.Errorf("%w: FINALIZE before INIT", ErrInvalidTransition)
	}
	if mediaID != "" && mediaID != s.MediaID {
		return fmt.Errorf("%w: media id changed from %s to %s", ErrInvalidTransition, s.MediaID, mediaID)
	}
	return s.advance(SessionFinalized)
}

// Abort marks the session unusable. Aborting a finished session is a no-op.
func (s *UploadSession) Abort() {
	if s.state == SessionFinalized || s.state == SessionAborted {
		return
	}
	s.state = SessionAborted
}

// ReadyForPolling reports whether status queries are allowed.
func (s *UploadSession) ReadyForPolling() bool {
	return s.state == SessionFinalized
}

func (s *UploadSession) advance(to SessionState) error {
	for _, allowed := range allowedTransitions[s.state] {
		if allowed == to {
			s.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, to)
}
