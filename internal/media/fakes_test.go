package media

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type fakeProvider struct {
	resultURL   string
	payload     []byte
	optimizeErr error
	fetchErr    error

	mu    sync.Mutex
	calls []string
}

func (f *fakeProvider) Optimize(ctx context.Context, url string, options OptimizeOptions) (string, error) {
	f.record("optimize")
	if f.optimizeErr != nil {
		return "", f.optimizeErr
	}
	return f.resultURL, nil
}

func (f *fakeProvider) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	f.record("fetch")
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.payload, nil
}

func (f *fakeProvider) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

type appendCall struct {
	mediaID string
	segment int
	size    int
}

type fakeClient struct {
	statuses  []ProcessingStatus
	statusErr error

	initErr     error
	appendErrAt int // segment index that fails, -1 for none
	finalizeErr error
	simpleErr   error

	mu        sync.Mutex
	nextID    int
	calls     []string
	appends   []appendCall
	received  []byte
	statusIdx int
}

func newFakeClient(statuses ...ProcessingStatus) *fakeClient {
	return &fakeClient{statuses: statuses, appendErrAt: -1}
}

func (f *fakeClient) newID() string {
	f.nextID++
	return fmt.Sprintf("media-%d", f.nextID)
}

func (f *fakeClient) InitUpload(ctx context.Context, totalBytes int, mediaCategory string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "init")
	if f.initErr != nil {
		return "", f.initErr
	}
	return f.newID(), nil
}

func (f *fakeClient) AppendChunk(ctx context.Context, mediaID string, segmentIndex int, chunk []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "append")
	if segmentIndex == f.appendErrAt {
		return fmt.Errorf("segment %d rejected", segmentIndex)
	}
	f.appends = append(f.appends, appendCall{mediaID: mediaID, segment: segmentIndex, size: len(chunk)})
	f.received = append(f.received, chunk...)
	return nil
}

func (f *fakeClient) FinalizeUpload(ctx context.Context, mediaID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "finalize")
	return f.finalizeErr
}

func (f *fakeClient) SimpleUpload(ctx context.Context, payload []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "simple")
	if f.simpleErr != nil {
		return "", f.simpleErr
	}
	f.received = append(f.received, payload...)
	return f.newID(), nil
}

func (f *fakeClient) GetProcessingStatus(ctx context.Context, mediaID string) (*ProcessingStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "status")
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	if len(f.statuses) == 0 {
		return &ProcessingStatus{State: ProcessingSucceeded}, nil
	}
	idx := f.statusIdx
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	f.statusIdx++
	status := f.statuses[idx]
	return &status, nil
}

func (f *fakeClient) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

type recordedWaits struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordedWaits) wait(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func payloadOf(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}
