package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Frame source failure modes. ErrNotReady means no decodable frame is
// available yet and the cycle should be rescheduled without counting as a
// failure; ErrSourceLost means the source is permanently gone and the
// session must end.
var (
	ErrNotReady   = errors.New("frame source not ready")
	ErrSourceLost = errors.New("frame source lost")
)

// FrameSource supplies one decodable frame per snapshot.
type FrameSource interface {
	Snapshot(ctx context.Context) ([]byte, error)
	Close() error
}

const maxFrameSize = 16 * 1024 * 1024

type httpSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates a frame source that polls a snapshot endpoint for
// the latest frame. Connection failures and non-200 responses are reported
// as not-ready; HTTP 410 marks the source permanently lost.
func NewHTTPSource(url string) FrameSource {
	return &httpSource{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *httpSource) Snapshot(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceLost, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("%w: snapshot endpoint gone", ErrSourceLost)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: snapshot status %d", ErrNotReady, resp.StatusCode)
	}

	frame, err := io.ReadAll(io.LimitReader(resp.Body, maxFrameSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read frame: %w", ErrNotReady, err)
	}
	if len(frame) == 0 {
		return nil, fmt.Errorf("%w: empty frame", ErrNotReady)
	}

	return frame, nil
}

func (s *httpSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
