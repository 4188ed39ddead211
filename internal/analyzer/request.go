package analyzer

// MediaKind declares what the artifact payload represents.
type MediaKind string

const (
	MediaImage      MediaKind = "image"
	MediaVideoFrame MediaKind = "video-frame"
)

// ProgressFunc receives human-readable phase labels during an invocation.
// Notifications are fire-and-forget; implementations must not block.
type ProgressFunc func(phase string)

// Request carries one artifact through a single analysis invocation. It is
// constructed fresh per call and owned by the caller for the duration of
// that call. Live requests select the lighter model tier and suppress
// progress notifications.
type Request struct {
	Payload  []byte
	Kind     MediaKind
	Live     bool
	Progress ProgressFunc
}

func (r *Request) notify(phase string) {
	if r.Live || r.Progress == nil {
		return
	}
	r.Progress(phase)
}
