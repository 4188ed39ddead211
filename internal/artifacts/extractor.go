package artifacts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/tarunvipparti/DFS/internal/analyzer"
)

// frameOffsetSeconds positions the representative frame past intro/black
// frames without drifting far from the start of the clip.
const frameOffsetSeconds = "2"

// FrameGrabber extracts one representative still frame from a video file.
type FrameGrabber interface {
	Grab(ctx context.Context, videoPath string) ([]byte, error)
}

type ffmpegGrabber struct{}

// NewFrameGrabber returns the production grabber backed by the ffmpeg binary.
func NewFrameGrabber() FrameGrabber {
	return ffmpegGrabber{}
}

func (ffmpegGrabber) Grab(ctx context.Context, videoPath string) ([]byte, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(
		ctx, "ffmpeg",
		"-ss", frameOffsetSeconds,
		"-i", videoPath,
		"-frames:v", "1",
		"-f", "image2",
		"-c:v", "png",
		"pipe:1",
	)
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame grab: %w", err)
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no frame")
	}

	return out.Bytes(), nil
}

// ExtractPayload produces the analyzable bytes for an artifact. Images are
// returned as stored; videos yield a representative frame grabbed a couple
// of seconds in.
func (r *repo) ExtractPayload(ctx context.Context, id uuid.UUID) ([]byte, analyzer.MediaKind, error) {
	artifact, err := r.Find(ctx, id)
	if err != nil {
		return nil, "", err
	}

	blob, err := r.storage.Download(ctx, artifact.StorageKey)
	if err != nil {
		return nil, "", fmt.Errorf("%w: download blob: %w", ErrExtractFailed, err)
	}
	defer blob.Close()

	if artifact.Kind != KindVideo {
		data, err := io.ReadAll(blob)
		if err != nil {
			return nil, "", fmt.Errorf("%w: read blob: %w", ErrExtractFailed, err)
		}
		return data, analyzer.MediaImage, nil
	}

	frame, err := r.grabFrame(ctx, artifact, blob)
	if err != nil {
		return nil, "", err
	}
	return frame, analyzer.MediaVideoFrame, nil
}

func (r *repo) grabFrame(ctx context.Context, artifact *Artifact, blob io.Reader) ([]byte, error) {
	tempDir, err := os.MkdirTemp("", "sentinel-extract-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create temp directory: %w", ErrExtractFailed, err)
	}
	defer os.RemoveAll(tempDir)

	videoPath := filepath.Join(tempDir, "source"+filepath.Ext(artifact.Filename))
	videoFile, err := os.Create(videoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: create temp video: %w", ErrExtractFailed, err)
	}

	if _, err := io.Copy(videoFile, blob); err != nil {
		videoFile.Close()
		return nil, fmt.Errorf("%w: write temp video: %w", ErrExtractFailed, err)
	}
	videoFile.Close()

	frame, err := r.grabber.Grab(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractFailed, err)
	}

	r.logger.Debug("frame extracted", "artifact_id", artifact.ID, "bytes", len(frame))
	return frame, nil
}
