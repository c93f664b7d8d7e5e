package segmenter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrNoChunks is returned when ffmpeg produced no output files at all.
var ErrNoChunks = errors.New("no chunk files were created")

// Segmenter cuts a recording into fixed-length windows with ffmpeg.
// The audio stream is copied, not re-encoded, so splitting is cheap.
type Segmenter struct {
	FFmpegPath   string
	FFprobePath  string
	ChunkSeconds int

	log *logrus.Entry
}

func New(ffmpegPath, ffprobePath string, chunkSeconds int) *Segmenter {
	if chunkSeconds <= 0 {
		chunkSeconds = 600
	}
	return &Segmenter{
		FFmpegPath:   ffmpegPath,
		FFprobePath:  ffprobePath,
		ChunkSeconds: chunkSeconds,
		log:          logrus.WithField("component", "segmenter"),
	}
}

// Duration probes the source file and returns its length in seconds.
func (s *Segmenter) Duration(ctx context.Context, src string) (float64, error) {
	out, err := exec.CommandContext(ctx, s.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		src,
	).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", filepath.Base(src), err)
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe output %q: %w", strings.TrimSpace(string(out)), err)
	}
	return dur, nil
}

// windows returns the start offset in seconds of every chunk covering
// a recording of the given total duration.
func windows(totalSeconds float64, step int) []int {
	var offsets []int
	for off := 0; float64(off) < totalSeconds; off += step {
		offsets = append(offsets, off)
	}
	return offsets
}

// SplitFile cuts src into ChunkSeconds-long files under outDir and
// returns their paths in playback order. outDir is recreated from
// scratch so a rerun never mixes old and new chunks.
func (s *Segmenter) SplitFile(ctx context.Context, src, outDir string) ([]string, error) {
	dur, err := s.Duration(ctx, src)
	if err != nil {
		return nil, err
	}

	if err := os.RemoveAll(outDir); err != nil {
		return nil, fmt.Errorf("reset chunk dir: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create chunk dir: %w", err)
	}

	offsets := windows(dur, s.ChunkSeconds)
	s.log.WithFields(logrus.Fields{
		"file":     filepath.Base(src),
		"duration": dur,
		"chunks":   len(offsets),
	}).Info("splitting recording")

	var paths []string
	for i, off := range offsets {
		out := filepath.Join(outDir, fmt.Sprintf("chunk_%03d.mp3", i))
		cmd := exec.CommandContext(ctx, s.FFmpegPath,
			"-y",
			"-i", src,
			"-ss", strconv.Itoa(off),
			"-t", strconv.Itoa(s.ChunkSeconds),
			"-acodec", "copy",
			out,
		)
		if err := cmd.Run(); err != nil {
			s.log.WithFields(logrus.Fields{
				"file":   filepath.Base(src),
				"offset": off,
			}).WithError(err).Error("ffmpeg chunk failed")
			continue
		}
		if st, err := os.Stat(out); err == nil && st.Size() > 0 {
			paths = append(paths, out)
		}
	}

	if len(paths) == 0 {
		return nil, ErrNoChunks
	}
	return paths, nil
}
