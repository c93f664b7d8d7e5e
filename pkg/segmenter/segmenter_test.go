package segmenter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindows(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		step     int
		want     []int
	}{
		{"shorter than one chunk", 90, 600, []int{0}},
		{"exactly one chunk", 600, 600, []int{0}},
		{"just over one chunk", 601, 600, []int{0, 600}},
		{"25 minutes", 1500, 600, []int{0, 600, 1200}},
		{"exact multiple", 1200, 600, []int{0, 600}},
		{"zero duration", 0, 600, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, windows(tt.duration, tt.step))
		})
	}
}

func TestNewDefaultsChunkSeconds(t *testing.T) {
	s := New("ffmpeg", "ffprobe", 0)
	assert.Equal(t, 600, s.ChunkSeconds)
}
