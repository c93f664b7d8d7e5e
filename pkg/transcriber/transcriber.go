package transcriber

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// Transcriber turns a single audio file into text through the
// provider's audio transcription endpoint.
type Transcriber struct {
	api   *openai.Client
	model string
	log   *logrus.Entry
}

func New(apiKey, baseURL, model string) *Transcriber {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Transcriber{
		api:   openai.NewClientWithConfig(cfg),
		model: model,
		log:   logrus.WithField("component", "transcriber"),
	}
}

// TranscribeFile sends one audio chunk and returns its transcript.
func (t *Transcriber) TranscribeFile(ctx context.Context, path string) (string, error) {
	t.log.WithFields(logrus.Fields{
		"file":  filepath.Base(path),
		"model": t.model,
	}).Info("transcribing audio chunk")

	resp, err := t.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: path,
	})
	if err != nil {
		t.log.WithField("file", filepath.Base(path)).WithError(err).Error("transcription request failed")
		return "", fmt.Errorf("transcribe %s: %w", filepath.Base(path), err)
	}

	t.log.WithFields(logrus.Fields{
		"file":  filepath.Base(path),
		"chars": len(resp.Text),
	}).Info("transcription complete")
	return resp.Text, nil
}
