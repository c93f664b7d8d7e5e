package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/travelops/callscore/internal/models"
	"github.com/travelops/callscore/pkg/config"
	"github.com/travelops/callscore/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNoTranscription is returned when every chunk transcription came
// back empty.
var ErrNoTranscription = errors.New("no transcription text produced")

// AudioSplitter cuts a recording into ordered chunk files.
type AudioSplitter interface {
	SplitFile(ctx context.Context, src, outDir string) ([]string, error)
}

// ChunkTranscriber transcribes a single chunk file.
type ChunkTranscriber interface {
	TranscribeFile(ctx context.Context, path string) (string, error)
}

// Completer runs a chat completion.
type Completer interface {
	Complete(ctx context.Context, model string, messages []openai.ChatCompletionMessage) (string, error)
}

// IndexBuilder builds the embedding index for a transcribed call.
type IndexBuilder interface {
	BuildIndex(ctx context.Context, rec *models.CallRecord) error
}

// Deliverer posts the call notification onto the ticket.
type Deliverer interface {
	PostMessage(ctx context.Context, ticketCode, body string) (bool, error)
}

// Pipeline drives a call record through chunking, transcription and
// analysis. Stage functions persist their outcome before returning;
// failures park the record in the matching error stage instead of
// propagating past the stage boundary.
type Pipeline struct {
	db          *gorm.DB
	cfg         *config.Config
	splitter    AudioSplitter
	transcriber ChunkTranscriber
	llm         Completer
	index       IndexBuilder
	ticketing   Deliverer

	// Spawn runs a detached background task. The default runs fn on a
	// goroutine with panic recovery; tests swap in a synchronous one.
	Spawn func(task string, fn func())
}

func New(db *gorm.DB, cfg *config.Config, splitter AudioSplitter, transcriber ChunkTranscriber, llm Completer, index IndexBuilder, ticketing Deliverer) *Pipeline {
	return &Pipeline{
		db:          db,
		cfg:         cfg,
		splitter:    splitter,
		transcriber: transcriber,
		llm:         llm,
		index:       index,
		ticketing:   ticketing,
		Spawn:       spawnDetached,
	}
}

func spawnDetached(task string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("background task panicked",
					zap.String("task", task), zap.Any("panic", r))
			}
		}()
		fn()
	}()
}

// Chunk splits the recording into fixed windows and, on success, moves
// straight into transcription.
func (p *Pipeline) Chunk(ctx context.Context, rec *models.CallRecord) error {
	if err := models.SetStage(p.db, rec.ID, models.StageChunking, ""); err != nil {
		return err
	}

	outDir := filepath.Join(p.cfg.UploadDir, "chunks", fmt.Sprintf("call_%d", rec.ID))
	paths, err := p.splitter.SplitFile(ctx, rec.FilePath, outDir)
	if err != nil {
		logger.Error("chunking failed",
			zap.Uint("callId", rec.ID), zap.Error(err))
		if serr := models.SetStage(p.db, rec.ID, models.StageChunkError, err.Error()); serr != nil {
			logger.Error("failed to persist chunk error stage", zap.Uint("callId", rec.ID), zap.Error(serr))
		}
		return err
	}

	rec.ChunkDir = outDir
	rec.ChunkPaths = models.EncodeJSON(paths)
	rec.Stage = models.StageChunked
	if err := p.db.Model(&models.CallRecord{}).Where("id = ?", rec.ID).Updates(map[string]any{
		"chunk_dir":   rec.ChunkDir,
		"chunk_paths": rec.ChunkPaths,
		"stage":       rec.Stage,
		"stage_error": "",
	}).Error; err != nil {
		return err
	}

	logger.Info("recording chunked",
		zap.Uint("callId", rec.ID), zap.Int("chunks", len(paths)))
	return p.Transcribe(ctx, rec)
}

// Transcribe transcribes every chunk in order and concatenates the
// parts. A failing chunk is logged and skipped; the stage only fails
// when the aggregate text is blank. After a durable save the local
// audio files are removed and analysis plus the embedding build are
// started detached.
func (p *Pipeline) Transcribe(ctx context.Context, rec *models.CallRecord) error {
	if err := models.SetStage(p.db, rec.ID, models.StageTranscribing, ""); err != nil {
		return err
	}

	paths := models.DecodeStringSlice(rec.ChunkPaths)
	var sb strings.Builder
	for _, path := range paths {
		text, err := p.transcriber.TranscribeFile(ctx, path)
		if err != nil {
			logger.Warn("chunk transcription failed, continuing",
				zap.Uint("callId", rec.ID), zap.String("chunk", filepath.Base(path)), zap.Error(err))
			continue
		}
		sb.WriteString(strings.ReplaceAll(text, "\n", "\r\n"))
		sb.WriteString("\r\n\r\n")
	}

	full := sb.String()
	if strings.TrimSpace(full) == "" {
		logger.Error("transcription produced no text", zap.Uint("callId", rec.ID))
		if serr := models.SetStage(p.db, rec.ID, models.StageTranscribeError, ErrNoTranscription.Error()); serr != nil {
			logger.Error("failed to persist transcribe error stage", zap.Uint("callId", rec.ID), zap.Error(serr))
		}
		return ErrNoTranscription
	}

	rec.Transcription = full
	rec.Stage = models.StageTranscribed
	if err := p.db.Model(&models.CallRecord{}).Where("id = ?", rec.ID).Updates(map[string]any{
		"transcription": full,
		"stage":         models.StageTranscribed,
		"stage_error":   "",
	}).Error; err != nil {
		return err
	}

	// Audio is only deleted once the transcript is saved.
	p.CleanupFiles(rec)

	analyzeRec := *rec
	indexRec := *rec
	p.Spawn("analysis", func() {
		if err := p.Analyze(context.Background(), &analyzeRec); err != nil {
			logger.Error("detached analysis failed", zap.Uint("callId", analyzeRec.ID), zap.Error(err))
		}
	})
	p.Spawn("embedding", func() {
		if err := p.index.BuildIndex(context.Background(), &indexRec); err != nil {
			logger.Error("detached embedding build failed", zap.Uint("callId", indexRec.ID), zap.Error(err))
		}
	})
	return nil
}

// Analyze runs the structured-extraction prompt over the transcript,
// stores the parsed analysis and upserts the flattened extract row.
func (p *Pipeline) Analyze(ctx context.Context, rec *models.CallRecord) error {
	if err := models.SetStage(p.db, rec.ID, models.StageAnalyzing, ""); err != nil {
		return err
	}

	raw, err := p.llm.Complete(ctx, p.cfg.ChatModel, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: analysisPrompt},
		{Role: openai.ChatMessageRoleUser, Content: rec.Transcription},
	})
	if err != nil {
		logger.Error("analysis completion failed", zap.Uint("callId", rec.ID), zap.Error(err))
		if serr := models.SetStage(p.db, rec.ID, models.StageAnalyzeError, err.Error()); serr != nil {
			logger.Error("failed to persist analyze error stage", zap.Uint("callId", rec.ID), zap.Error(serr))
		}
		return err
	}

	parsed := parseAnalysis(raw)
	satisfaction := satisfactionOf(parsed)

	if err := p.db.Model(&models.CallRecord{}).Where("id = ?", rec.ID).Updates(map[string]any{
		"analysis":     models.EncodeJSON(parsed),
		"satisfaction": satisfaction,
	}).Error; err != nil {
		return err
	}
	if err := UpsertAnalysisExtract(p.db, rec.ID, rec.TicketCode, parsed, satisfaction); err != nil {
		logger.Error("extract upsert failed", zap.Uint("callId", rec.ID), zap.Error(err))
		if serr := models.SetStage(p.db, rec.ID, models.StageAnalyzeError, err.Error()); serr != nil {
			logger.Error("failed to persist analyze error stage", zap.Uint("callId", rec.ID), zap.Error(serr))
		}
		return err
	}

	logger.Info("call analyzed",
		zap.Uint("callId", rec.ID), zap.Int("satisfaction", satisfaction))
	return models.SetStage(p.db, rec.ID, models.StageComplete, "")
}

// CleanupFiles removes the chunk directory and source recording.
// Failures are logged, never propagated: the cron file cleaner picks
// up leftovers.
func (p *Pipeline) CleanupFiles(rec *models.CallRecord) {
	if rec.ChunkDir != "" {
		if err := os.RemoveAll(rec.ChunkDir); err != nil {
			logger.Warn("failed to remove chunk dir",
				zap.Uint("callId", rec.ID), zap.String("dir", rec.ChunkDir), zap.Error(err))
		}
	}
	if rec.FilePath != "" {
		if err := os.Remove(rec.FilePath); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to remove recording",
				zap.Uint("callId", rec.ID), zap.String("file", rec.FilePath), zap.Error(err))
		}
	}
}
