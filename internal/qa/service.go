package qa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sashabaranov/go-openai"
	"github.com/travelops/callscore/internal/models"
	"github.com/travelops/callscore/pkg/config"
	"github.com/travelops/callscore/pkg/logger"
	"github.com/travelops/callscore/pkg/textchunk"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// apologyAnswer is returned whenever the provider fails mid-question;
// the operator gets a stable string instead of an error page.
const apologyAnswer = "Error generating answer."

var latinQuestion = regexp.MustCompile(`^[a-zA-Z0-9\s.,!?'"()-]+$`)

// Embedder produces an embedding vector for one input.
type Embedder interface {
	Embed(ctx context.Context, model, input string) ([]float64, error)
}

// Completer runs a chat completion.
type Completer interface {
	Complete(ctx context.Context, model string, messages []openai.ChatCompletionMessage) (string, error)
}

// Service builds per-call embedding indexes and answers questions over
// them with cosine-similarity retrieval.
type Service struct {
	db        *gorm.DB
	cfg       *config.Config
	embedder  Embedder
	completer Completer

	// Query embeddings are cached briefly so repeated questions skip
	// the embedding call.
	queryCache *gocache.Cache
}

func NewService(db *gorm.DB, cfg *config.Config, embedder Embedder, completer Completer) *Service {
	return &Service{
		db:         db,
		cfg:        cfg,
		embedder:   embedder,
		completer:  completer,
		queryCache: gocache.New(10*time.Minute, 30*time.Minute),
	}
}

// BuildIndex splits the transcript into overlapping chunks, embeds
// each one and stores the result on the record. A chunk whose
// embedding call fails is skipped; the build only fails when nothing
// could be embedded.
func (s *Service) BuildIndex(ctx context.Context, rec *models.CallRecord) error {
	spans := textchunk.Split(rec.Transcription, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
	if len(spans) == 0 {
		logger.Info("no transcript text to index, skipping",
			zap.Uint("callId", rec.ID))
		return nil
	}

	chunks := make([]textchunk.Chunk, 0, len(spans))
	for i, span := range spans {
		vec, err := s.embedder.Embed(ctx, s.cfg.EmbeddingModel, span.Text)
		if err != nil {
			logger.Warn("chunk embedding failed, skipping",
				zap.Uint("callId", rec.ID), zap.Int("chunk", i), zap.Error(err))
			continue
		}
		chunks = append(chunks, textchunk.Chunk{Index: i, Text: span.Text, Embedding: vec})
	}
	if len(chunks) == 0 {
		return errors.New("embedding index build produced no chunks")
	}

	if err := s.db.Model(&models.CallRecord{}).
		Where("id = ?", rec.ID).
		Update("embeddings", models.EncodeJSON(chunks)).Error; err != nil {
		return err
	}

	logger.Info("embedding index built",
		zap.Uint("callId", rec.ID), zap.Int("chunks", len(chunks)))
	return nil
}

type scoredChunk struct {
	recordID uint
	text     string
	score    float64
}

// Ask answers a question over every indexed call of a ticket. The
// answer plus the transcript excerpts it was grounded in are persisted
// as a CallQA row.
func (s *Service) Ask(ctx context.Context, ticketCode, question string) (string, []string, error) {
	qvec, err := s.questionEmbedding(ctx, question)
	if err != nil {
		logger.Error("question embedding failed", zap.String("ticket", ticketCode), zap.Error(err))
		return apologyAnswer, nil, nil
	}

	contexts, callIDs := s.topContexts(ticketCode, qvec)

	answer, err := s.completer.Complete(ctx, s.cfg.ChatModel, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: s.answerSystemPrompt(question)},
		{Role: openai.ChatMessageRoleUser, Content: "Excerpts:\n" + strings.Join(contexts, "\n") + "\n\nQuestion: " + question},
	})
	if err != nil {
		logger.Error("answer completion failed", zap.String("ticket", ticketCode), zap.Error(err))
		answer = apologyAnswer
	}

	if err := s.db.Create(&models.CallQA{
		TicketCode: ticketCode,
		CallIDs:    models.EncodeJSON(callIDs),
		Question:   question,
		Answer:     answer,
		Context:    strings.Join(contexts, "\n"),
	}).Error; err != nil {
		logger.Warn("failed to persist QA row", zap.String("ticket", ticketCode), zap.Error(err))
	}

	return answer, contexts, nil
}

func (s *Service) questionEmbedding(ctx context.Context, question string) ([]float64, error) {
	if cached, ok := s.queryCache.Get(question); ok {
		return cached.([]float64), nil
	}
	vec, err := s.embedder.Embed(ctx, s.cfg.EmbeddingModel, question)
	if err != nil {
		return nil, err
	}
	s.queryCache.Set(question, vec, gocache.DefaultExpiration)
	return vec, nil
}

// topContexts ranks every stored chunk of the ticket's calls against
// the question vector and returns the citation lines for the best
// matches above the similarity threshold, plus the distinct call ids
// those lines came from.
func (s *Service) topContexts(ticketCode string, qvec []float64) ([]string, []uint) {
	var recs []models.CallRecord
	if err := s.db.Select("id", "embeddings").
		Where("ticket_code = ? AND embeddings <> ''", ticketCode).
		Find(&recs).Error; err != nil {
		logger.Warn("failed to load indexed calls", zap.String("ticket", ticketCode), zap.Error(err))
		return nil, nil
	}

	var scored []scoredChunk
	for _, rec := range recs {
		var chunks []textchunk.Chunk
		if err := decodeChunks(rec.Embeddings, &chunks); err != nil {
			continue
		}
		for _, ch := range chunks {
			score := textchunk.CosineSimilarity(qvec, ch.Embedding)
			if score >= s.cfg.QAThreshold {
				scored = append(scored, scoredChunk{recordID: rec.ID, text: ch.Text, score: score})
			}
		}
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	if len(scored) > s.cfg.QATopK {
		scored = scored[:s.cfg.QATopK]
	}

	contexts := make([]string, 0, len(scored))
	callIDs := make([]uint, 0, len(scored))
	seen := make(map[uint]bool)
	for _, sc := range scored {
		contexts = append(contexts, fmt.Sprintf("[%d] %s", sc.recordID, sc.text))
		if !seen[sc.recordID] {
			seen[sc.recordID] = true
			callIDs = append(callIDs, sc.recordID)
		}
	}
	return contexts, callIDs
}

func decodeChunks(raw string, out *[]textchunk.Chunk) error {
	if raw == "" {
		return errors.New("no chunks stored")
	}
	return json.Unmarshal([]byte(raw), out)
}

func (s *Service) answerSystemPrompt(question string) string {
	if latinQuestion.MatchString(question) {
		return qaSystemEnglish
	}
	return qaSystemHebrew
}
