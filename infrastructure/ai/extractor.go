// Package ai calls the model that reads scanned letters and returns structured
// metadata. Calls run behind a circuit breaker with capped exponential retry;
// persistent failure surfaces to the caller so the draft can be marked failed
// instead of losing the upload.
package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"holdthatthought-backend/application/ports"
	"holdthatthought-backend/domain/entities"
	apperrors "holdthatthought-backend/pkg/errors"
)

const extractionSystemPrompt = `You are an archivist transcribing family letters.
Given the pages of a scanned letter, return a JSON object with these fields:
title, author, recipient, date, description, transcription, tags (array of
strings). Transcribe the letter text faithfully. Use the date written in the
letter if present. Leave a field empty when the letter does not show it.`

// Extractor implements ports.Extractor against the OpenAI chat API
type Extractor struct {
	client         *openai.Client
	model          string
	maxAttempts    int
	attemptTimeout time.Duration
	breaker        *gobreaker.CircuitBreaker
	logger         *zap.Logger
}

// NewExtractor creates an extractor. maxAttempts bounds the retry loop,
// attemptTimeout bounds each individual model call.
func NewExtractor(client *openai.Client, model string, maxAttempts int, attemptTimeout time.Duration, logger *zap.Logger) ports.Extractor {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "letter-extraction",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Extractor{
		client:         client,
		model:          model,
		maxAttempts:    maxAttempts,
		attemptTimeout: attemptTimeout,
		breaker:        cb,
		logger:         logger,
	}
}

// Extract sends the merged document to the model and parses the structured
// reply. Transient failures retry with exponential backoff up to maxAttempts;
// anything else fails immediately.
func (e *Extractor) Extract(ctx context.Context, doc *entities.Document) (*ports.ExtractionResult, error) {
	var result *ports.ExtractionResult
	attempt := 0

	policy := backoff.WithContext(backoff.WithMaxRetries(
		backoff.NewExponentialBackOff(),
		uint64(e.maxAttempts-1),
	), ctx)

	operation := func() error {
		attempt++
		res, err := e.callOnce(ctx, doc)
		if err != nil {
			if !isTransient(err) {
				return backoff.Permanent(err)
			}
			e.logger.Warn("Extraction attempt failed",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}
		result = res
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, apperrors.NewExternalError("letter extraction", err)
	}
	return result, nil
}

func (e *Extractor) callOnce(ctx context.Context, doc *entities.Document) (*ports.ExtractionResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.attemptTimeout)
	defer cancel()

	res, err := e.breaker.Execute(func() (interface{}, error) {
		return e.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model: e.model,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: extractionSystemPrompt},
				e.userMessage(doc),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	completion := res.(openai.ChatCompletionResponse)
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("model returned no choices")
	}

	var parsed ports.ExtractionResult
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("model reply is not valid JSON: %w", err)
	}
	return &parsed, nil
}

// userMessage builds a multimodal message: the text pages inline, the image
// pages as data URLs
func (e *Extractor) userMessage(doc *entities.Document) openai.ChatCompletionMessage {
	images := doc.ImagePages()
	text := doc.Text()

	if len(images) == 0 {
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: text,
		}
	}

	parts := make([]openai.ChatMessagePart, 0, len(images)+1)
	if text != "" {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeText,
			Text: text,
		})
	}
	for _, page := range images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL: fmt.Sprintf("data:%s;base64,%s",
					page.MediaType,
					base64.StdEncoding.EncodeToString(page.Content),
				),
			},
		})
	}

	return openai.ChatCompletionMessage{
		Role:         openai.ChatMessageRoleUser,
		MultiContent: parts,
	}
}

// isTransient classifies an extraction failure as retryable. Rate limits,
// server errors, timeouts and an open breaker are transient; bad requests and
// malformed replies are not.
func isTransient(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}

	// Connection level failures from the HTTP client
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connection reset")
}
