package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sjawhar/voicebrief/internal/llm"
)

// NoSpeech is the fixed result for an empty transcript. It is produced
// without touching the provider: empty input is a known-empty result, not an
// error.
const NoSpeech = "no speech detected"

// ErrSummarizationFailed is the single error shape callers see when the
// provider call fails, whatever the underlying cause.
var ErrSummarizationFailed = errors.New("failed to generate summary")

const systemPrompt = "You summarize dictated speech. Reply with exactly one short line " +
	"describing what was said. No markdown, no preamble, no quotes."

// ClientFactory builds the provider client on demand so a misconfigured key
// surfaces as a summarization failure, not a startup crash.
type ClientFactory func() (llm.Client, error)

// Summarizer wraps the external text-generation call behind the one-line
// summary contract.
type Summarizer struct {
	factory ClientFactory
	sleep   func(time.Duration)
}

func New(factory ClientFactory) *Summarizer {
	return &Summarizer{
		factory: factory,
		sleep:   time.Sleep,
	}
}

// Summarize reduces a transcript to a single line. Provider failures are
// retried with backoff, then collapsed into ErrSummarizationFailed.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return NoSpeech, nil
	}

	client, err := s.factory()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSummarizationFailed, err)
	}

	prompt := llm.Prompt{
		System: systemPrompt,
		User:   "Summarize in one line:\n\n" + transcript,
	}

	backoff := []time.Duration{1 * time.Second, 4 * time.Second}
	var lastErr error
	for attempt := 0; attempt <= len(backoff); attempt++ {
		result, err := client.Complete(ctx, prompt)
		if err == nil {
			return firstLine(result), nil
		}

		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt < len(backoff) {
			s.sleep(backoff[attempt])
		}
	}

	return "", fmt.Errorf("%w: %v", ErrSummarizationFailed, lastErr)
}

// firstLine trims the result to one line; models occasionally wrap or pad
// despite the instruction.
func firstLine(text string) string {
	trimmed := strings.TrimSpace(text)
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		trimmed = strings.TrimSpace(trimmed[:idx])
	}
	return trimmed
}
