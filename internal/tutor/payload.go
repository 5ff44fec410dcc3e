// Package tutor holds the contract between the chat proxy and the language
// model: the directive that asks for a JSON reply and the two ways of reading
// that reply back (best-effort while streaming, strict once complete).
package tutor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/MikeSquared-Agency/lingo/internal/language"
)

var ErrMalformedPayload = errors.New("malformed structured payload")

// Payload is the parsed form of one assistant turn. It is never stored as-is.
type Payload struct {
	ChatResponse   string  `json:"chatResponse"`
	SentenceToSave *string `json:"sentenceToSave"`
	Category       *string `json:"category"`
}

// HistoryDraft is a learning-history entry waiting to be written.
type HistoryDraft struct {
	Sentence string
	Category string
	Language language.Tag
}

type rawPayload struct {
	ChatResponse   *string `json:"chatResponse"`
	SentenceToSave *string `json:"sentenceToSave"`
	Category       *string `json:"category"`
}

// ParseStructuredPayload parses the complete model output. It is called once
// per turn, after the stream has ended.
func ParseStructuredPayload(complete string) (Payload, error) {
	var raw rawPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(complete)), &raw); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if raw.ChatResponse == nil || *raw.ChatResponse == "" {
		return Payload{}, fmt.Errorf("%w: missing chatResponse", ErrMalformedPayload)
	}
	return Payload{
		ChatResponse:   *raw.ChatResponse,
		SentenceToSave: raw.SentenceToSave,
		Category:       raw.Category,
	}, nil
}

// TryExtractDisplayText returns chatResponse when partial is already a
// complete payload and partial itself otherwise. It never fails.
func TryExtractDisplayText(partial string) string {
	if !gjson.Valid(partial) {
		return partial
	}
	doc := gjson.Parse(partial)
	if !doc.IsObject() {
		return partial
	}
	if r := doc.Get("chatResponse"); r.Type == gjson.String && r.Str != "" {
		return r.Str
	}
	return partial
}

// HistoryDraft reports the history entry this payload asks for. Both the
// sentence and the category must be present.
func (p Payload) HistoryDraft(tag language.Tag) (HistoryDraft, bool) {
	if p.SentenceToSave == nil || p.Category == nil {
		return HistoryDraft{}, false
	}
	if *p.SentenceToSave == "" || *p.Category == "" {
		return HistoryDraft{}, false
	}
	return HistoryDraft{
		Sentence: *p.SentenceToSave,
		Category: *p.Category,
		Language: tag,
	}, true
}
