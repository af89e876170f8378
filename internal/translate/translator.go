package translate

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vidbrief/vidbrief/internal/transcribe"
)

// Generator is the translation collaborator. maxLength bounds the output;
// implementations own their context ceiling and retry policy.
type Generator interface {
	Translate(ctx context.Context, text string, maxLength int) (string, error)
}

// chunkCharBudget is the character budget per translation chunk. The
// translation collaborator's real context ceiling is smaller than the
// summarization one, so this layer is deliberately stricter and counts
// characters rather than estimated tokens.
const chunkCharBudget = 400

const (
	sentenceSep  = ". "
	bulletPrefix = "• "
)

// Translator translates text to English on a best-effort basis.
//
// Unlike summarization, translation never fails upward: a collaborator
// failure degrades to the original text for the affected chunk, because an
// untranslated summary is still worth delivering.
type Translator struct {
	gen        Generator
	charBudget int
	log        logrus.FieldLogger
}

// Option configures a Translator.
type Option func(*Translator)

// WithCharBudget sets the per-chunk character budget.
func WithCharBudget(n int) Option {
	return func(t *Translator) {
		if n > 0 {
			t.charBudget = n
		}
	}
}

// WithLogger sets the logger used to report degraded translations.
func WithLogger(log logrus.FieldLogger) Option {
	return func(t *Translator) {
		if log != nil {
			t.log = log
		}
	}
}

// NewTranslator creates a Translator using the given collaborator.
func NewTranslator(gen Generator, opts ...Option) *Translator {
	t := &Translator{
		gen:        gen,
		charBudget: chunkCharBudget,
		log:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ToEnglish translates text to English. It never returns an error: chunks
// whose translation fails keep their original text.
//
// Texts within the character budget translate in a single call; longer
// texts are split at sentence boundaries, translated chunk by chunk, and
// joined with single spaces. If the source contained bullet markers the
// output is re-bulleted, splitting on plain periods since translation may
// not preserve the original ". " delimiter form.
func (t *Translator) ToEnglish(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	var translated string
	if len(text) <= t.charBudget {
		translated = t.translateChunk(ctx, text)
	} else {
		chunks := SplitSentences(text, t.charBudget)
		parts := make([]string, 0, len(chunks))
		for _, chunk := range chunks {
			parts = append(parts, t.translateChunk(ctx, chunk))
		}
		translated = strings.Join(parts, " ")
	}

	if strings.Contains(text, bulletPrefix) {
		return rebullet(translated)
	}
	return translated
}

// translateChunk translates one chunk, degrading to the original text on
// collaborator failure.
func (t *Translator) translateChunk(ctx context.Context, chunk string) string {
	out, err := t.gen.Translate(ctx, chunk, t.charBudget)
	if err != nil {
		t.log.WithError(err).WithField("chars", len(chunk)).
			Warn("translation degraded, keeping original text")
		return chunk
	}
	return out
}

// SegmentTranslation pairs a transcript segment with its translated text.
type SegmentTranslation struct {
	Segment    transcribe.Segment `json:"segment"`
	Translated string             `json:"translated_text"`
}

// Segments translates each segment's text independently, preserving order.
// Per-segment failures degrade to the original segment text.
func (t *Translator) Segments(ctx context.Context, segments []transcribe.Segment) []SegmentTranslation {
	out := make([]SegmentTranslation, len(segments))
	for i, seg := range segments {
		out[i] = SegmentTranslation{
			Segment:    seg,
			Translated: t.ToEnglish(ctx, seg.Text),
		}
	}
	return out
}

// SplitSentences splits text into chunks of at most budget characters,
// breaking only at ". " sentence boundaries. A single sentence longer than
// the budget still gets its own chunk.
func SplitSentences(text string, budget int) []string {
	sentences := strings.Split(text, sentenceSep)

	var chunks []string
	var current string

	for _, sentence := range sentences {
		if current == "" {
			current = sentence
			continue
		}
		if len(current)+len(sentenceSep)+len(sentence) > budget {
			chunks = append(chunks, current)
			current = sentence
			continue
		}
		current += sentenceSep + sentence
	}
	if current != "" {
		chunks = append(chunks, current)
	}

	return chunks
}

// rebullet reformats translated text as a bullet list, splitting on plain
// periods because translation output rarely keeps exact ". " sequences.
func rebullet(text string) string {
	var bullets []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimPrefix(strings.TrimSpace(line), bulletPrefix)
		for _, candidate := range strings.Split(line, ".") {
			candidate = strings.TrimSpace(candidate)
			if candidate == "" {
				continue
			}
			bullets = append(bullets, candidate)
		}
	}
	if len(bullets) == 0 {
		return text
	}
	return bulletPrefix + strings.Join(bullets, "\n"+bulletPrefix)
}
