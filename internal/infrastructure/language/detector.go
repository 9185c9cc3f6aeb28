// Package language implements statistical language detection for incoming
// messages. Detection feeds the routing policy only: the confidence score is
// a deterministic length heuristic, not a calibrated probability, and callers
// must treat it as a relative signal.
package language

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/pemistahl/lingua-go"

	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/domain/learner"
)

// ══════════════════════════════════════════════════════════════════════════════
// DETECTION CONSTANTS
// ══════════════════════════════════════════════════════════════════════════════

const (
	// MinDetectionLength is the minimum trimmed text length (in runes) for
	// which detection is attempted at all.
	MinDetectionLength = 3

	// ShortTextConfidence is the fixed confidence for trivially short input.
	ShortTextConfidence learner.Confidence = 0.5

	// FailureConfidence is the fixed low confidence when the text cannot be
	// classified.
	FailureConfidence learner.Confidence = 0.3

	// Confidence is asserted from text length: clamp(len/100, min, max).
	// Longer text yields a higher asserted confidence.
	confidenceDivisor = 100.0
	minConfidence     learner.Confidence = 0.6
	maxConfidence     learner.Confidence = 0.9
)

// ══════════════════════════════════════════════════════════════════════════════
// DETECTOR
// ══════════════════════════════════════════════════════════════════════════════

// Detector classifies message text into a language code with a heuristic
// confidence. It never fails: unclassifiable input degrades to the default
// language with low confidence.
type Detector struct {
	detector lingua.LanguageDetector
	logger   *slog.Logger
}

// NewDetector builds a detector over the supported language set.
func NewDetector(logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}

	languages := []lingua.Language{
		lingua.English, lingua.Spanish, lingua.French, lingua.German,
		lingua.Italian, lingua.Portuguese, lingua.Dutch, lingua.Polish,
		lingua.Russian, lingua.Ukrainian, lingua.Turkish, lingua.Arabic,
		lingua.Hindi, lingua.Chinese, lingua.Japanese, lingua.Korean,
		lingua.Indonesian, lingua.Malay, lingua.Bokmal, lingua.Nynorsk,
	}

	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(languages...).
			Build(),
		logger: logger.With("component", "language_detector"),
	}
}

// Detect returns the best-guess language code and a confidence score for the
// given text. The contract never propagates an error to the caller:
//
//   - trimmed text shorter than MinDetectionLength runes: default language,
//     confidence 0.5, detection not attempted;
//   - classifiable text: normalized code, confidence clamp(len/100, 0.6, 0.9);
//   - unclassifiable text: default language, confidence 0.3.
func (d *Detector) Detect(text string) (learner.LanguageCode, learner.Confidence) {
	trimmed := strings.TrimSpace(text)
	length := utf8.RuneCountInString(trimmed)

	if length < MinDetectionLength {
		return learner.DefaultLanguage, ShortTextConfidence
	}

	detected, ok := d.detector.DetectLanguageOf(trimmed)
	if !ok {
		d.logger.Warn("text not classifiable, falling back to default language",
			"text_length", length)
		return learner.DefaultLanguage, FailureConfidence
	}

	code := normalizeCode(strings.ToLower(detected.IsoCode639_1().String()))
	return code, lengthConfidence(length)
}

// lengthConfidence computes the asserted confidence from text length.
func lengthConfidence(length int) learner.Confidence {
	c := learner.Confidence(float64(length) / confidenceDivisor)
	if c < minConfidence {
		return minConfidence
	}
	if c > maxConfidence {
		return maxConfidence
	}
	return c
}

// normalizeCode collapses detector code aliases onto canonical codes so the
// rest of the system deals with one code per language:
//
//   - the two written Norwegian variants ("nb", "nn") collapse to "no";
//   - Malay ("ms") is mapped onto Indonesian ("id") - downstream handling
//     treats them as one language.
func normalizeCode(code string) learner.LanguageCode {
	switch code {
	case "nb", "nn":
		return "no"
	case "ms":
		return "id"
	default:
		return learner.LanguageCode(code)
	}
}
