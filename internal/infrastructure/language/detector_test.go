package language

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/domain/learner"
)

func TestDetect_ShortTextSkipsDetection(t *testing.T) {
	d := NewDetector(nil)

	for _, text := range []string{"", "  ", "hi", " ok "} {
		code, conf := d.Detect(text)
		assert.Equal(t, learner.DefaultLanguage, code, "text: %q", text)
		assert.Equal(t, ShortTextConfidence, conf, "text: %q", text)
	}
}

func TestDetect_English(t *testing.T) {
	d := NewDetector(nil)

	code, conf := d.Detect("Could you explain how photosynthesis works in simple terms?")
	assert.Equal(t, learner.LanguageCode("en"), code)
	assert.GreaterOrEqual(t, float64(conf), 0.6)
	assert.LessOrEqual(t, float64(conf), 0.9)
}

func TestDetect_Spanish(t *testing.T) {
	d := NewDetector(nil)

	code, _ := d.Detect("¿Podrías explicarme cómo funciona la fotosíntesis, por favor?")
	assert.Equal(t, learner.LanguageCode("es"), code)
}

func TestDetect_Russian(t *testing.T) {
	d := NewDetector(nil)

	code, _ := d.Detect("Объясни, пожалуйста, как работает фотосинтез у растений")
	assert.Equal(t, learner.LanguageCode("ru"), code)
}

func TestDetect_UnclassifiableTextFallsBackToDefault(t *testing.T) {
	d := NewDetector(nil)

	// No letters at all: long enough to attempt detection, impossible to
	// classify.
	for _, text := range []string{"1234567890", "!?!? ... 42"} {
		code, conf := d.Detect(text)
		assert.Equal(t, learner.DefaultLanguage, code, "text: %q", text)
		assert.Equal(t, FailureConfidence, conf, "text: %q", text)
	}
}

func TestLengthConfidence_Clamping(t *testing.T) {
	assert.Equal(t, minConfidence, lengthConfidence(3))
	assert.Equal(t, minConfidence, lengthConfidence(60))
	assert.Equal(t, learner.Confidence(0.75), lengthConfidence(75))
	assert.Equal(t, maxConfidence, lengthConfidence(90))
	assert.Equal(t, maxConfidence, lengthConfidence(500))
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, learner.LanguageCode("no"), normalizeCode("nb"))
	assert.Equal(t, learner.LanguageCode("no"), normalizeCode("nn"))
	assert.Equal(t, learner.LanguageCode("id"), normalizeCode("ms"))
	assert.Equal(t, learner.LanguageCode("fr"), normalizeCode("fr"))
}
