package learner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHistory_AppendKeepsOrder(t *testing.T) {
	var h History
	now := time.Now()

	h.AppendUserMessage(now, "hola", "es", 0.8)
	h.AppendBotResponse(now, "¡Hola!", "es")

	assert.Len(t, h, 2)
	assert.Equal(t, EventUserMessage, h[0].Kind)
	assert.Equal(t, "hola", h[0].Text)
	assert.Equal(t, LanguageCode("es"), h[0].DetectedLanguage)
	assert.Equal(t, Confidence(0.8), h[0].Confidence)
	assert.Equal(t, EventBotResponse, h[1].Kind)
	assert.Equal(t, LanguageCode("es"), h[1].ResponseLanguage)
}

func TestHistory_Truncated(t *testing.T) {
	var h History
	now := time.Now()
	for i := 0; i < 60; i++ {
		h.AppendUserMessage(now, "msg", "en", 0.5)
	}

	truncated := h.Truncated(HistoryLimit)
	assert.Len(t, truncated, HistoryLimit)

	// Shorter histories come back untouched.
	short := History{{Kind: EventUserMessage, Text: "only"}}
	assert.Equal(t, short, short.Truncated(HistoryLimit))
}

func TestHistory_Truncated_KeepsNewest(t *testing.T) {
	var h History
	now := time.Now()
	h.AppendUserMessage(now, "oldest", "en", 0.5)
	h.AppendUserMessage(now, "middle", "en", 0.5)
	h.AppendUserMessage(now, "newest", "en", 0.5)

	truncated := h.Truncated(2)
	assert.Len(t, truncated, 2)
	assert.Equal(t, "middle", truncated[0].Text)
	assert.Equal(t, "newest", truncated[1].Text)
}

func TestHistory_Truncated_NonPositiveLimit(t *testing.T) {
	h := History{{Text: "a"}, {Text: "b"}}
	assert.Equal(t, h, h.Truncated(0))
	assert.Equal(t, h, h.Truncated(-1))
}
