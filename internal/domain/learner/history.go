package learner

import "time"

// ══════════════════════════════════════════════════════════════════════════════
// CONVERSATION HISTORY
// Журнал диалога: события пользователя и ответы бота в порядке поступления.
// ══════════════════════════════════════════════════════════════════════════════

// HistoryLimit - максимальное количество записей журнала, сохраняемых
// при записи профиля. Старые записи отбрасываются первыми.
const HistoryLimit = 50

// EventKind определяет тип записи журнала.
type EventKind string

const (
	// EventUserMessage - входящее сообщение пользователя.
	EventUserMessage EventKind = "user_message"
	// EventBotResponse - ответ бота.
	EventBotResponse EventKind = "bot_response"
)

// Event - одна запись журнала диалога.
type Event struct {
	// Kind - тип записи.
	Kind EventKind `json:"kind"`

	// Timestamp - время события.
	Timestamp time.Time `json:"timestamp"`

	// Text - текст сообщения или ответа.
	Text string `json:"text"`

	// DetectedLanguage - детектированный язык (только для user_message).
	DetectedLanguage LanguageCode `json:"detected_language,omitempty"`

	// Confidence - уверенность детекции (только для user_message).
	Confidence Confidence `json:"confidence,omitempty"`

	// ResponseLanguage - язык ответа (только для bot_response).
	ResponseLanguage LanguageCode `json:"response_language,omitempty"`
}

// History - упорядоченный журнал диалога (старые записи первыми).
type History []Event

// AppendUserMessage добавляет запись о входящем сообщении.
func (h *History) AppendUserMessage(at time.Time, text string, lang LanguageCode, conf Confidence) {
	*h = append(*h, Event{
		Kind:             EventUserMessage,
		Timestamp:        at.UTC(),
		Text:             text,
		DetectedLanguage: lang,
		Confidence:       conf,
	})
}

// AppendBotResponse добавляет запись об ответе бота.
func (h *History) AppendBotResponse(at time.Time, text string, lang LanguageCode) {
	*h = append(*h, Event{
		Kind:             EventBotResponse,
		Timestamp:        at.UTC(),
		Text:             text,
		ResponseLanguage: lang,
	})
}

// Truncated возвращает последние limit записей в исходном порядке.
// Вызывается хранилищем перед записью профиля.
func (h History) Truncated(limit int) History {
	if limit <= 0 || len(h) <= limit {
		return h
	}
	out := make(History, limit)
	copy(out, h[len(h)-limit:])
	return out
}

// Clone создаёт копию журнала.
func (h History) Clone() History {
	if h == nil {
		return nil
	}
	out := make(History, len(h))
	copy(out, h)
	return out
}
