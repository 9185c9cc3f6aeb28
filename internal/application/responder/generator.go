// Package responder generates educational replies for learner questions.
// The primary path calls an LLM provider; when the provider is unavailable or
// fails, rule-based templates take over, translated into the learner's
// response language. Generation degrades, it never fails the message.
package responder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/domain/learner"
)

// Provider is an LLM completion backend.
type Provider interface {
	// Available reports whether the provider is configured and usable.
	Available() bool

	// Complete returns a completion for the system prompt and user question.
	Complete(ctx context.Context, systemPrompt, userText string) (string, error)
}

// Translator translates text between two language codes.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Generator produces a reply for a learner question, routed to the learner's
// response language.
type Generator struct {
	provider   Provider
	translator Translator
	logger     *slog.Logger
}

// NewGenerator creates a response generator.
func NewGenerator(provider Provider, translator Translator, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		provider:   provider,
		translator: translator,
		logger:     logger.With("component", "responder"),
	}
}

// Generate builds a reply for the question and returns it together with the
// response language. The language is computed once from the profile and used
// for both the LLM instruction and the fallback translation target.
func (g *Generator) Generate(ctx context.Context, profile *learner.Profile, question string) (string, learner.LanguageCode) {
	responseLang := profile.ResponseLanguage()

	if g.provider != nil && g.provider.Available() {
		reply, err := g.provider.Complete(ctx, buildSystemPrompt(profile, responseLang), question)
		if err == nil {
			return reply, responseLang
		}
		g.logger.Error("llm completion failed, falling back to templates",
			"user_id", int64(profile.UserID),
			"error", err,
		)
	}

	return g.fallback(ctx, profile, question, responseLang), responseLang
}

// fallback returns a rule-based reply, translated into the response language
// when it differs from the default. A failed translation degrades to the
// untranslated template.
func (g *Generator) fallback(ctx context.Context, profile *learner.Profile, question string, responseLang learner.LanguageCode) string {
	reply := RuleBasedResponse(question, profile.Difficulty)

	if responseLang.IsDefault() || g.translator == nil {
		return reply
	}

	translated, err := g.translator.Translate(ctx, reply, learner.DefaultLanguage.String(), responseLang.String())
	if err != nil {
		g.logger.Error("fallback translation failed, replying in default language",
			"user_id", int64(profile.UserID),
			"target_language", responseLang.String(),
			"error", err,
		)
		return reply
	}

	return translated
}

// buildSystemPrompt renders the tutoring instruction for the LLM from the
// learner's profile.
func buildSystemPrompt(profile *learner.Profile, responseLang learner.LanguageCode) string {
	prompt := fmt.Sprintf(`You are an expert teacher and tutor. Your student has these characteristics:
- Difficulty level: %s
- Learning style: %s
- Learning goals: %s

Provide educational responses that:
1. Match the student's difficulty level (%s)
2. Use their preferred learning style (%s)
3. Include examples and analogies appropriate for their level
4. Break down complex concepts into digestible parts
5. Encourage questions and curiosity
6. Offer practice opportunities when relevant
7. Use emojis strategically for engagement
8. Keep responses concise but comprehensive for Telegram

For difficulty levels:
- Beginner: Use simple language, analogies, step-by-step explanations
- Intermediate: Balance detail with clarity, provide examples
- Advanced: Use technical language, explore deeper concepts

For learning styles:
- Visual: Use descriptions, step-by-step lists, structured formatting
- Auditory: Conversational tone, explanations through dialogue
- Kinesthetic: Hands-on examples, practical applications
- Balanced: Mix of all approaches

Be encouraging, patient, and adapt your explanations accordingly.`,
		profile.Difficulty,
		profile.Style,
		strings.Join(profile.LearningGoals, ", "),
		profile.Difficulty,
		profile.Style,
	)

	if !responseLang.IsDefault() {
		prompt += fmt.Sprintf("\n\nRespond in the language with ISO 639-1 code %q.", responseLang.String())
	}

	return prompt
}
