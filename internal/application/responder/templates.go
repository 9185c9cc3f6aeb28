package responder

import (
	"fmt"
	"strings"

	"github.com/polyglot-tutor/polyglot-tutor-bot/internal/domain/learner"
)

// ══════════════════════════════════════════════════════════════════════════════
// RULE-BASED RESPONSE TEMPLATES
// Deterministic fallback replies used when the LLM provider is unavailable.
// The templates are authored in the default language and translated downstream.
// ══════════════════════════════════════════════════════════════════════════════

// explainTriggers are substrings that route a question to the explanation
// templates instead of the generic clarifying reply.
var explainTriggers = []string{"what is", "explain"}

const beginnerExplainTemplate = `
📚 **Great question!** Let me explain this in simple terms:

%s is a concept that...

🔍 **Simple explanation:**
Think of it like... (analogy)

📝 **Key points to remember:**
• Point 1
• Point 2
• Point 3

❓ **Want to explore more?** Ask me:
• "Can you give me an example?"
• "How is this used in real life?"
• "What's the next step to learn?"
`

const advancedExplainTemplate = `
🎓 **Excellent question!** Here's a detailed explanation:

%s involves several important concepts...

🧠 **Core principles:**
The fundamental idea is...

🔬 **Advanced concepts:**
This connects to...

💡 **Practical applications:**
You'll see this used in...

🚀 **Ready for the next level?** Try asking about related topics or request practice problems!
`

const clarifyTemplate = `
🤔 **Interesting question!** I'd love to help you learn about this.

Could you be more specific about what aspect you'd like to understand? For example:
• Are you looking for a basic explanation?
• Do you want to see examples?
• Are you trying to solve a specific problem?

The more details you give me, the better I can tailor my explanation to your needs!

💡 **Tip:** Try starting your questions with phrases like "Explain...", "How does...", or "What is..."
`

// RuleBasedResponse builds a deterministic educational reply for the question.
// Explanation questions get a difficulty-dependent template; everything else
// gets a generic clarifying reply.
func RuleBasedResponse(question string, difficulty learner.Difficulty) string {
	lower := strings.ToLower(question)

	for _, trigger := range explainTriggers {
		if strings.Contains(lower, trigger) {
			if difficulty == learner.DifficultyBeginner {
				return fmt.Sprintf(beginnerExplainTemplate, question)
			}
			return fmt.Sprintf(advancedExplainTemplate, question)
		}
	}

	return clarifyTemplate
}
