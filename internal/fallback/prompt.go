package fallback

import (
	"strings"

	"beautybot/internal/history"
	"beautybot/internal/llm"
)

const persona = "You are BeautyBot, a friendly and knowledgeable assistant for an online skincare store."

// BuildMessages assembles the model prompt: persona, shop policy, prior turns
// in order, then the current question.
func BuildMessages(products []string, recent []history.Turn, utterance string) []llm.Message {
	msgs := make([]llm.Message, 0, 3+2*len(recent))
	msgs = append(msgs,
		llm.Message{Role: llm.RoleSystem, Content: persona},
		llm.Message{Role: llm.RoleSystem, Content: policy(products)},
	)
	for _, t := range recent {
		msgs = append(msgs,
			llm.Message{Role: llm.RoleUser, Content: t.User},
			llm.Message{Role: llm.RoleAssistant, Content: t.Bot},
		)
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: utterance})
	return msgs
}

func policy(products []string) string {
	var b strings.Builder
	b.WriteString("Rules:\n")
	b.WriteString("- Only recommend products from this list: ")
	if len(products) == 0 {
		b.WriteString("(none)")
	} else {
		b.WriteString(strings.Join(products, ", "))
	}
	b.WriteString(".\n")
	b.WriteString("- Keep answers short: at most 3 sentences.\n")
	b.WriteString("- Do not invent order numbers, prices or delivery dates.\n")
	b.WriteString("- To buy, tell the customer to say 'order [product name]'.")
	return b.String()
}
