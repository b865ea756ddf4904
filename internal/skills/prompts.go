package skills

import "strings"

// Intent labels the classifier may assign. Anything outside this set is
// coerced to the general label before routing decisions are made.
const (
	IntentProduct   = "Product Inquiry"
	IntentService   = "Service Inquiry"
	IntentPricing   = "Pricing"
	IntentDemo      = "Schedule Demo"
	IntentObjection = "Objection"
	IntentGeneral   = "General Query"
)

var intentLabels = []string{
	IntentProduct,
	IntentService,
	IntentPricing,
	IntentDemo,
	IntentObjection,
	IntentGeneral,
}

func intentPrompt(message string) string {
	return strings.Join([]string{
		"You are an intent classifier for a B2B software vendor's website chat.",
		"Classify the visitor message into exactly one of these labels:",
		strings.Join(intentLabels, ", ") + ".",
		"Return only the label, nothing else.",
		"",
		"Visitor message: ```" + message + "```",
	}, "\n")
}

func greetingPrompt(message string) string {
	return strings.Join([]string{
		"You are a friendly assistant on a B2B software vendor's website.",
		"This is the visitor's first message. Greet them warmly in one or two",
		"sentences, acknowledge what they wrote, and invite them to ask about",
		"products, services, or a demo. Do not invent product claims.",
		"",
		"Visitor message: ```" + message + "```",
	}, "\n")
}

func salesPrompt(message, summary string, chunks []string) string {
	parts := []string{
		"You are a knowledgeable, low-pressure sales assistant for a B2B",
		"software vendor. Answer the visitor's question using ONLY the context",
		"below. If the context does not cover the question, say so briefly and",
		"offer to connect them with the team. Keep replies under 120 words.",
	}
	if summary != "" {
		parts = append(parts, "", "Conversation so far: "+summary)
	}
	if len(chunks) > 0 {
		parts = append(parts, "", "Context:")
		for _, c := range chunks {
			parts = append(parts, "- "+c)
		}
	}
	parts = append(parts, "", "Visitor message: ```"+message+"```")
	return strings.Join(parts, "\n")
}

func objectionPrompt(message, summary string) string {
	parts := []string{
		"You are a calm, empathetic sales assistant. The visitor has raised a",
		"concern or objection. Acknowledge it, address it honestly in two or",
		"three sentences, and offer a concrete next step. Never argue and",
		"never overpromise.",
	}
	if summary != "" {
		parts = append(parts, "", "Conversation so far: "+summary)
	}
	parts = append(parts, "", "Visitor message: ```"+message+"```")
	return strings.Join(parts, "\n")
}

func summaryPrompt(transcript string) string {
	return strings.Join([]string{
		"Summarize the following website-chat conversation in at most three",
		"sentences. Keep the visitor's goal and any commitments made. Return",
		"only the summary.",
		"",
		transcript,
	}, "\n")
}
