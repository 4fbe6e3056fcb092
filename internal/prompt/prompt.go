package prompt

import (
	"fmt"

	"docent.chat/docent/internal/model"
)

// documentTemplate wraps an uploaded document's text into the system message
// for a turn. The document text is embedded verbatim, untruncated.
const documentTemplate = "The user has uploaded a file with the following content:\n\n%s\n\nPlease consider this information when responding to their query."

// summaryInstruction prefixes document summarization requests.
const summaryInstruction = "Summarize the following text:\n\n"

// summaryInputLimit caps how much of a document is sent for summarization.
const summaryInputLimit = 3000 // runes

// Messages assembles the outbound messages for a single turn. With a
// document in context the result is [system, user]; without one it is
// [user] alone. The utterance passes through unmodified, and no prior
// conversation history is replayed.
func Messages(utterance, document string) []model.Message {
	if document == "" {
		return []model.Message{
			{Role: model.RoleUser, Content: utterance},
		}
	}
	return []model.Message{
		{Role: model.RoleSystem, Content: fmt.Sprintf(documentTemplate, document)},
		{Role: model.RoleUser, Content: utterance},
	}
}

// Summary builds the utterance asking for a summary of the document text.
// Only the first 3000 runes of the document are included.
func Summary(document string) string {
	runes := []rune(document)
	if len(runes) > summaryInputLimit {
		runes = runes[:summaryInputLimit]
	}
	return summaryInstruction + string(runes)
}
