package tutor

import (
	"fmt"

	"github.com/MikeSquared-Agency/lingo/internal/language"
)

const systemDirective = `You are a skilled language-learning partner. The user is currently studying %s.
Your task is to reply to the user's input and to pick out a sentence worth studying.
Always answer with exactly one JSON object in the following shape and nothing else:
{
  "chatResponse": "Your normal reply to the user. Put corrections and explanations here.",
  "sentenceToSave": "The single most useful example sentence to keep in the learning history: the corrected sentence or an example you offered. Use null when nothing is worth saving.",
  "category": "A short label for sentenceToSave such as greeting, question, request or feeling. Use null when sentenceToSave is null."
}`

// SystemDirective returns the fixed instruction sent ahead of every
// conversation for the given language.
func SystemDirective(tag language.Tag) string {
	return fmt.Sprintf(systemDirective, tag)
}
