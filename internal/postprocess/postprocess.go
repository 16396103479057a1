// Package postprocess removes common LLM artifacts from translation output.
//
// It is applied to the raw text returned by the LLM-backed engines (Ollama,
// OpenRouter, OpenAI) before the translation reaches the pipeline.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean strips reasoning blocks, prompt echoes in either language, stray
// bidirectional control marks and wrapping quotes, then trims the result.
func Clean(text string) string {
	text = removeThinkingBlocks(text)
	text = removeInstructionEchoes(text)
	text = removeBidiMarks(text)
	text = removeQuoteWrapping(text)
	return strings.TrimSpace(text)
}

// RE2 has no backreferences, so each tag pair is spelled out.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>`,
)

// An opened tag with no closing tag means the model was cut off mid-thought.
var truncatedThinkingRe = regexp.MustCompile(`(?is)(?:<thinking>|<think>|<reasoning>).*$`)

func removeThinkingBlocks(text string) string {
	text = thinkingBlockRe.ReplaceAllString(text, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// echoPatterns are anchored at the start and require a colon so that
// legitimate sentences beginning with the same words survive.
var echoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:(?:certainly|sure|of course)[,.]?\s+)?here(?:'s| is)(?: the)? (?:translated |arabic |english )?(?:translation|text)\s*:`),
	regexp.MustCompile(`(?i)^(?:the )?(?:arabic |english )?(?:translation|translated text)\s*:`),
	regexp.MustCompile(`^(?:إليك\s+)?(?:الترجمة|النص المترجم)\s*[:：]`),
}

func removeInstructionEchoes(text string) string {
	for _, re := range echoPatterns {
		if loc := re.FindStringIndex(text); loc != nil {
			text = strings.TrimSpace(text[loc[1]:])
		}
	}
	return text
}

// bidiMarks are invisible direction controls some models emit around
// Arabic output.
var bidiMarks = strings.NewReplacer(
	"\u200e", "", // LRM
	"\u200f", "", // RLM
	"\u202a", "", "\u202b", "", "\u202c", "", "\u202d", "", "\u202e", "",
	"\u2066", "", "\u2067", "", "\u2068", "", "\u2069", "",
)

func removeBidiMarks(text string) string {
	return bidiMarks.Replace(text)
}

var quotePairs = map[rune]rune{
	'"':      '"',
	'\'':     '\'',
	'\u00ab': '\u00bb', // « »
	'\u201c': '\u201d', // " "
	'\u2018': '\u2019', // ' '
}

// removeQuoteWrapping strips one matching pair of outer quotes when they
// wrap the entire text.
func removeQuoteWrapping(text string) string {
	runes := []rune(strings.TrimSpace(text))
	n := len(runes)
	if n < 2 {
		return text
	}
	if closing, ok := quotePairs[runes[0]]; ok && runes[n-1] == closing {
		return strings.TrimSpace(string(runes[1 : n-1]))
	}
	return text
}
