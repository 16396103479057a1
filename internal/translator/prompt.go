package translator

import "fmt"

var languageNames = map[string]string{
	"en": "English",
	"ar": "Arabic",
}

func languageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}

// systemPrompt is shared by the LLM-backed services.
func systemPrompt(sourceLang, targetLang string) string {
	return fmt.Sprintf("You are a professional translator. Translate the user's text from %s to %s.\n"+
		"Only respond with the translation, nothing else. No explanations, no quotes, no notes. "+
		"Keep numbers, names and line structure unchanged.",
		languageName(sourceLang), languageName(targetLang))
}
