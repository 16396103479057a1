// Package validator checks that a translation result is in the expected target language.
package validator

import (
	"fmt"
	"strings"

	lingua "github.com/pemistahl/lingua-go"

	"github.com/valpere/tarjim/internal"
)

// minValidationLength is the minimum rune count required to attempt language detection.
// Shorter texts produce unreliable results and are accepted without validation.
const minValidationLength = 20

// Validator checks that a translation result is written in the expected target language.
// The underlying detector is expensive to build; reuse the instance.
type Validator struct {
	det lingua.LanguageDetector
}

// New creates a Validator backed by a lingua-go detector restricted to
// English and Arabic.
func New() *Validator {
	det := lingua.NewLanguageDetectorBuilder().
		FromLanguages(lingua.English, lingua.Arabic).
		Build()
	return &Validator{det: det}
}

// IsValid returns true when translatedText appears to be written in target.
//
// Short texts (fewer than minValidationLength runes) and texts whose language
// cannot be determined pass without error. When the detected language differs
// from target the returned error names both codes.
func (v *Validator) IsValid(translatedText string, target internal.Language) (bool, error) {
	if target == "" {
		return true, nil
	}

	text := strings.TrimSpace(translatedText)
	if text == "" {
		return false, fmt.Errorf("translation is empty")
	}

	if len([]rune(text)) < minValidationLength {
		return true, nil
	}

	lang, ok := v.det.DetectLanguageOf(text)
	if !ok {
		return true, nil
	}

	detected := toLanguage(lang)
	if detected != target {
		return false, fmt.Errorf("expected %s but detected %s", target, detected)
	}
	return true, nil
}

func toLanguage(lang lingua.Language) internal.Language {
	if lang == lingua.Arabic {
		return internal.Arabic
	}
	return internal.English
}
