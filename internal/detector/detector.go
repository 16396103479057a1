// Package detector classifies text as English or Arabic by counting Arabic
// script code points. Detection never fails; it falls back to English.
package detector

import (
	"unicode"

	"github.com/valpere/tarjim/internal"
)

// DefaultThreshold is the Arabic share of non-space code points above which
// text is labelled Arabic.
const DefaultThreshold = 0.3

// arabicScript covers Arabic, Arabic Supplement, Arabic Extended-A and the
// two presentation forms blocks.
var arabicScript = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0600, Hi: 0x06FF, Stride: 1},
		{Lo: 0x0750, Hi: 0x077F, Stride: 1},
		{Lo: 0x08A0, Hi: 0x08FF, Stride: 1},
		{Lo: 0xFB50, Hi: 0xFDFF, Stride: 1},
		{Lo: 0xFE70, Hi: 0xFEFF, Stride: 1},
	},
}

type Detector struct {
	threshold float64
}

func New() *Detector {
	return &Detector{threshold: DefaultThreshold}
}

// NewWithThreshold returns a Detector using a custom Arabic ratio threshold.
// Values outside (0, 1) fall back to DefaultThreshold.
func NewWithThreshold(threshold float64) *Detector {
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultThreshold
	}
	return &Detector{threshold: threshold}
}

// ArabicRatio returns the share of Arabic script code points among all
// non-whitespace code points, or 0 when text has none.
func (d *Detector) ArabicRatio(text string) float64 {
	var arabic, total int
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.Is(arabicScript, r) {
			arabic++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(arabic) / float64(total)
}

func (d *Detector) Detect(text string) internal.Language {
	if d.ArabicRatio(text) > d.threshold {
		return internal.Arabic
	}
	return internal.English
}

// Direction returns the translation direction for text in its detected language.
func (d *Detector) Direction(text string) internal.Direction {
	return internal.DirectionFor(d.Detect(text))
}
