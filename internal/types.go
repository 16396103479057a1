package internal

import (
	"errors"
	"fmt"
	"strings"
)

// Language identifies one of the two supported languages.
type Language string

const (
	English Language = "en"
	Arabic  Language = "ar"
)

// Direction selects source and target language for a translation call.
type Direction string

const (
	DirectionAuto   Direction = "auto"
	DirectionEnToAr Direction = "en2ar"
	DirectionArToEn Direction = "ar2en"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrExtraction           = errors.New("no extractable text")
	ErrUnsupportedDirection = errors.New("unsupported translation direction")
	ErrEngine               = errors.New("translation engine failure")
	ErrNotFound             = errors.New("not found")
	ErrQueueFull            = errors.New("job queue is full")
)

// ParseDirection accepts "", "auto", "en2ar" and "ar2en" (case-insensitive).
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case "", DirectionAuto:
		return DirectionAuto, nil
	case DirectionEnToAr, DirectionArToEn:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDirection, s)
	}
}

func (d Direction) IsAuto() bool {
	return d == "" || d == DirectionAuto
}

// Languages returns the source and target language codes of an explicit direction.
func (d Direction) Languages() (source, target Language, err error) {
	switch d {
	case DirectionEnToAr:
		return English, Arabic, nil
	case DirectionArToEn:
		return Arabic, English, nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedDirection, string(d))
	}
}

// DirectionFor returns the direction that translates text written in lang.
func DirectionFor(lang Language) Direction {
	if lang == Arabic {
		return DirectionArToEn
	}
	return DirectionEnToAr
}
