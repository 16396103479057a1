package validator

import (
	"testing"

	"github.com/valpere/tarjim/internal"
)

func TestValidator_IsValid(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		text    string
		target  internal.Language
		wantOK  bool
		wantErr bool
	}{
		{
			name:   "no target language",
			text:   "anything",
			target: "",
			wantOK: true,
		},
		{
			name:    "empty translation",
			text:    "   ",
			target:  internal.Arabic,
			wantOK:  false,
			wantErr: true,
		},
		{
			name:   "short text skips detection",
			text:   "Hello",
			target: internal.Arabic,
			wantOK: true,
		},
		{
			name:   "arabic matches arabic",
			text:   "هذا نص مكتوب باللغة العربية للتحقق من اللغة",
			target: internal.Arabic,
			wantOK: true,
		},
		{
			name:   "english matches english",
			text:   "This sentence is clearly written in the English language.",
			target: internal.English,
			wantOK: true,
		},
		{
			name:    "english where arabic expected",
			text:    "This sentence is clearly written in the English language.",
			target:  internal.Arabic,
			wantOK:  false,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := v.IsValid(tt.text, tt.target)
			if ok != tt.wantOK {
				t.Errorf("IsValid(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("IsValid(%q) err = %v, wantErr %v", tt.text, err, tt.wantErr)
			}
		})
	}
}
