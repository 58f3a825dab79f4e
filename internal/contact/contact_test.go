package contact

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    Submission
		expected Submission
		err      error
	}{
		{
			name:  "missing name",
			input: Submission{Email: "a@b.co", Message: "hi"},
			err:   ErrMissingFields,
		},
		{
			name:  "missing message",
			input: Submission{Name: "A", Email: "a@b.co"},
			err:   ErrMissingFields,
		},
		{
			name:  "email without dot",
			input: Submission{Name: "A", Email: "a@b", Message: "hi"},
			err:   ErrInvalidEmail,
		},
		{
			name:  "email with space",
			input: Submission{Name: "A", Email: "a b@c.de", Message: "hi"},
			err:   ErrInvalidEmail,
		},
		{
			name:     "trims and lowercases",
			input:    Submission{Name: "  Jane Doe ", Email: "Jane@Example.COM", Message: "  Hello!  "},
			expected: Submission{Name: "Jane Doe", Email: "jane@example.com", Message: "Hello!"},
		},
		{
			name:     "strips markup",
			input:    Submission{Name: "<b>Jane</b>", Email: "j@x.io", Message: "Hi <script>alert(1)</script>there"},
			expected: Submission{Name: "Jane", Email: "j@x.io", Message: "Hi there"},
		},
		{
			name:  "only markup",
			input: Submission{Name: "<img src=x>", Email: "j@x.io", Message: "hello"},
			err:   ErrMissingFields,
		},
		{
			name:  "too long",
			input: Submission{Name: "A", Email: "a@b.co", Message: strings.Repeat("x", maxMessageLength+1)},
			err:   ErrTooLong,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("expected %v, got %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}
