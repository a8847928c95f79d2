package extractor

import (
	"errors"
	"testing"

	"github.com/opmgt/beergame-coach/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    map[string]any
		wantErr bool
	}{
		{
			name: "plain JSON object",
			raw:  `{"quantitative_answer":"7","qualitative_answer":"Increase moderately"}`,
			want: map[string]any{"quantitative_answer": "7", "qualitative_answer": "Increase moderately"},
		},
		{
			name: "object wrapped in prose",
			raw:  "Here is the recommendation:\n{\"quantitative_answer\":\"4\"}\nGood luck!",
			want: map[string]any{"quantitative_answer": "4"},
		},
		{
			name: "object wrapped in markdown fence",
			raw:  "```json\n{\"qualitative_answer\":\"hold steady\"}\n```",
			want: map[string]any{"qualitative_answer": "hold steady"},
		},
		{
			name: "nested braces survive substring extraction",
			raw:  "answer: {\"outer\":{\"inner\":\"v\"}} done",
			want: map[string]any{"outer": map[string]any{"inner": "v"}},
		},
		{
			name:    "no braces at all",
			raw:     "I recommend ordering about twelve cases.",
			wantErr: true,
		},
		{
			name:    "invalid interior JSON",
			raw:     "prefix {not json} suffix",
			wantErr: true,
		},
		{
			name:    "JSON array is not an object",
			raw:     `["a","b"]`,
			wantErr: true,
		},
		{
			name:    "empty input",
			raw:     "",
			wantErr: true,
		},
		{
			name:    "closing brace before opening",
			raw:     "} oops {",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FirstJSONObject(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, entity.ErrMalformedOutput), "expected ErrMalformedOutput, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirstJSONObjectPrefersWholeText(t *testing.T) {
	// When the whole text is a valid object it is returned unchanged, even
	// if a narrower substring would also parse.
	raw := `{"a":"{\"b\":1}"}`
	got, err := FirstJSONObject(raw)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": `{"b":1}`}, got)
}
