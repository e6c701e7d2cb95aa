package ai

import (
	"errors"
	"testing"

	"github.com/spigell/assessment-recommender/internal/schemas"
)

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: `{"a":1}`, want: `{"a":1}`},
		{name: "fenced", input: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", input: "```\n[1,2]\n```", want: `[1,2]`},
		{name: "prose around", input: "Here you go: {\"a\": {\"b\": 2}} thanks", want: `{"a": {"b": 2}}`},
		{name: "no json", input: "no ids at all", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExtractJSON(tt.input); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDecodeJSONValidatesSchema(t *testing.T) {
	schema := `{"type":"object","required":["ids"],"properties":{"ids":{"type":"array","items":{"type":"integer"}}}}`

	var out struct {
		IDs []int `json:"ids"`
	}
	if err := DecodeJSON("```json\n{\"ids\": [3, 1]}\n```", schema, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.IDs) != 2 || out.IDs[0] != 3 || out.IDs[1] != 1 {
		t.Fatalf("unexpected ids: %v", out.IDs)
	}

	err := DecodeJSON(`{"ids": ["x"]}`, schema, &out)
	var vErr *schemas.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}

	if err := DecodeJSON("nothing here", schema, &out); err == nil {
		t.Fatal("expected error for response without json")
	}
}
