package aikit

import (
	"errors"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: `{"a":1}`, want: `{"a":1}`},
		{in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{in: "  ```json{\"a\":1}```  ", want: `{"a":1}`},
	}
	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderSystemPrompt(t *testing.T) {
	tests := []struct {
		name         string
		instructions string
		manifest     string
		want         string
	}{
		{name: "instructions only", instructions: "Be brief.", want: "Be brief."},
		{name: "manifest only", manifest: "[]", want: "Available capability groups and their capabilities:\n[]"},
		{name: "both", instructions: "Be brief.", manifest: "[]", want: "Be brief.\n\nAvailable capability groups and their capabilities:\n[]"},
		{name: "none", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := renderSystemPrompt(tt.instructions, tt.manifest)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseDecision(t *testing.T) {
	schema, err := jsonschema.For[Decision](nil)
	if err != nil {
		t.Fatal(err)
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name    string
		raw     string
		want    Decision
		wantErr bool
	}{
		{name: "plain", raw: `{"groups":["token"],"needed":true}`, want: Decision{Groups: []string{"token"}, Needed: true}},
		{name: "fenced", raw: "```json\n{\"groups\":[],\"needed\":false}\n```", want: Decision{Groups: []string{}, Needed: false}},
		{name: "missing needed", raw: `{"groups":["token"]}`, wantErr: true},
		{name: "wrong type", raw: `{"groups":"token","needed":true}`, wantErr: true},
		{name: "not json", raw: `I think you need the token group`, wantErr: true},
		{name: "empty", raw: ``, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDecision(tt.raw, resolved)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				var de *DecisionError
				if !errors.As(err, &de) || de.Raw != tt.raw {
					t.Fatalf("expected DecisionError with raw output, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Needed != tt.want.Needed || len(got.Groups) != len(tt.want.Groups) {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
