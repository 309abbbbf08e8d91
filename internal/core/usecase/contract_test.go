package usecase

import (
	"reflect"
	"testing"

	"github.com/daxmodi1/ShikshaMitra/internal/core/domain"
)

func TestParseAnswerContractSuccess(t *testing.T) {
	raw := `{"answer":"Use pebbles for counting.","topic":"Math Pedagogy","sentiment":"Positive","language":"English","actions":["Check Activity 2.1"],"extra":"ignored"}`

	contract, err := parseAnswerContract(raw)
	if err != nil {
		t.Fatalf("parseAnswerContract() error = %v", err)
	}
	if contract.Answer != "Use pebbles for counting." {
		t.Fatalf("unexpected answer: %q", contract.Answer)
	}
	if contract.Topic != "Math Pedagogy" || contract.Sentiment != "Positive" || contract.Language != "English" {
		t.Fatalf("unexpected contract fields: %+v", contract)
	}
	if !reflect.DeepEqual(contract.Actions, []string{"Check Activity 2.1"}) {
		t.Fatalf("unexpected actions: %v", contract.Actions)
	}
}

func TestParseAnswerContractToleratesCodeFences(t *testing.T) {
	raw := "Here you go:\n```json\n{\"answer\":\"a\",\"topic\":\"t\",\"sentiment\":\"s\",\"language\":\"l\"}\n```"

	contract, err := parseAnswerContract(raw)
	if err != nil {
		t.Fatalf("parseAnswerContract() error = %v", err)
	}
	if contract.Answer != "a" {
		t.Fatalf("unexpected answer: %q", contract.Answer)
	}
	if contract.Actions == nil || len(contract.Actions) != 0 {
		t.Fatalf("expected empty non-nil actions, got %v", contract.Actions)
	}
}

func TestParseAnswerContractFailures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty output", ""},
		{"prose without json", "Sorry, I cannot help with that."},
		{"invalid json", `{"answer": "a",`},
		{"missing topic", `{"answer":"a","sentiment":"s","language":"l"}`},
		{"blank answer", `{"answer":"  ","topic":"t","sentiment":"s","language":"l"}`},
		{"wrong field type", `{"answer":1,"topic":"t","sentiment":"s","language":"l"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseAnswerContract(tc.raw); err == nil {
				t.Fatalf("expected error for %q", tc.raw)
			}
		})
	}
}

func TestFallbackAnswerContractIsDeterministic(t *testing.T) {
	first := domain.FallbackAnswerContract()
	second := domain.FallbackAnswerContract()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("fallback contract not deterministic: %+v vs %+v", first, second)
	}
	if first.Topic != "Error" || first.Sentiment != "Neutral" || first.Language != "Unknown" {
		t.Fatalf("unexpected fallback fields: %+v", first)
	}
	if len(first.Actions) != 0 {
		t.Fatalf("expected empty actions, got %v", first.Actions)
	}
}
