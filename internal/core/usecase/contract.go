package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/daxmodi1/ShikshaMitra/internal/core/domain"
)

// parseAnswerContract validates raw generation output against the answer
// contract. Unknown fields are ignored; a missing actions array defaults to
// empty. Any parse failure or blank required field is an error the caller
// must translate into the deterministic fallback contract; it never escapes
// the orchestrator.
func parseAnswerContract(raw string) (domain.AnswerContract, error) {
	payload := extractJSONObject(raw)
	if payload == "" {
		return domain.AnswerContract{}, fmt.Errorf("no json object in generation output")
	}

	var contract domain.AnswerContract
	if err := json.Unmarshal([]byte(payload), &contract); err != nil {
		return domain.AnswerContract{}, fmt.Errorf("unmarshal answer contract: %w", err)
	}

	for field, value := range map[string]string{
		"answer":    contract.Answer,
		"topic":     contract.Topic,
		"sentiment": contract.Sentiment,
		"language":  contract.Language,
	} {
		if strings.TrimSpace(value) == "" {
			return domain.AnswerContract{}, fmt.Errorf("answer contract field %q is missing or blank", field)
		}
	}

	if contract.Actions == nil {
		contract.Actions = []string{}
	}
	return contract, nil
}

// extractJSONObject tolerates models that wrap the payload in prose or code
// fences by slicing from the first '{' to the last '}'.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}
