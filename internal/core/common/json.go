package common

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseJSON unmarshals the JSON object embedded in an LLM response into T.
// Models routinely wrap their output in prose or markdown fences, so the
// response is trimmed to the outermost '{'..'}' span before decoding.
func ParseJSON[T any](response string) (T, error) {
	var zero T

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return zero, fmt.Errorf("no JSON object found in response")
	}

	var result T
	if err := json.Unmarshal([]byte(response[start:end+1]), &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return result, nil
}
