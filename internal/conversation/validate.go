package conversation

import (
	"encoding/json"
	"fmt"
)

type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Validate checks the shape of a decoded JSON submission. It never panics and
// reports every malformed message separately; only a missing top level
// (not an object, or no content/summary) stops early.
func Validate(data any) ValidationResult {
	root, ok := data.(map[string]any)
	if !ok {
		return ValidationResult{Errors: []string{"Input must be a JSON object"}}
	}
	if !present(root["content"]) || !present(root["summary"]) {
		return ValidationResult{Errors: []string{"Missing required fields: content and summary"}}
	}

	var errs []string

	if content, ok := root["content"].(map[string]any); !ok {
		errs = append(errs, "Content must be an object")
	} else if messages, ok := content["messages"].([]any); !ok {
		errs = append(errs, "Content must contain messages array")
	} else {
		for i, raw := range messages {
			m, ok := raw.(map[string]any)
			if !ok {
				errs = append(errs, fmt.Sprintf("Message %d must be an object", i))
				continue
			}
			if !nonEmptyString(m["sender"]) {
				errs = append(errs, fmt.Sprintf("Message %d missing or invalid sender field", i))
			}
			if !nonEmptyString(m["text"]) {
				errs = append(errs, fmt.Sprintf("Message %d missing or invalid text field", i))
			}
		}
	}

	if summary, ok := root["summary"].(map[string]any); !ok {
		errs = append(errs, "Summary must be an object")
	} else {
		if !nonEmptyString(summary["noidung"]) {
			errs = append(errs, "Summary missing or invalid noidung field")
		}
		if !nonEmptyString(summary["hoancanh"]) {
			errs = append(errs, "Summary missing or invalid hoancanh field")
		}
		if !isNumber(summary["so_cau"]) {
			errs = append(errs, "Summary missing or invalid so_cau field")
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// DecodePayload converts a submission that passed Validate into a Payload.
// A fractional so_cau is truncated.
func DecodePayload(data any) (*Payload, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("conversation: encode payload: %w", err)
	}
	var wire struct {
		Content Content `json:"content"`
		Summary struct {
			Noidung  string      `json:"noidung"`
			Hoancanh string      `json:"hoancanh"`
			SoCau    json.Number `json:"so_cau"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return nil, fmt.Errorf("conversation: decode payload: %w", err)
	}
	soCau, err := wire.Summary.SoCau.Float64()
	if err != nil {
		return nil, fmt.Errorf("conversation: decode so_cau: %w", err)
	}
	return &Payload{
		Content: wire.Content,
		Summary: SummaryInput{
			Noidung:  wire.Summary.Noidung,
			Hoancanh: wire.Summary.Hoancanh,
			SoCau:    int(soCau),
		},
	}, nil
}

// present follows JSON truthiness: null, false, "" and 0 count as absent.
func present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	case json.Number:
		f, err := x.Float64()
		return err == nil && f != 0
	}
	return true
}

func nonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && s != ""
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int32, int64, uint, uint32, uint64, json.Number:
		return true
	}
	return false
}
