// Package recovery extracts one JSON object from free-form model output.
//
// Models asked for long multi-paragraph fields routinely emit literal
// newlines inside strings, trailing commas, chatter around the object or a
// truncated tail. Decode runs progressively looser strategies and reports
// which one produced the value:
//
//	TierParse    tolerant parse of the {...} span
//	TierRepair   string-aware repair, then tolerant parse
//	TierExtract  per-field regex and scanner extraction
package recovery

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tailscale/hujson"
)

// Tier identifies the strategy that produced a result.
type Tier int

const (
	TierNone Tier = iota
	TierParse
	TierRepair
	TierExtract
)

func (t Tier) String() string {
	switch t {
	case TierParse:
		return "parse"
	case TierRepair:
		return "repair"
	case TierExtract:
		return "extract"
	default:
		return "none"
	}
}

var (
	// ErrNoObject means the text contains no opening brace at all.
	ErrNoObject = errors.New("no JSON object in response")
	// ErrUnrecoverable means every tier failed or the required fields could
	// not be found.
	ErrUnrecoverable = errors.New("structured output unrecoverable")
)

// Schema describes the fields Decode should look for when parsing fails.
type Schema struct {
	// ShortFields are single-line string fields extracted by regex.
	ShortFields []string
	// LongField is the multi-paragraph string field located by scanning.
	LongField string
	// ListFields are string arrays.
	ListFields []string
	// Required fields must be present and non-empty for any tier to succeed.
	Required []string
}

// Decode recovers a JSON object from raw and stores it in out, which must be
// a pointer suitable for json.Unmarshal.
func Decode(raw string, schema Schema, out any) (Tier, error) {
	span, closed, err := bounds(raw)
	if err != nil {
		return TierNone, err
	}

	if closed {
		if fields, err := parseObject(span); err == nil && hasRequired(fields, schema.Required) {
			if err := remarshal(fields, out); err == nil {
				return TierParse, nil
			}
		}
		if fields, err := parseObject(Repair(span)); err == nil && hasRequired(fields, schema.Required) {
			if err := remarshal(fields, out); err == nil {
				return TierRepair, nil
			}
		}
	}

	fields := Extract(span, schema)
	if !hasRequired(fields, schema.Required) {
		return TierNone, ErrUnrecoverable
	}
	if err := remarshal(fields, out); err != nil {
		return TierNone, fmt.Errorf("%w: %v", ErrUnrecoverable, err)
	}
	return TierExtract, nil
}

// DecodeStrict runs only the bounds and tolerant-parse tiers. It is meant for
// small payloads where anything needing repair should be treated as failure.
func DecodeStrict(raw string, out any) error {
	span, closed, err := bounds(raw)
	if err != nil {
		return err
	}
	if !closed {
		return ErrUnrecoverable
	}
	std, err := hujson.Standardize([]byte(span))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnrecoverable, err)
	}
	if err := json.Unmarshal(std, out); err != nil {
		return fmt.Errorf("%w: %v", ErrUnrecoverable, err)
	}
	return nil
}

// bounds returns the text between the first '{' and the last '}'. When no
// closing brace follows the opening one, the remainder is returned with
// closed=false so only field extraction is attempted.
func bounds(raw string) (span string, closed bool, err error) {
	start := strings.Index(raw, "{")
	if start < 0 {
		return "", false, ErrNoObject
	}
	end := strings.LastIndex(raw, "}")
	if end <= start {
		return raw[start:], false, nil
	}
	return raw[start : end+1], true, nil
}

func parseObject(span string) (map[string]any, error) {
	std, err := hujson.Standardize([]byte(span))
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(std, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func hasRequired(fields map[string]any, required []string) bool {
	for _, name := range required {
		value, ok := fields[name].(string)
		if !ok || strings.TrimSpace(value) == "" {
			return false
		}
	}
	return true
}

func remarshal(fields map[string]any, out any) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
