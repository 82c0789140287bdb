package config

import (
	"fmt"
	"strconv"
	"strings"

	"benchkit/stage-engine/pkg/types"
)

// ParseSuccessCodes derives the inclusive success-code ranges from a raw
// specification: a single integer, a "low-high" string, or a list mixing
// both forms.
func ParseSuccessCodes(raw any) ([]types.CodeRange, error) {
	switch v := raw.(type) {
	case nil:
		return nil, fmt.Errorf("success codes must not be empty")
	case int:
		return []types.CodeRange{{Low: v, High: v}}, nil
	case int64:
		return []types.CodeRange{{Low: int(v), High: int(v)}}, nil
	case string:
		r, err := parseCodeRange(v)
		if err != nil {
			return nil, err
		}
		return []types.CodeRange{r}, nil
	case []any:
		if len(v) == 0 {
			return nil, fmt.Errorf("success codes list must not be empty")
		}
		ranges := make([]types.CodeRange, 0, len(v))
		for _, item := range v {
			sub, err := ParseSuccessCodes(item)
			if err != nil {
				return nil, err
			}
			ranges = append(ranges, sub...)
		}
		return ranges, nil
	default:
		return nil, fmt.Errorf("unsupported success codes specification: %T", raw)
	}
}

// parseCodeRange parses "low-high" or a bare integer string into a range.
func parseCodeRange(s string) (types.CodeRange, error) {
	s = strings.TrimSpace(s)
	if low, high, found := strings.Cut(s, "-"); found {
		lo, err := strconv.Atoi(strings.TrimSpace(low))
		if err != nil {
			return types.CodeRange{}, fmt.Errorf("invalid success code range %q: %w", s, err)
		}
		hi, err := strconv.Atoi(strings.TrimSpace(high))
		if err != nil {
			return types.CodeRange{}, fmt.Errorf("invalid success code range %q: %w", s, err)
		}
		if lo > hi {
			return types.CodeRange{}, fmt.Errorf("invalid success code range %q: low above high", s)
		}
		return types.CodeRange{Low: lo, High: hi}, nil
	}

	code, err := strconv.Atoi(s)
	if err != nil {
		return types.CodeRange{}, fmt.Errorf("invalid success code %q: %w", s, err)
	}
	return types.CodeRange{Low: code, High: code}, nil
}
