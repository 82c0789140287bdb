package config

import "benchkit/stage-engine/pkg/types"

// mergeMaps deep-merges override into defaults and returns the result.
// For each key in override, if both sides hold maps the merge recurses;
// otherwise the override value wins. Keys present only in defaults are
// preserved. Neither input is mutated. It is the untyped form of the
// request-spec merge below and pins down its override semantics in tests.
func mergeMaps(defaults, override map[string]any) map[string]any {
	result := make(map[string]any, len(defaults)+len(override))
	for k, v := range defaults {
		result[k] = v
	}
	for k, v := range override {
		dm, dok := result[k].(map[string]any)
		om, ook := v.(map[string]any)
		if dok && ook {
			result[k] = mergeMaps(dm, om)
			continue
		}
		result[k] = v
	}
	return result
}

// mergeHeaders merges override headers over defaults, both untouched.
func mergeHeaders(defaults, override map[string]string) map[string]string {
	result := make(map[string]string, len(defaults)+len(override))
	for k, v := range defaults {
		result[k] = v
	}
	for k, v := range override {
		result[k] = v
	}
	return result
}

// mergeRequestSpec applies the request-level defaults to a spec: every field
// the override leaves unset keeps its default ("override wins, unspecified
// keys default").
func mergeRequestSpec(defaults, override *types.RequestSpec) *types.RequestSpec {
	if override == nil {
		return defaults
	}

	result := *defaults

	if override.Method != "" {
		result.Method = override.Method
	}
	if override.URL != "" {
		result.URL = override.URL
	}
	if override.HTTPTimeout > 0 {
		result.HTTPTimeout = override.HTTPTimeout
	}
	if override.Data != "" {
		result.Data = override.Data
	}
	if override.ContentType != "" {
		result.ContentType = override.ContentType
	}
	result.Headers = mergeHeaders(defaults.Headers, override.Headers)
	if override.SuccessCodes != nil {
		result.SuccessCodes = override.SuccessCodes
	}
	if override.Verify != nil {
		result.Verify = override.Verify
	}

	return &result
}
