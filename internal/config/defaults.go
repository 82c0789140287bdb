package config

import "benchkit/stage-engine/pkg/types"

// Request defaults applied by the normalizer. Values a task definition does
// not override keep these.
const (
	DefaultRequestMethod      = "GET"
	DefaultRequestTimeout     = 10 // seconds
	DefaultRequestData        = "{}"
	DefaultRequestContentType = "application/json"
	DefaultSuccessCodes       = "200-399"
)

// defaultRequestSpec returns the request-level defaults as a spec.
func defaultRequestSpec() *types.RequestSpec {
	verify := true
	return &types.RequestSpec{
		Method:       DefaultRequestMethod,
		HTTPTimeout:  DefaultRequestTimeout,
		Data:         DefaultRequestData,
		ContentType:  DefaultRequestContentType,
		Headers:      map[string]string{},
		SuccessCodes: DefaultSuccessCodes,
		Verify:       &verify,
	}
}
