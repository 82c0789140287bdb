package reporter

import (
	"benchkit/stage-engine/internal/reporter/console"
	"benchkit/stage-engine/internal/reporter/file"
	"benchkit/stage-engine/internal/reporter/webhook"
)

// RegisterBuiltinReporters registers all built-in reporters with the registry.
func RegisterBuiltinReporters(registry *Registry) error {
	if err := registry.Register(TypeConsole, func(config map[string]any) (Reporter, error) {
		factory := console.NewFactory()
		r, err := factory(config)
		if err != nil {
			return nil, err
		}
		return r.(*console.Reporter), nil
	}); err != nil {
		return err
	}

	if err := registry.Register(TypeWebhook, func(config map[string]any) (Reporter, error) {
		factory := webhook.NewFactory()
		r, err := factory(config)
		if err != nil {
			return nil, err
		}
		return r.(*webhook.Reporter), nil
	}); err != nil {
		return err
	}

	if err := registry.Register(TypeFile, func(config map[string]any) (Reporter, error) {
		factory := file.NewFactory()
		r, err := factory(config)
		if err != nil {
			return nil, err
		}
		return r.(*file.Reporter), nil
	}); err != nil {
		return err
	}

	return nil
}

// NewDefaultRegistry creates a registry with all built-in reporters
// registered.
func NewDefaultRegistry() (*Registry, error) {
	registry := NewRegistry()
	if err := RegisterBuiltinReporters(registry); err != nil {
		return nil, err
	}
	return registry, nil
}
