package core

import "strings"

// Environment represents the deployment environment of the service.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Environments lists every known environment in resolution order.
var Environments = []Environment{Development, Staging, Production}

// String returns the string representation of the environment.
func (e Environment) String() string {
	return string(e)
}

// IsProduction reports whether the environment corresponds to production.
func (e Environment) IsProduction() bool {
	return e == Production
}

// ParseEnvironment normalises the provided value into one of the known environments.
// Unknown values fall back to Development so the application can still start
// with sensible defaults. Common short forms (dev, prod, preview) are accepted.
func ParseEnvironment(v string) Environment {
	env, _ := lookupEnvironment(v)
	return env
}

// ResolveEnvironment picks the environment from an explicit override first,
// then from the runtime mode signal, and defaults to Development.
func ResolveEnvironment(override, runtimeMode string) Environment {
	if env, ok := lookupEnvironment(override); ok {
		return env
	}
	if env, ok := lookupEnvironment(runtimeMode); ok {
		return env
	}
	return Development
}

func lookupEnvironment(v string) (Environment, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "production", "prod":
		return Production, true
	case "staging", "stage", "preview":
		return Staging, true
	case "development", "dev", "local", "test", "testing":
		return Development, true
	default:
		return Development, false
	}
}
