// Package config holds pass-pipeline configuration: the single
// configurable policy this compiler exposes — whether closed-form
// conversion may hoist guard effects unconditionally — lives here as an
// explicit value threaded through the pipeline, never as a package-level
// variable.
package config

// PassConfig configures the optimization pipeline.
type PassConfig struct {
	// UnsoundHoistGuards, when true, allows the closed-form add-loop pass
	// to hoist GuardShift effects out of the loop unconditionally instead
	// of the default, sound behavior of wrapping the result in
	// If(_, IfNonZero) so guards do not fire when the loop would not have
	// executed at all.
	UnsoundHoistGuards bool
}

// Default returns the sound default configuration.
func Default() PassConfig {
	return PassConfig{}
}
