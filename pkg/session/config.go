package session

// Config holds per-session tuning knobs.
type Config struct {
	// DispatchQueue is the capacity of the queue carrying functions
	// marshaled onto the session task from other goroutines.
	// Default: 64.
	DispatchQueue int

	// MaxRefreshPasses caps how many drain passes one refresh cycle may
	// run when handlers keep marking components dirty. Exceeding the cap
	// logs an error and ships what has been accumulated so far.
	// Default: 64.
	MaxRefreshPasses int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DispatchQueue:    64,
		MaxRefreshPasses: 64,
	}
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// withDefaults returns a copy with unset fields replaced by their
// documented defaults. A nil receiver yields DefaultConfig.
func (c *Config) withDefaults() *Config {
	if c == nil {
		return DefaultConfig()
	}
	def := DefaultConfig()
	out := c.Clone()
	if out.DispatchQueue <= 0 {
		out.DispatchQueue = def.DispatchQueue
	}
	if out.MaxRefreshPasses <= 0 {
		out.MaxRefreshPasses = def.MaxRefreshPasses
	}
	return out
}
