package runtime

import "go.uber.org/zap"

// Config holds runtime options. Build it with NewConfig and the With methods.
type Config struct {
	logger    *zap.Logger
	fatalHook func(msg string)
}

// NewConfig returns a Config with a no-op logger and no fatal hook.
func NewConfig() *Config {
	return &Config{}
}

// WithLogger sets the logger shared by the runtime and the facades it builds.
func (c *Config) WithLogger(l *zap.Logger) *Config {
	c.logger = l
	return c
}

// WithFatalHook sets the function called once with the panic message when
// the supervisor catches an unrecoverable condition.
func (c *Config) WithFatalHook(fn func(msg string)) *Config {
	c.fatalHook = fn
	return c
}
