package config

import "time"

// KeepAliveInterval is the configured interval as a time.Duration.
func (c *Config) KeepAliveInterval() time.Duration {
	return time.Duration(c.KeepAliveIntervalMs) * time.Millisecond
}

// KeepAliveTimeout is the configured echo deadline as a time.Duration.
func (c *Config) KeepAliveTimeout() time.Duration {
	return time.Duration(c.KeepAliveTimeoutMs) * time.Millisecond
}

// LoginTimeout is the configured login-phase deadline as a time.Duration.
func (c *Config) LoginTimeout() time.Duration {
	return time.Duration(c.LoginTimeoutMs) * time.Millisecond
}
