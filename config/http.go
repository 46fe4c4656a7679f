package config

import "strconv"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Port is the port the job API listens on.
	Port int `env:"SWARMER_PORT" envDefault:"8500"`
}

// Addr returns the listen address for the HTTP server.
func (h HTTPConfig) Addr() string {
	return ":" + strconv.Itoa(h.Port)
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.Port <= 0 || h.Port > 65535 {
		h.Port = 8500
	}
}
