package config

import "time"

// SchedulerConfig contains task queue and sweeper configuration.
type SchedulerConfig struct {
	// QueueCapacity bounds the number of concurrently running tasks.
	QueueCapacity int `env:"QUEUE_CAPACITY" envDefault:"12"`

	// DeadScanInterval is how often the dead-task sweeper runs.
	DeadScanInterval time.Duration `env:"DEAD_SCAN_INTERVAL" envDefault:"600s"`

	// CompletedScanInterval is how often the completion sweeper runs.
	CompletedScanInterval time.Duration `env:"COMPLETED_SCAN_INTERVAL" envDefault:"60s"`

	// DeadTaskAge is how long a task may run before it is considered stalled.
	DeadTaskAge time.Duration `env:"DEAD_JOB_INTERVAL" envDefault:"30m"`
}

// Sanitize applies guardrails to scheduler configuration values.
func (s *SchedulerConfig) Sanitize() {
	if s.QueueCapacity < 1 {
		s.QueueCapacity = 1
	}
	if s.DeadScanInterval < time.Second {
		s.DeadScanInterval = time.Second
	}
	if s.CompletedScanInterval < time.Second {
		s.CompletedScanInterval = time.Second
	}
	if s.DeadTaskAge < time.Minute {
		s.DeadTaskAge = time.Minute
	}
}

// CallbackConfig contains job result callback configuration.
type CallbackConfig struct {
	// Timeout bounds each result POST to the user-supplied callback URL.
	Timeout time.Duration `env:"CALLBACK_TIMEOUT" envDefault:"30s"`
}

// Sanitize applies guardrails to callback configuration values.
func (c *CallbackConfig) Sanitize() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}
