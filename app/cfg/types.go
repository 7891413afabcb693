package cfg

import "time"

type Cfg struct {
	// Database configuration
	DBPath   string
	SeedFile string

	// Application configuration
	Port              string
	WorkerCount       int
	SchedulerInterval int
	RunOnStartup      bool
	APIAccessKey      string

	// Ingestion configuration
	MaxArticlesPerFeed int
	FetchTimeout       int
	MaxRedirects       int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	LogFormat string
	Version   string
}

func (c *Cfg) FetchTimeoutDuration() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}

func (c *Cfg) SchedulerIntervalDuration() time.Duration {
	return time.Duration(c.SchedulerInterval) * time.Second
}
