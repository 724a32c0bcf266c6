package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	ScoutsDir         string
	Port              string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Outbound integrations
	WebhookURL      string
	NatsURL         string
	SearchAPIKey    string
	SearchAccountID string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
