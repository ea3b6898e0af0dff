package cfg

type Cfg struct {
	// Server configuration
	Port    string
	BaseUrl string

	// Storage configuration
	DBPath string

	// Worker service configuration
	WorkerUrl       string
	WorkerAccessKey string

	// Application configuration
	TopicsFile string
	UserAgent  string
	Timezone   string
	Debug      bool
	Version    string
}
