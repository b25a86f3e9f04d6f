package model

import "time"

// Config is the complete casewatch configuration
type Config struct {
	CourtListener CourtListenerConfig `yaml:"courtlistener" mapstructure:"courtlistener"`
	LLM           LLMConfig           `yaml:"llm" mapstructure:"llm"`
	Ingest        IngestConfig        `yaml:"ingest" mapstructure:"ingest"`
	Store         StoreConfig         `yaml:"store" mapstructure:"store"`
	Cache         CacheConfig         `yaml:"cache" mapstructure:"cache"`
	Dashboard     DashboardConfig     `yaml:"dashboard" mapstructure:"dashboard"`
	Grouping      GroupingConfig      `yaml:"grouping" mapstructure:"grouping"`
	ObjectStore   ObjectStoreConfig   `yaml:"object_store" mapstructure:"object_store"`
	HTTP          HTTPConfig          `yaml:"http" mapstructure:"http"`
	Log           LogConfig           `yaml:"log" mapstructure:"log"`
}

// CourtListenerConfig configures the records API client
type CourtListenerConfig struct {
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey     string  `yaml:"-" mapstructure:"api_key"`
	FiledAfter string  `yaml:"filed_after" mapstructure:"filed_after"` // MM/DD/YYYY
	PageRate   float64 `yaml:"page_rate" mapstructure:"page_rate"`     // requests per second
}

// LLMConfig configures the extraction model
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // anthropic, openai, ollama, gemini, "" (disabled)
	Model       string  `yaml:"model" mapstructure:"model"`
	APIKey      string  `yaml:"-" mapstructure:"api_key"`
	BaseURL     string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout     int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float32 `yaml:"temperature" mapstructure:"temperature"`
	MaxChars    int     `yaml:"max_chars" mapstructure:"max_chars"` // prompt budget for case text
}

// IngestConfig controls the ingestion run
type IngestConfig struct {
	MaxPages  int           `yaml:"max_pages" mapstructure:"max_pages"` // 0 = all pages
	FullText  bool          `yaml:"full_text" mapstructure:"full_text"` // fetch text during search
	CaseDelay time.Duration `yaml:"case_delay" mapstructure:"case_delay"`
	Reanalyze bool          `yaml:"reanalyze" mapstructure:"reanalyze"`
	Publish   bool          `yaml:"publish" mapstructure:"publish"`
}

// StoreConfig locates the flat file
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// CacheConfig controls the opinion text cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// DashboardConfig configures the web dashboard
type DashboardConfig struct {
	Addr           string        `yaml:"addr" mapstructure:"addr"`
	SiteURL        string        `yaml:"site_url" mapstructure:"site_url"` // prefix for case links
	CacheTTL       time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	AllowedOrigins []string      `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// GroupingConfig selects the grouping algorithm
type GroupingConfig struct {
	Mode string `yaml:"mode" mapstructure:"mode"` // heuristic, connected
}

// ObjectStoreConfig configures optional publication of the flat file
type ObjectStoreConfig struct {
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint"`
	Region    string `yaml:"region" mapstructure:"region"`
	Bucket    string `yaml:"bucket" mapstructure:"bucket"`
	AccessKey string `yaml:"-" mapstructure:"access_key"`
	SecretKey string `yaml:"-" mapstructure:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl" mapstructure:"use_ssl"`
	Key       string `yaml:"key" mapstructure:"key"`
}

// HTTPConfig holds outbound HTTP settings
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// LogConfig configures the logger
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // console, json
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		CourtListener: CourtListenerConfig{
			BaseURL:    "https://www.courtlistener.com",
			FiledAfter: "03/15/2024",
			PageRate:   1,
		},
		LLM: LLMConfig{
			Provider:    "anthropic",
			Model:       "claude-3-5-sonnet-20240620",
			Timeout:     120,
			MaxTokens:   4000,
			Temperature: 0.1,
			MaxChars:    100000,
		},
		Ingest: IngestConfig{
			MaxPages:  2,
			CaseDelay: 5 * time.Second,
		},
		Store: StoreConfig{
			Path: "courtlistener_cases.csv",
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".casewatch-cache",
			MemoryTTL: time.Hour,
			DiskTTL:   30 * 24 * time.Hour,
		},
		Dashboard: DashboardConfig{
			Addr:     ":8501",
			SiteURL:  "https://courtlistener.com",
			CacheTTL: 10 * time.Minute,
		},
		Grouping: GroupingConfig{
			Mode: "heuristic",
		},
		ObjectStore: ObjectStoreConfig{
			Region: "us-east-1",
			Bucket: "casewatch",
			Key:    "courtlistener_cases.csv",
			UseSSL: true,
		},
		HTTP: HTTPConfig{
			Timeout:      60 * time.Second,
			UserAgent:    "casewatch/0.1 (+https://github.com/ppiankov/casewatch)",
			MaxBodyBytes: 20_000_000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
