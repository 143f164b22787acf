package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// HTTPConfig represents the configuration for the HTTP API
type HTTPConfig struct {
	Enabled bool
	Host    string
	Port    int
}

// Addr returns the listen address
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, strconv.Itoa(h.Port))
}

// TrainingConfig represents the training pass parameters
type TrainingConfig struct {
	OnStartup   bool
	TestSize    float64
	Seed        int64
	Alpha       float64
	MaxFeatures int
	MaxDF       float64
	MinDF       int
	SublinearTF bool
}

// CorpusConfig represents where the labeled dataset comes from
type CorpusConfig struct {
	Type            string
	Paths           []string
	IncludeEmbedded bool
}

// WatcherConfig represents dataset hot reload settings
type WatcherConfig struct {
	Enabled  bool
	Debounce time.Duration
}

// FeedbackConfig represents the feedback store settings
type FeedbackConfig struct {
	Type             string
	Retention        time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
	PostgresDSN      string
	PostgresMaxConns int32
	RedisURL         string
	RedisKey         string
}

// PostfixConfig represents where filtered mail is re-injected
type PostfixConfig struct {
	Enabled bool
	Address string
	Port    int
}

// ServerConfig represents the mail filter settings
type ServerConfig struct {
	FilterType     string
	ListenAddress  string
	BlockSpam      bool
	ModifySubject  bool
	SubjectPrefix  string
	SpamHeader     string
	ScoreHeader    string
	ThreatHeader   string
	KeywordsHeader string
	Postfix        PostfixConfig
}

// SpamConfig represents message handling limits
type SpamConfig struct {
	WhitelistedDomains []string
	MaxBodySize        int
}

// MetricsConfig represents the prometheus settings
type MetricsConfig struct {
	Enabled bool
	Runtime bool
}

// GetHTTP returns the HTTP API configuration
func (c *Config) GetHTTP() HTTPConfig {
	return HTTPConfig{
		Enabled: c.GetBool("http.enabled"),
		Host:    c.GetString("http.host"),
		Port:    c.GetInt("http.port"),
	}
}

// GetTraining returns the training configuration
func (c *Config) GetTraining() TrainingConfig {
	return TrainingConfig{
		OnStartup:   c.GetBool("training.on_startup"),
		TestSize:    c.GetFloat64("training.test_size"),
		Seed:        c.GetInt64("training.seed"),
		Alpha:       c.GetFloat64("training.alpha"),
		MaxFeatures: c.GetInt("training.max_features"),
		MaxDF:       c.GetFloat64("training.max_df"),
		MinDF:       c.GetInt("training.min_df"),
		SublinearTF: c.GetBool("training.sublinear_tf"),
	}
}

// GetCorpus returns the corpus configuration
func (c *Config) GetCorpus() CorpusConfig {
	return CorpusConfig{
		Type:            c.GetString("corpus.type"),
		Paths:           c.GetStringSlice("corpus.paths"),
		IncludeEmbedded: c.GetBool("corpus.include_embedded"),
	}
}

// GetWatcher returns the dataset watcher configuration
func (c *Config) GetWatcher() (WatcherConfig, error) {
	debounce, err := c.GetDuration("corpus.debounce")
	if err != nil {
		return WatcherConfig{}, err
	}
	return WatcherConfig{
		Enabled:  c.GetBool("corpus.watch"),
		Debounce: debounce,
	}, nil
}

// GetFeedback returns the feedback store configuration
func (c *Config) GetFeedback() (FeedbackConfig, error) {
	retention, err := c.GetDuration("feedback.retention")
	if err != nil {
		return FeedbackConfig{}, err
	}
	cleanup, err := c.GetDuration("feedback.cleanup_frequency")
	if err != nil {
		return FeedbackConfig{}, err
	}
	maxConns := c.GetInt("feedback.postgres_max_conns")
	if maxConns < 1 {
		return FeedbackConfig{}, fmt.Errorf("feedback.postgres_max_conns must be positive, got %d", maxConns)
	}
	return FeedbackConfig{
		Type:             c.GetString("feedback.type"),
		Retention:        retention,
		CleanupFrequency: cleanup,
		SQLitePath:       c.GetString("feedback.sqlite_path"),
		MySQLDSN:         c.GetString("feedback.mysql_dsn"),
		PostgresDSN:      c.GetString("feedback.postgres_dsn"),
		PostgresMaxConns: int32(maxConns),
		RedisURL:         c.GetString("feedback.redis_url"),
		RedisKey:         c.GetString("feedback.redis_key"),
	}, nil
}

// GetServer returns the mail filter configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		FilterType:     c.GetString("server.filter_type"),
		ListenAddress:  c.GetString("server.listen_address"),
		BlockSpam:      c.GetBool("server.block_spam"),
		ModifySubject:  c.GetBool("server.modify_subject"),
		SubjectPrefix:  c.GetString("server.subject_prefix"),
		SpamHeader:     c.GetString("server.headers.spam"),
		ScoreHeader:    c.GetString("server.headers.score"),
		ThreatHeader:   c.GetString("server.headers.threat"),
		KeywordsHeader: c.GetString("server.headers.keywords"),
		Postfix: PostfixConfig{
			Enabled: c.GetBool("server.postfix.enabled"),
			Address: c.GetString("server.postfix.address"),
			Port:    c.GetInt("server.postfix.port"),
		},
	}
}

// GetSpam returns the message handling configuration
func (c *Config) GetSpam() SpamConfig {
	return SpamConfig{
		WhitelistedDomains: c.GetStringSlice("spam.whitelisted_domains"),
		MaxBodySize:        c.GetInt("spam.max_body_size"),
	}
}

// GetMetrics returns the metrics configuration
func (c *Config) GetMetrics() MetricsConfig {
	return MetricsConfig{
		Enabled: c.GetBool("metrics.enabled"),
		Runtime: c.GetBool("metrics.runtime"),
	}
}
