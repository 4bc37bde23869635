package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const redacted = "*****"

var singleConfig *Config = nil

type Config struct {
	Service *svcConfig
	Upload  *uploadConfig
	Pinata  *pinataConfig
	IPFS    *ipfsConfig
	S3      *s3Config
}

type svcConfig struct {
	Address        string `envconfig:"X402_SERVICE_ADDRESS" default:":5003"`
	MetricsAddress string `envconfig:"X402_METRICS_ADDRESS" default:":8080"`
	LogLevel       string `envconfig:"X402_LOG_LEVEL" default:"info"`
	LogFormat      string `envconfig:"X402_LOG_FORMAT" default:"console"`
	OutputDir      string `envconfig:"X402_OUTPUT_DIR" default:"generated"`
	Prefix         string `envconfig:"PUNK_PREFIX" default:"x402Punk"`
	LatencyBuckets string `envconfig:"X402_LATENCY_BUCKETS" default:""`
	EventsFile     string `envconfig:"X402_EVENTS_FILE" default:""`
	Auth           Auth
}

type uploadConfig struct {
	Backend    string  `envconfig:"X402_BACKEND" default:"pinata"`
	BatchSize  int     `envconfig:"X402_PINATA_BATCH" default:"25"`
	Retries    int     `envconfig:"X402_PINATA_RETRIES" default:"6"`
	Backoff    float64 `envconfig:"X402_PINATA_BACKOFF" default:"3.0"`
	MaxBackoff float64 `envconfig:"X402_PINATA_MAX_BACKOFF" default:"60"`
	BatchPause float64 `envconfig:"X402_PINATA_BATCH_PAUSE" default:"1.5"`
	Timeout    float64 `envconfig:"X402_UPLOAD_TIMEOUT" default:"120"`
}

type pinataConfig struct {
	BaseURL   string `envconfig:"PINATA_API_BASE" default:"https://api.pinata.cloud"`
	JWT       string `envconfig:"PINATA_JWT" default:""`
	APIKey    string `envconfig:"PINATA_API_KEY" default:""`
	APISecret string `envconfig:"PINATA_API_SECRET" default:""`
}

type ipfsConfig struct {
	APIURL string `envconfig:"IPFS_API_URL" default:"http://127.0.0.1:5001/api/v0"`
	Token  string `envconfig:"IPFS_API_TOKEN" default:""`
}

type s3Config struct {
	Endpoint  string `envconfig:"X402_S3_ENDPOINT" default:"s3.filebase.com"`
	Bucket    string `envconfig:"X402_S3_BUCKET" default:""`
	Prefix    string `envconfig:"X402_S3_PREFIX" default:""`
	AccessKey string `envconfig:"X402_S3_ACCESS_KEY" default:""`
	SecretKey string `envconfig:"X402_S3_SECRET_KEY" default:""`
	UseSSL    bool   `envconfig:"X402_S3_USE_SSL" default:"true"`
}

type Auth struct {
	AuthenticationType string `envconfig:"X402_AUTH" default:"none"`
	Secret             string `envconfig:"X402_AUTH_SECRET" default:""`
}

// New returns the process wide configuration, reading the environment on first use.
func New() (*Config, error) {
	if singleConfig == nil {
		cfg, err := Load()
		if err != nil {
			return nil, err
		}
		singleConfig = cfg
	}
	return singleConfig, nil
}

// Load reads a fresh configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Service: &svcConfig{},
		Upload:  &uploadConfig{},
		Pinata:  &pinataConfig{},
		IPFS:    &ipfsConfig{},
		S3:      &s3Config{},
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Upload.BatchSize <= 0 {
		return fmt.Errorf("X402_PINATA_BATCH must be positive, got %d", c.Upload.BatchSize)
	}
	if c.Upload.Retries <= 0 {
		return fmt.Errorf("X402_PINATA_RETRIES must be positive, got %d", c.Upload.Retries)
	}
	if c.Upload.Backoff < 0 || c.Upload.MaxBackoff < 0 || c.Upload.BatchPause < 0 || c.Upload.Timeout < 0 {
		return fmt.Errorf("upload durations must not be negative")
	}
	return nil
}

func (u *uploadConfig) BackoffDuration() time.Duration {
	return seconds(u.Backoff)
}

func (u *uploadConfig) MaxBackoffDuration() time.Duration {
	return seconds(u.MaxBackoff)
}

func (u *uploadConfig) BatchPauseDuration() time.Duration {
	return seconds(u.BatchPause)
}

func (u *uploadConfig) TimeoutDuration() time.Duration {
	return seconds(u.Timeout)
}

// String renders the configuration as JSON with every credential redacted.
func (c *Config) String() string {
	cp := *c
	if c.Pinata != nil {
		p := *c.Pinata
		p.JWT = redact(p.JWT)
		p.APIKey = redact(p.APIKey)
		p.APISecret = redact(p.APISecret)
		cp.Pinata = &p
	}
	if c.IPFS != nil {
		i := *c.IPFS
		i.Token = redact(i.Token)
		cp.IPFS = &i
	}
	if c.S3 != nil {
		s := *c.S3
		s.AccessKey = redact(s.AccessKey)
		s.SecretKey = redact(s.SecretKey)
		cp.S3 = &s
	}
	if c.Service != nil {
		s := *c.Service
		s.Auth.Secret = redact(s.Auth.Secret)
		cp.Service = &s
	}

	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Sprintf("<config: %s>", err)
	}
	return string(data)
}

func redact(v string) string {
	if v == "" {
		return ""
	}
	return redacted
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
