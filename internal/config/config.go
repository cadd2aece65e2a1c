package config

import (
	"os"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"

	"github.com/totegamma/xcheck/internal/domain"
)

type Config struct {
	Server       Server       `yaml:"server"`
	Store        Store        `yaml:"store"`
	Ledger       Ledger       `yaml:"ledger"`
	ContentStore ContentStore `yaml:"contentStore"`
	Identity     Identity     `yaml:"identity"`
}

type Server struct {
	Listen           string `yaml:"listen"`
	RedisAddr        string `yaml:"redisAddr"`
	RedisPassword    string `yaml:"redisPassword"`
	RedisDB          int    `yaml:"redisDB"`
	MemcachedAddr    string `yaml:"memcachedAddr"`
	ListingCacheTTL  int    `yaml:"listingCacheTTL"` // seconds
	EnableTrace      bool   `yaml:"enableTrace"`
	TraceEndpoint    string `yaml:"traceEndpoint"`
	ValidateRequests bool   `yaml:"validateRequests"`
}

type Store struct {
	Driver      string `yaml:"driver"` // mongo, postgres
	MongoURL    string `yaml:"mongoURL"`
	Database    string `yaml:"database"`
	PostgresDsn string `yaml:"postgresDsn"`
	DialTimeout int    `yaml:"dialTimeout"` // seconds
}

type Ledger struct {
	RPCURL          string `yaml:"rpcURL"`
	ContractAddress string `yaml:"contractAddress"`
	PrivateKey      string `yaml:"privateKey"`
	ChainID         int64  `yaml:"chainID"`
	DefaultGasLimit uint64 `yaml:"defaultGasLimit"`
	ConfirmTimeout  int    `yaml:"confirmTimeout"` // seconds, 0 waits indefinitely
}

type ContentStore struct {
	Endpoint string `yaml:"endpoint"`
	JWT      string `yaml:"jwt"`
	Gateway  string `yaml:"gateway"`
}

type Identity struct {
	PlaceholderWallet        string `yaml:"placeholderWallet"`
	DefaultOrganizationImage string `yaml:"defaultOrganizationImage"`
	DefaultJournalistImage   string `yaml:"defaultJournalistImage"`
}

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// Load reads the YAML file at path. ${VAR} references are expanded from the
// environment before decoding.
func Load(path string) (Config, error) {

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	return Parse(raw)
}

func Parse(raw []byte) (Config, error) {
	var config Config
	err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &config)
	if err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":5555"
	}
	if c.Server.ListingCacheTTL == 0 {
		c.Server.ListingCacheTTL = 30
	}
	if c.Store.Driver == "" {
		c.Store.Driver = DriverMongo
	}
	if c.Store.Database == "" {
		c.Store.Database = "Xcheck_db"
	}
	if c.Store.DialTimeout == 0 {
		c.Store.DialTimeout = 10
	}
	if c.Ledger.DefaultGasLimit == 0 {
		c.Ledger.DefaultGasLimit = domain.DefaultGasLimit
	}
	if c.ContentStore.Gateway == "" {
		c.ContentStore.Gateway = domain.DefaultGateway
	}
	if c.Identity.PlaceholderWallet == "" {
		c.Identity.PlaceholderWallet = domain.PlaceholderWallet
	}
	if c.Identity.DefaultOrganizationImage == "" {
		c.Identity.DefaultOrganizationImage = domain.DefaultOrganizationImage
	}
	if c.Identity.DefaultJournalistImage == "" {
		c.Identity.DefaultJournalistImage = domain.DefaultJournalistImage
	}
}

func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMongo:
		if c.Store.MongoURL == "" {
			return errors.New("store.mongoURL is required for the mongo driver")
		}
	case DriverPostgres:
		if c.Store.PostgresDsn == "" {
			return errors.New("store.postgresDsn is required for the postgres driver")
		}
	default:
		return errors.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Ledger.ConfirmTimeout < 0 {
		return errors.New("ledger.confirmTimeout must not be negative")
	}
	return nil
}

func (l Ledger) ConfirmTimeoutDuration() time.Duration {
	return time.Duration(l.ConfirmTimeout) * time.Second
}
