package config

import (
	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Service  *svcConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"proxbox"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address          string   `envconfig:"PROXBOX_ADDRESS" default:":8800"`
	MetricsAddress   string   `envconfig:"PROXBOX_METRICS_ADDRESS" default:":8080"`
	BaseUrl          string   `envconfig:"PROXBOX_BASE_URL" default:"http://localhost:8800"`
	LogLevel         string   `envconfig:"PROXBOX_LOG_LEVEL" default:"info"`
	BackupBatchSize  int      `envconfig:"PROXBOX_BACKUP_BATCH_SIZE" default:"10"`
	ExtraCorsOrigins []string `envconfig:"PROXBOX_CORS_ORIGINS" default:""`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

// NewDefault returns a config built only from defaults and current env,
// bypassing the singleton. Used by tests.
func NewDefault() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
