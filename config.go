package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Journal queue kinds.
const (
	QueueMemory = "memory"
	QueueRedis  = "redis"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit          string        `yaml:"git_commit" envconfig:"LCAP_GIT_COMMIT"`
	GitTag             string        `yaml:"git_tag" envconfig:"LCAP_GIT_TAG"`
	BuildTime          string        `yaml:"build_time" envconfig:"LCAP_BUILD_TIME"`
	IsProduction       bool          `yaml:"is_production" envconfig:"LCAP_IS_PRODUCTION"`
	LogLevel           zapcore.Level `yaml:"log_level" envconfig:"LCAP_LOG_LEVEL"`
	LogFolder          string        `yaml:"log_folder" envconfig:"LCAP_LOG_FOLDER"`
	LogMaxSize         int           `yaml:"log_max_size" envconfig:"LCAP_LOG_MAX_SIZE"` // in megabytes
	DataFile           string        `yaml:"data_file" envconfig:"LCAP_DATA_FILE"`
	OpsEndpointsEnable bool          `yaml:"ops_endpoints_enable" envconfig:"LCAP_OPS_ENDPOINTS_ENABLE"`
	SwaggerEnable      bool          `yaml:"swagger_enable" envconfig:"LCAP_SWAGGER_ENABLE"`
	Server             ServerConfig  `yaml:"server"`
	Journal            JournalConfig `yaml:"journal"`
	Redis              RedisConfig   `yaml:"redis"`
	BoltDB             BoltDBConfig  `yaml:"boltdb"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"LCAP_SERVER_HOST"`
	Port            string        `yaml:"port" envconfig:"LCAP_SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"LCAP_SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"LCAP_SERVER_WRITE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"LCAP_SERVER_REQUEST_TIMEOUT"` // Time to wait for a request to finish
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"LCAP_SERVER_SHUTDOWN_TIMEOUT"`
}

type JournalConfig struct {
	Enabled   bool   `yaml:"enabled" envconfig:"LCAP_JOURNAL_ENABLED"`
	Queue     string `yaml:"queue" envconfig:"LCAP_JOURNAL_QUEUE"`
	QueueSize int    `yaml:"queue_size" envconfig:"LCAP_JOURNAL_QUEUE_SIZE"`
}

type RedisConfig struct {
	Host          string        `yaml:"host" envconfig:"LCAP_REDIS_HOST"`
	Port          string        `yaml:"port" envconfig:"LCAP_REDIS_PORT"`
	DialTimeout   time.Duration `yaml:"dial_timeout" envconfig:"LCAP_REDIS_DIAL_TIMEOUT"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"LCAP_REDIS_READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" envconfig:"LCAP_REDIS_WRITE_TIMEOUT"`
	PoolSize      int           `yaml:"pool_size" envconfig:"LCAP_REDIS_POOL_SIZE"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" envconfig:"LCAP_REDIS_POOL_TIMEOUT"`
	Username      string        `yaml:"username" envconfig:"LCAP_REDIS_USERNAME"`
	Password      string        `yaml:"password" envconfig:"LCAP_REDIS_PASSWORD" json:"-"`
	DatabaseIndex int           `yaml:"db_index" envconfig:"LCAP_REDIS_DATABASE_INDEX"`
}

type BoltDBConfig struct {
	FilePath   string        `yaml:"filepath" envconfig:"LCAP_BOLTDB_FILE_PATH"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"LCAP_BOLTDB_TIMEOUT"`
	BucketName string        `yaml:"bucket_name" envconfig:"LCAP_BOLTDB_BUCKET_NAME"`
}

// DefaultConfig provides the settings used when no file or environment overrides them.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:   zapcore.InfoLevel,
		LogFolder:  "./logs",
		LogMaxSize: 10,
		DataFile:   "library_data.txt",
		Server: ServerConfig{
			Host:            "localhost",
			Port:            "8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Journal: JournalConfig{
			Enabled:   true,
			Queue:     QueueMemory,
			QueueSize: 256,
		},
		Redis: RedisConfig{
			Host:        "localhost",
			Port:        "6379",
			DialTimeout: 5 * time.Second,
			PoolSize:    10,
		},
		BoltDB: BoltDBConfig{
			FilePath:   "./data/loans.db",
			Timeout:    2 * time.Second,
			BucketName: "loans",
		},
	}
}

// LoadConfigFile decodes a yaml file over the given config. A missing file is not an error.
func LoadConfigFile(configFile string, config *Config) error {
	file, err := os.Open(configFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()
	return yaml.NewDecoder(file).Decode(config)
}

// LoadConfigEnvs reads the environments variables into the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig configures build tags values to be used if
// provided then checks the mandatory parameters.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if len(config.Server.Host) == 0 || len(config.Server.Port) == 0 {
		return errors.New("make sure to set valid server address and port in configuration file")
	}

	if len(config.DataFile) == 0 {
		return errors.New("make sure to set a valid data file path in configuration file")
	}

	if config.Journal.Enabled {
		switch config.Journal.Queue {
		case QueueMemory:
		case QueueRedis:
			if len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0 {
				return errors.New("make sure to set valid redis address and port in configuration file")
			}
		default:
			return fmt.Errorf("unknown journal queue %q", config.Journal.Queue)
		}
		if len(config.BoltDB.FilePath) == 0 || len(config.BoltDB.BucketName) == 0 {
			return errors.New("make sure to set valid boltdb file path and bucket name in configuration file")
		}
	}

	return nil
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data.
func LoadAndInitConfigs(gitCommit, gitTag, buildTime string) (*Config, error) {
	config := DefaultConfig()

	// Setup the yaml configuration from file.
	if err := LoadConfigFile("./config.yml", config); err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	// Set the environment configuration.
	if err := godotenv.Load("./config.env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return config, fmt.Errorf("failed to set environment configurations: %s", err)
	}

	// Use environment variables with prefix `LCAP`.
	if err := LoadConfigEnvs("LCAP", config); err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	if err := InitConfig(config, gitCommit, gitTag, buildTime); err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}
