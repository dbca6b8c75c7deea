package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/argusia/argus/internal/constants"
)

// AppConfig represents the entire application configuration
type AppConfig struct {
	App          AppSettings       `yaml:"app"`
	Database     DatabaseSettings  `yaml:"database"`
	Server       ServerSettings    `yaml:"server"`
	JWT          JWTSettings       `yaml:"jwt"`
	Auth         AuthSettings      `yaml:"auth"`
	Logging      LoggingSettings   `yaml:"logging"`
	CORS         CORSSettings      `yaml:"cors"`
	PasswordHash HashSettings      `yaml:"password_hash"`
	Detection    DetectionSettings `yaml:"detection"`
}

// AppSettings contains general application settings
type AppSettings struct {
	Environment string `yaml:"environment" env:"APP_ENV"`
	Name        string `yaml:"name" env:"APP_NAME"`
	Version     string `yaml:"version" env:"APP_VERSION"`
}

// DatabaseSettings contains database connection settings
type DatabaseSettings struct {
	Driver   string `yaml:"driver" env:"DB_DRIVER"`
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT"`
	Name     string `yaml:"name" env:"DB_NAME"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	SSL      bool   `yaml:"ssl" env:"DB_SSL"`
	Path     string `yaml:"path" env:"DB_PATH"` // sqlite only
	MaxConns int    `yaml:"max_conns" env:"DB_MAX_CONNS"`
	MinConns int    `yaml:"min_conns" env:"DB_MIN_CONNS"`
}

// ServerSettings contains HTTP server settings
type ServerSettings struct {
	Host            string        `yaml:"host" env:"SERVER_HOST"`
	Port            int           `yaml:"port" env:"SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
}

// JWTSettings contains JWT authentication settings
type JWTSettings struct {
	Secret string        `yaml:"secret" env:"JWT_SECRET"`
	Expiry time.Duration `yaml:"expiry" env:"JWT_EXPIRY"`
	Issuer string        `yaml:"issuer" env:"JWT_ISSUER"`
}

// AuthSettings controls operator authentication. The API key itself is never
// stored; only its Argon2id hash and salt (see `argus hash-key`).
type AuthSettings struct {
	Enabled    bool   `yaml:"enabled" env:"AUTH_ENABLED"`
	APIKeyHash string `yaml:"api_key_hash" env:"AUTH_API_KEY_HASH"`
	APIKeySalt string `yaml:"api_key_salt" env:"AUTH_API_KEY_SALT"`
}

// LoggingSettings contains logging configuration
type LoggingSettings struct {
	Level      string `yaml:"level" env:"LOG_LEVEL"`
	Format     string `yaml:"format" env:"LOG_FORMAT"`
	RequestLog bool   `yaml:"request_log" env:"LOG_REQUESTS"`
}

// CORSSettings contains CORS configuration
type CORSSettings struct {
	AllowedOrigins   []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`
	AllowCredentials bool     `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS"`
}

// HashSettings contains API key hashing settings
type HashSettings struct {
	Memory      uint32 `yaml:"memory" env:"HASH_MEMORY"`
	Iterations  uint32 `yaml:"iterations" env:"HASH_ITERATIONS"`
	Parallelism uint8  `yaml:"parallelism" env:"HASH_PARALLELISM"`
	SaltLength  uint32 `yaml:"salt_length" env:"HASH_SALT_LENGTH"`
	KeyLength   uint32 `yaml:"key_length" env:"HASH_KEY_LENGTH"`
}

// DetectionSettings contains the parameters of the detection pipeline
type DetectionSettings struct {
	Seed            int64         `yaml:"seed" env:"DETECTION_SEED"`
	Trees           int           `yaml:"trees" env:"DETECTION_TREES"`
	MaxDepth        int           `yaml:"max_depth" env:"DETECTION_MAX_DEPTH"`
	MinSamplesSplit int           `yaml:"min_samples_split" env:"DETECTION_MIN_SAMPLES_SPLIT"`
	TestFraction    float64       `yaml:"test_fraction" env:"DETECTION_TEST_FRACTION"`
	TopN            int           `yaml:"top_n" env:"DETECTION_TOP_N"`
	DefaultPosts    int           `yaml:"default_posts" env:"DETECTION_DEFAULT_POSTS"`
	DefaultComments int           `yaml:"default_comments" env:"DETECTION_DEFAULT_COMMENTS"`
	DefaultRatio    float64       `yaml:"default_ratio" env:"DETECTION_DEFAULT_RATIO"`
	DatasetTTL      time.Duration `yaml:"dataset_ttl" env:"DETECTION_DATASET_TTL"`
	CatalogPath     string        `yaml:"catalog_path" env:"DETECTION_CATALOG_PATH"`
	MaxUploadSize   int64         `yaml:"max_upload_size" env:"DETECTION_MAX_UPLOAD_SIZE"`
}

// ConnectionString returns the data source name for the configured driver
func (dbs *DatabaseSettings) ConnectionString() string {
	switch dbs.Driver {
	case constants.DriverMySQL:
		// MariaDB/MySQL connection string format: username:password@tcp(host:port)/dbname
		password := dbs.Password
		if password != "" {
			password = ":" + password
		}
		return fmt.Sprintf(
			"%s%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&collation=utf8mb4_unicode_ci",
			dbs.User, password, dbs.Host, dbs.Port, dbs.Name,
		)

	case constants.DriverSQLite:
		return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbs.Path)

	default:
		sslParams := constants.PostgresSSLDisable
		if dbs.SSL {
			sslParams = constants.PostgresSSLParams
		}
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s %s",
			dbs.Host, dbs.Port, dbs.User, dbs.Password, dbs.Name, sslParams,
		)
	}
}

// ServerAddress returns the complete server address
func (ss *ServerSettings) ServerAddress() string {
	return fmt.Sprintf("%s:%d", ss.Host, ss.Port)
}

// IsDevelopment checks if the application is running in development mode
func (as *AppSettings) IsDevelopment() bool {
	return strings.ToLower(as.Environment) == constants.EnvDevelopment
}

// IsProduction checks if the application is running in production mode
func (as *AppSettings) IsProduction() bool {
	return strings.ToLower(as.Environment) == constants.EnvProduction
}

// IsTesting checks if the application is running in testing mode
func (as *AppSettings) IsTesting() bool {
	return strings.ToLower(as.Environment) == constants.EnvTesting
}

var (
	// cfg holds the current application configuration
	cfg *AppConfig
)

// Load loads the configuration from a config file and environment variables
func Load(configPath string) (*AppConfig, error) {
	config := &AppConfig{}

	// Load configuration from file if it exists
	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		err = yaml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	// Override with environment variables
	if err := LoadEnv(config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	// Set defaults for missing values
	SetDefaults(config)

	// Validate the configuration
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Save the configuration globally
	cfg = config

	// Log the configuration (but hide sensitive values)
	logConfig(config)

	return config, nil
}

// Get returns the current application configuration
func Get() *AppConfig {
	if cfg == nil {
		log.Fatal().Msg("configuration not loaded")
	}
	return cfg
}

// SetDefaults sets default values for any missing configuration. It is
// exported so offline tools can build a usable config without a file.
func SetDefaults(config *AppConfig) {
	// App defaults
	if config.App.Environment == "" {
		config.App.Environment = constants.EnvDevelopment
	}
	if config.App.Name == "" {
		config.App.Name = "argus"
	}
	if config.App.Version == "" {
		config.App.Version = "1.0.0"
	}

	if config.Server.Port == 0 {
		config.Server.Port = constants.DefaultServerPort
	}
	if config.Server.ReadTimeout == 0 {
		config.Server.ReadTimeout = constants.DefaultReadTimeout
	}
	if config.Server.WriteTimeout == 0 {
		config.Server.WriteTimeout = constants.DefaultWriteTimeout
	}
	if config.Server.ShutdownTimeout == 0 {
		config.Server.ShutdownTimeout = constants.DefaultShutdownTimeout
	}

	// Database defaults
	if config.Database.Driver == "" {
		config.Database.Driver = constants.DefaultDBDriver
	}
	if config.Database.Path == "" {
		config.Database.Path = constants.DefaultSQLitePath
	}
	if config.Database.MaxConns == 0 {
		config.Database.MaxConns = constants.DefaultDBMaxConnections
	}
	if config.Database.MinConns == 0 {
		config.Database.MinConns = constants.DefaultDBMinConnections
	}

	// JWT defaults
	if config.JWT.Expiry == 0 {
		config.JWT.Expiry = constants.DefaultJWTExpiry
	}
	if config.JWT.Issuer == "" {
		config.JWT.Issuer = constants.DefaultJWTIssuer
	}

	// Logging defaults
	if config.Logging.Level == "" {
		config.Logging.Level = constants.DefaultLogLevel
	}
	if config.Logging.Format == "" {
		config.Logging.Format = constants.DefaultLogFormat
	}

	// CORS defaults
	if len(config.CORS.AllowedOrigins) == 0 {
		config.CORS.AllowedOrigins = []string{"*"}
	}

	// Hash defaults
	if config.PasswordHash.Memory == 0 {
		config.PasswordHash.Memory = constants.DefaultPasswordHashMemory
	}
	if config.PasswordHash.Iterations == 0 {
		config.PasswordHash.Iterations = constants.DefaultPasswordHashIterations
	}
	if config.PasswordHash.Parallelism == 0 {
		config.PasswordHash.Parallelism = constants.DefaultPasswordHashParallelism
	}
	if config.PasswordHash.SaltLength == 0 {
		config.PasswordHash.SaltLength = constants.DefaultPasswordHashSaltLength
	}
	if config.PasswordHash.KeyLength == 0 {
		config.PasswordHash.KeyLength = constants.DefaultPasswordHashKeyLength
	}

	// Detection defaults
	d := &config.Detection
	if d.Seed == 0 {
		d.Seed = constants.DefaultSeed
	}
	if d.Trees == 0 {
		d.Trees = constants.DefaultTrees
	}
	if d.MaxDepth == 0 {
		d.MaxDepth = constants.DefaultMaxDepth
	}
	if d.MinSamplesSplit == 0 {
		d.MinSamplesSplit = constants.DefaultMinSamplesSplit
	}
	if d.TestFraction == 0 {
		d.TestFraction = constants.DefaultTestFraction
	}
	if d.TopN == 0 {
		d.TopN = constants.DefaultTopN
	}
	if d.DefaultPosts == 0 {
		d.DefaultPosts = constants.DefaultGeneratedPosts
	}
	if d.DefaultComments == 0 {
		d.DefaultComments = constants.DefaultGeneratedComments
	}
	if d.DefaultRatio == 0 {
		d.DefaultRatio = constants.DefaultSuspiciousRatio
	}
	if d.DatasetTTL == 0 {
		d.DatasetTTL = constants.DefaultDatasetTTL
	}
	if d.MaxUploadSize == 0 {
		d.MaxUploadSize = constants.DefaultMaxUploadSize
	}
}

// validateConfig validates that the configuration has all required values
func validateConfig(config *AppConfig) error {
	// Validate environment
	env := strings.ToLower(config.App.Environment)
	if env != constants.EnvDevelopment && env != constants.EnvTesting && env != constants.EnvProduction {
		// Instead of failing, use a default and warn
		log.Warn().Str("environment", config.App.Environment).Msg("Invalid environment, defaulting to development")
		config.App.Environment = constants.EnvDevelopment
	}

	// In production, ensure we have a proper JWT secret
	if config.App.IsProduction() && (config.JWT.Secret == "" || config.JWT.Secret == "changeme") {
		return fmt.Errorf("JWT secret must be set in production")
	}

	if config.App.IsProduction() && !config.Auth.Enabled {
		return fmt.Errorf("operator authentication must be enabled in production")
	}

	if config.Auth.Enabled && (config.Auth.APIKeyHash == "" || config.Auth.APIKeySalt == "" || config.JWT.Secret == "") {
		return fmt.Errorf("auth requires api_key_hash, api_key_salt and a JWT secret")
	}

	// Database validation
	switch config.Database.Driver {
	case constants.DriverPostgres, constants.DriverMySQL:
		if config.Database.User == "" {
			return fmt.Errorf("database user must be set")
		}
	case constants.DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver: %s", config.Database.Driver)
	}

	// Validate log level
	logLevel := strings.ToLower(config.Logging.Level)
	validLevels := []string{"debug", "info", "warn", "error", "fatal", "panic"}
	validLevel := false
	for _, level := range validLevels {
		if logLevel == level {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	// Detection parameters
	d := config.Detection
	if d.Trees < 1 {
		return fmt.Errorf("detection.trees must be positive")
	}
	if d.TestFraction <= 0 || d.TestFraction >= 1 {
		return fmt.Errorf("detection.test_fraction must be in (0, 1)")
	}
	if d.DefaultRatio < 0 || d.DefaultRatio > 1 {
		return fmt.Errorf("detection.default_ratio must be in [0, 1]")
	}
	if d.CatalogPath != "" {
		if _, err := os.Stat(d.CatalogPath); err != nil {
			return fmt.Errorf("detection.catalog_path: %w", err)
		}
	}

	return nil
}

// logConfig logs the current configuration, masking sensitive values
func logConfig(config *AppConfig) {
	log.Info().
		Str("environment", config.App.Environment).
		Str("version", config.App.Version).
		Str("server", config.Server.ServerAddress()).
		Str("db_driver", config.Database.Driver).
		Str("db_host", config.Database.Host).
		Int("db_port", config.Database.Port).
		Str("db_name", config.Database.Name).
		Str("log_level", config.Logging.Level).
		Bool("auth_enabled", config.Auth.Enabled).
		Int("trees", config.Detection.Trees).
		Int64("seed", config.Detection.Seed).
		Msg("Configuration loaded")
}
