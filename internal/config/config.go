package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/andresuchdata/produced-go/internal/produced"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Cache    CacheConfig
	Storage  StorageConfig
	Drive    DriveConfig
	Schedule ScheduleConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
	MaxUploadMB    int64
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns a lib/pq style connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// URL returns a postgres:// connection URL.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

type AppConfig struct {
	DataDir   string
	OutputDir string

	StockFile  string
	PackedFile string
	TruckFile  string

	MaterialProfile   string
	MaterialOverrides string
	Workers           int
	MissingStrategy   string
	AcceptFallback    bool
	DateOrder         string // dmy or mdy
}

type CacheConfig struct {
	Enabled       bool
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	TTLSeconds    int
}

type StorageConfig struct {
	Enabled   bool
	Backend   string // minio or s3
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

type DriveConfig struct {
	Enabled         bool
	CredentialsFile string
	FolderID        string
}

type ScheduleConfig struct {
	Enabled bool
	Cron    string
	Source  string // local, minio or drive
}

type LogConfig struct {
	Level  string
	Format string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		v := viper.GetViper()
		SetDefaults(v)

		// Read from environment variables
		v.AutomaticEnv()

		instance = FromViper(v)

		ensureDir(instance.App.DataDir)
		ensureDir(instance.App.OutputDir)
	})

	return instance
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 60)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("SERVER_MAX_UPLOAD_MB", 32)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "produced")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("APP_DATA_DIR", "./data/input")
	v.SetDefault("APP_OUTPUT_DIR", "./data/output")
	v.SetDefault("APP_STOCK_FILE", "stock.csv")
	v.SetDefault("APP_PACKED_FILE", "packed.csv")
	v.SetDefault("APP_TRUCK_FILE", "cisterne.csv")
	v.SetDefault("MATERIAL_PROFILE", produced.ProfileStandard)
	v.SetDefault("MATERIAL_OVERRIDES", "")
	v.SetDefault("APP_WORKERS", 4)
	v.SetDefault("APP_MISSING_STRATEGY", "fail")
	v.SetDefault("APP_ACCEPT_TIMESTAMP_FALLBACK", false)
	v.SetDefault("APP_DATE_ORDER", "dmy")

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL_SECONDS", 300)

	v.SetDefault("STORAGE_ENABLED", false)
	v.SetDefault("STORAGE_BACKEND", "minio")
	v.SetDefault("STORAGE_REGION", "")
	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "")
	v.SetDefault("MINIO_SECRET_KEY", "")
	v.SetDefault("MINIO_BUCKET", "produced")
	v.SetDefault("MINIO_PREFIX", "exports/")
	v.SetDefault("MINIO_USE_SSL", false)

	v.SetDefault("DRIVE_ENABLED", false)
	v.SetDefault("DRIVE_CREDENTIALS_FILE", "")
	v.SetDefault("DRIVE_FOLDER_ID", "")

	v.SetDefault("SCHEDULE_ENABLED", false)
	v.SetDefault("SCHEDULE_CRON", "30 6 * * *")
	v.SetDefault("SCHEDULE_SOURCE", "local")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			MaxUploadMB:    v.GetInt64("SERVER_MAX_UPLOAD_MB"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		App: AppConfig{
			DataDir:           v.GetString("APP_DATA_DIR"),
			OutputDir:         v.GetString("APP_OUTPUT_DIR"),
			StockFile:         v.GetString("APP_STOCK_FILE"),
			PackedFile:        v.GetString("APP_PACKED_FILE"),
			TruckFile:         v.GetString("APP_TRUCK_FILE"),
			MaterialProfile:   v.GetString("MATERIAL_PROFILE"),
			MaterialOverrides: v.GetString("MATERIAL_OVERRIDES"),
			Workers:           v.GetInt("APP_WORKERS"),
			MissingStrategy:   v.GetString("APP_MISSING_STRATEGY"),
			AcceptFallback:    v.GetBool("APP_ACCEPT_TIMESTAMP_FALLBACK"),
			DateOrder:         v.GetString("APP_DATE_ORDER"),
		},
		Cache: CacheConfig{
			Enabled:       v.GetBool("CACHE_ENABLED"),
			RedisURL:      v.GetString("REDIS_URL"),
			RedisHost:     v.GetString("REDIS_HOST"),
			RedisPort:     v.GetString("REDIS_PORT"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			TTLSeconds:    v.GetInt("CACHE_TTL_SECONDS"),
		},
		Storage: StorageConfig{
			Enabled:   v.GetBool("STORAGE_ENABLED"),
			Backend:   v.GetString("STORAGE_BACKEND"),
			Region:    v.GetString("STORAGE_REGION"),
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			Prefix:    v.GetString("MINIO_PREFIX"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
		},
		Drive: DriveConfig{
			Enabled:         v.GetBool("DRIVE_ENABLED"),
			CredentialsFile: v.GetString("DRIVE_CREDENTIALS_FILE"),
			FolderID:        v.GetString("DRIVE_FOLDER_ID"),
		},
		Schedule: ScheduleConfig{
			Enabled: v.GetBool("SCHEDULE_ENABLED"),
			Cron:    v.GetString("SCHEDULE_CRON"),
			Source:  strings.ToLower(v.GetString("SCHEDULE_SOURCE")),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}

// Materials resolves the configured material profile and overrides into a
// fresh table.
func (a AppConfig) Materials() (produced.MaterialTable, error) {
	table, err := produced.MaterialsForProfile(a.MaterialProfile)
	if err != nil {
		return nil, err
	}
	overrides, err := produced.ParseMaterialOverrides(a.MaterialOverrides)
	if err != nil {
		return nil, err
	}
	return table.With(overrides), nil
}

func ensureDir(dir string) {
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
