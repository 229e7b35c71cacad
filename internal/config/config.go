package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	IdentitySQLite = "sqlite"
	IdentityMongo  = "mongo"
)

type Config struct {
	Env         string           `yaml:"env" env:"ENV" env-default:"local"`
	StoragePath string           `yaml:"storage_path" env:"STORAGE_PATH" env-required:"true"`
	Migrations  MigrationsConfig `yaml:"migrations"`
	Identity    IdentityConfig   `yaml:"identity"`
	Mongo       MongoConfig      `yaml:"mongo"`
	Auth        AuthConfig       `yaml:"auth"`
	HTTP        HTTPConfig       `yaml:"http"`
	Grpc        GRPCConfig       `yaml:"grpc"`
}

type MigrationsConfig struct {
	// Auto applies pending migrations when the server starts.
	Auto bool `yaml:"auto" env:"MIGRATIONS_AUTO" env-default:"false"`
}

// IdentityConfig selects where users, roles and refresh tokens live.
// The catalog is always stored in SQLite.
type IdentityConfig struct {
	Driver string `yaml:"driver" env:"IDENTITY_DRIVER" env-default:"sqlite"`
}

type MongoConfig struct {
	URI      string `yaml:"uri" env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"shop"`
}

type AuthConfig struct {
	AccessSecret  string        `yaml:"access_secret" env:"AUTH_ACCESS_SECRET" env-required:"true"`
	RefreshSecret string        `yaml:"refresh_secret" env:"AUTH_REFRESH_SECRET" env-required:"true"`
	AccessTTL     time.Duration `yaml:"access_ttl" env:"AUTH_ACCESS_TTL" env-default:"15m"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl" env:"AUTH_REFRESH_TTL" env-default:"720h"`
}

type HTTPConfig struct {
	Port        int           `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	Timeout     time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

type GRPCConfig struct {
	Port       int  `yaml:"port" env:"GRPC_PORT" env-default:"44044"`
	Reflection bool `yaml:"reflection" env:"GRPC_REFLECTION" env-default:"false"`
}

// MustLoad reads the config from the path given by --config flag or CONFIG_PATH env.
func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	return LoadConfig(path)
}

func LoadConfig(path string) *Config {
	var cfg Config

	if _, err := os.Stat(path); os.IsNotExist(err) {
		panic("config file not found: " + path)
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		panic("failed to read config: " + err.Error())
	}

	if cfg.Identity.Driver != IdentitySQLite && cfg.Identity.Driver != IdentityMongo {
		panic("unknown identity driver: " + cfg.Identity.Driver)
	}

	if cfg.Auth.AccessSecret == cfg.Auth.RefreshSecret {
		panic("auth.access_secret and auth.refresh_secret must differ")
	}

	return &cfg
}

// fetchConfigPath gives priority to the flag over the env variable.
func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
