package config

import (
	"flag"
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string     `yaml:"env" env-required:"true" env-default:"production"`
	PGSQL      PQSQL      `yaml:"pgsql" env-required:"true"`
	Redis      Redis      `yaml:"redis" env-required:"true"`
	MinIO      MinIO      `yaml:"minio" env-required:"true"`
	Telegram   Telegram   `yaml:"telegram"`
	Flow       Flow       `yaml:"flow"`
	Sweeper    Sweeper    `yaml:"sweeper"`
	HTTPServer HTTPServer `yaml:"http_server" env-required:"true"`
	JWTSecret  string     `yaml:"jwt_secret" env-required:"true" env-default:"super_secret_key"`
}

type HTTPServer struct {
	Address string `yaml:"address" env-required:"true" env-default:"localhost:8080"`
}

type PQSQL struct {
	Host     string `yaml:"host" env-required:"true" env-default:"localhost"`
	Port     string `yaml:"port" env-required:"true" env-default:"5432"`
	User     string `yaml:"user" env-required:"true" env-default:"postgres"`
	Password string `yaml:"password" env-required:"true" env-default:"password"`
	DBName   string `yaml:"dbname" env-required:"true" env-default:"mediaflow_db"`
	SSLMode  string `yaml:"sslmode" env-required:"true" env-default:"disable"`
}

type Redis struct {
	Address  string `yaml:"address" env-default:"localhost:6379"`
	Password string `yaml:"password" env-default:""`
	DB       int    `yaml:"db" env-default:"0"`
}

type MinIO struct {
	Endpoint        string `yaml:"endpoint" env-default:"localhost:9000"`
	AccessKeyID     string `yaml:"access_key_id" env-required:"true"`
	SecretAccessKey string `yaml:"secret_access_key" env-required:"true"`
	BucketName      string `yaml:"bucket_name" env-default:"mediaflow"`
	UseSSL          bool   `yaml:"use_ssl" env-default:"false"`
}

type Telegram struct {
	BotToken string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
	// APIBase is overridable for tests; defaults to the public Bot API.
	APIBase        string `yaml:"api_base" env-default:"https://api.telegram.org"`
	RequestTimeout int    `yaml:"request_timeout" env-default:"30"`
}

type Flow struct {
	// TTL is the lifetime of an unfinished flow, in seconds. Flows left open
	// longer than this are silently reclaimed.
	TTL int `yaml:"ttl" env-default:"900"`
}

type Sweeper struct {
	Interval int `yaml:"interval" env-default:"3600"`
	// Retention is the minimum object age, in seconds, before an uncommitted
	// upload is considered orphaned.
	Retention int `yaml:"retention" env-default:"86400"`
}

func MustLoad() *Config {
	var configPath string

	configPath = os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to config file")
		flag.Parse()
		configPath = *flags

		if configPath == "" {
			log.Fatal("config path must be provided")
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist at path: %s", configPath)
	}

	var cfg Config

	err := cleanenv.ReadConfig(configPath, &cfg)

	if err != nil {
		log.Fatalf("failed to read config: %s", err)
	}

	return &cfg
}
