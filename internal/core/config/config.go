package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}

type App struct {
	Name string
	Env  string
	HTTP HTTP
}

type Log struct {
	Level string
	JSON  bool
	// File 非空时写文件并按大小切割
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	Driver             string
	DSN                string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

// Listing 用户列表分页参数
type Listing struct {
	IndexPageSize   int `mapstructure:"indexPageSize"`
	DefaultPageSize int `mapstructure:"defaultPageSize"`
	MaxPageSize     int `mapstructure:"maxPageSize"`
}

type Config struct {
	App     App
	Log     Log
	JWT     JWT
	DB      DB
	Redis   Redis   `mapstructure:"redis"`
	Listing Listing `mapstructure:"listing"`
}

func Load(path string) *Config {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("log.maxSizeMB", 100)
	v.SetDefault("log.maxBackups", 7)
	v.SetDefault("log.maxAgeDays", 30)

	v.SetDefault("listing.indexPageSize", 3)
	v.SetDefault("listing.defaultPageSize", 10)
	v.SetDefault("listing.maxPageSize", 100)

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("read config: %v", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		log.Fatalf("unmarshal config: %v", err)
	}
	return &c
}
