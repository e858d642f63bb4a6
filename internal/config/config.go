package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string `yaml:"env" env:"ENV" env-required:"true"`
	BackupsPath string `yaml:"backups_path" env:"BACKUPS_PATH" env-default:"./backups"`
	Database    `yaml:"database"`
	HTTPServer  `yaml:"http_server"`
	Catalog     CatalogConfig    `yaml:"catalog"`
	Storefront  StorefrontConfig `yaml:"storefront"`
	UpdateCheck UpdateCheck      `yaml:"update_check"`
}

type Database struct {
	Host       string `yaml:"host" env:"HOST" env-default:"localhost"`
	Port       int    `yaml:"port" env:"PORT" env-required:"true"`
	UsernameDB string `yaml:"username-db" env:"USERNAMEDB" env-required:"true"`
	Password   string `yaml:"password" env:"PASSWORD"`
	DBName     string `yaml:"dbname" env:"DBNAME" env-default:"gametracker"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	Cors        []string      `yaml:"cors" env-default:"[http://localhost:3000]"`
}

type CatalogConfig struct {
	BaseURL string `yaml:"base_url" env:"CATALOG_BASE_URL" env-default:"https://api.rawg.io/api"`
	APIKey  string `yaml:"api_key" env:"CATALOG_API_KEY" env-required:"true"`
}

type StorefrontConfig struct {
	StoreAPIBase string `yaml:"store_api_base" env:"STORE_API_BASE" env-default:"https://store.steampowered.com/api"`
	NewsBase     string `yaml:"news_base" env:"STORE_NEWS_BASE" env-default:"https://api.steampowered.com/ISteamNews/GetNewsForApp/v2"`
}

type UpdateCheck struct {
	Interval time.Duration `yaml:"interval" env:"UPDATE_CHECK_INTERVAL" env-default:"1h"`
}

func MustLoad() *Config {
	configPath := flag.String("config", "", "path to config yaml file")
	flag.Parse()
	if *configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}

	if _, err := os.Stat(*configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", *configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(*configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s - %s", *configPath, err)
	}

	return &cfg
}

func (cfg *Database) GetDSN() string {
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?parseTime=true",
		cfg.UsernameDB,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
	)
}
