package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

type MailConfig struct {
	Host     string // empty: log confirmation links instead of sending mails
	Port     int
	Username string
	Password string
	From     string
}

// Config is assembled from defaults, an ini file and the environment. Command line flags are applied by the caller.
type Config struct {
	Listen    string
	Base      string
	PublicURL string
	DB        string
	Documents string
	LogLevel  string
	LogFormat string // "console" or "json"
	Mail      MailConfig
}

func DefaultConfig() Config {
	return Config{
		Listen:    "127.0.0.1:8080",
		PublicURL: "http://127.0.0.1:8080",
		DB:        "sqlite3:balcconator.sqlite3?_busy_timeout=10000&_journal=WAL&_sync=NORMAL&_foreign_keys=1",
		Documents: "./documents",
		LogLevel:  "info",
		LogFormat: "console",
		Mail: MailConfig{
			Port: 587,
			From: "balcconator@localhost",
		},
	}
}

// LoadConfig reads the ini file at iniPath, if it exists, and then the environment.
// A .env file in the working directory is loaded into the environment first. It does not override variables which are already set.
func LoadConfig(iniPath string) (Config, error) {

	var cfg = DefaultConfig()

	if iniPath != "" {
		if _, err := os.Stat(iniPath); err == nil {
			if err := cfg.loadIni(iniPath); err != nil {
				return cfg, err
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return cfg, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("loading .env: %w", err)
	}

	return cfg, cfg.loadEnv()
}

func (cfg *Config) loadIni(path string) error {

	file, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	var server = file.Section("server")
	cfg.Listen = server.Key("listen").MustString(cfg.Listen)
	cfg.Base = server.Key("base").MustString(cfg.Base)
	cfg.PublicURL = server.Key("public_url").MustString(cfg.PublicURL)
	cfg.LogLevel = server.Key("log_level").MustString(cfg.LogLevel)
	cfg.LogFormat = server.Key("log_format").MustString(cfg.LogFormat)

	cfg.DB = file.Section("database").Key("url").MustString(cfg.DB)
	cfg.Documents = file.Section("documents").Key("location").MustString(cfg.Documents)

	var mail = file.Section("mail")
	cfg.Mail.Host = mail.Key("host").MustString(cfg.Mail.Host)
	cfg.Mail.Port = mail.Key("port").MustInt(cfg.Mail.Port)
	cfg.Mail.Username = mail.Key("username").MustString(cfg.Mail.Username)
	cfg.Mail.Password = mail.Key("password").MustString(cfg.Mail.Password)
	cfg.Mail.From = mail.Key("from").MustString(cfg.Mail.From)

	return nil
}

func (cfg *Config) loadEnv() error {

	var strs = map[string]*string{
		"BALCCONATOR_LISTEN":     &cfg.Listen,
		"BALCCONATOR_BASE":       &cfg.Base,
		"BALCCONATOR_PUBLIC_URL": &cfg.PublicURL,
		"BALCCONATOR_DB":         &cfg.DB,
		"DOCUMENTS_LOCATION":     &cfg.Documents,
		"SMTP_HOST":              &cfg.Mail.Host,
		"SMTP_USERNAME":          &cfg.Mail.Username,
		"SMTP_PASSWORD":          &cfg.Mail.Password,
		"SMTP_FROM":              &cfg.Mail.From,
	}
	for name, ptr := range strs {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*ptr = v
		}
	}

	if v, ok := os.LookupEnv("SMTP_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SMTP_PORT: %w", err)
		}
		cfg.Mail.Port = port
	}

	return nil
}
