package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/ricardag/mailmirror/internal/logger"
	"github.com/ricardag/mailmirror/internal/tracing"
)

type Config struct {
	AppConfig       *AppConfig
	Logger          *logger.Config
	Tracing         *tracing.JaegerConfig
	DatabaseConfig  *DatabaseConfig
	SyncConfig      *SyncConfig
	OutlookConfig   *OutlookConfig
	GmailConfig     *GmailConfig
	AuthConfig      *AuthConfig
	R2StorageConfig *R2StorageConfig
}

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:       &AppConfig{},
		Logger:          &logger.Config{},
		Tracing:         &tracing.JaegerConfig{},
		DatabaseConfig:  &DatabaseConfig{},
		SyncConfig:      &SyncConfig{},
		OutlookConfig:   &OutlookConfig{},
		GmailConfig:     &GmailConfig{},
		AuthConfig:      &AuthConfig{},
		R2StorageConfig: &R2StorageConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		log.Fatalf("Error loading mailmirror config: %v", err)
	}

	return config, nil
}
