// Package config loads typed configuration structs from environment
// variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11: the
// default .env file is loaded once per process, then environment variables
// are parsed into any struct annotated with `env` field tags. Each config
// type is parsed at most once; later calls return the cached copy, so every
// package can declare and load its own Config without coordination.
//
//	type Config struct {
//		WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET,required"`
//		TrialDays     int    `env:"TRIAL_DAYS" envDefault:"14"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
package config
