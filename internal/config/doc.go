// Package config provides environment-based configuration.
//
// Loads from .env file (godotenv) in main, maps to Config struct via
// caarlos0/env struct tags. Validates backend selection and chat policy
// bounds at load time.
package config
