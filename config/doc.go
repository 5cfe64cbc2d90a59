// Package config loads injector configuration.
//
// Files are read with Viper, a .env file is loaded with godotenv, and
// INJECTKIT_-prefixed environment variables override both.
//
//	cfg, err := config.Load("orders")
//	container := di.NewFromConfig(cfg)
package config
