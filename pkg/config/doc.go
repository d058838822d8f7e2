// Package config loads application configuration from environment variables
// into tagged structs, combining github.com/joho/godotenv for .env files with
// github.com/caarlos0/env/v11 for parsing.
//
// Each configuration type is parsed once per process and cached, so every
// component can call Load for its own config struct without coordinating:
//
//	type StripeConfig struct {
//	    SecretKey     string `env:"STRIPE_SECRET_KEY,required"`
//	    WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required"`
//	}
//
//	var cfg StripeConfig
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatal(err)
//	}
package config
