package config

import (
	"github.com/spf13/viper"
)

// DefaultTokenURL is the Spotify accounts service token endpoint used when
// SPOTBIT_TOKEN_URL is not set.
const DefaultTokenURL = "https://accounts.spotify.com/api/token"

// Config holds the resolved application configuration.
//
// All values come from the process environment; the client core never reads
// the environment itself and only consumes this struct.
type Config struct {
	// ClientID is the Spotify application client ID (SPOTBIT_CLIENT_ID).
	ClientID string

	// ClientSecret is the Spotify application client secret (SPOTBIT_CLIENT_SECRET).
	ClientSecret string

	// TokenURL is the OAuth2 token endpoint (SPOTBIT_TOKEN_URL).
	TokenURL string
}

// Load reads configuration from the environment.
//
// Missing credentials are left empty; validation happens where the values
// are consumed so explicit constructor arguments can still take precedence.
func Load() *Config {
	v := viper.New()

	v.SetEnvPrefix("SPOTBIT")
	v.AutomaticEnv()

	v.SetDefault("token_url", DefaultTokenURL)

	return &Config{
		ClientID:     v.GetString("client_id"),
		ClientSecret: v.GetString("client_secret"),
		TokenURL:     v.GetString("token_url"),
	}
}
