package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr       string
	DBPath     string
	JWT        JWT
	Identity   Identity
	AI         AI
	Speech     Speech
	RateLimits RateLimits
}

type JWT struct {
	Secret   string
	Issuer   string
	Audience string
	TokenTTL time.Duration
}

// Identity points at the external auth service that owns sign-in,
// sign-up, and password-reset state. It is never reimplemented here.
type Identity struct {
	BaseURL string
	APIKey  string
}

type AI struct {
	BaseURL string
	APIKey  string
	Model   string
}

type Speech struct {
	Binary string
	Voice  string
	Volume int
	Rate   int
}

type RateLimits struct {
	PostPerMinute    int
	CommentPerMinute int
	LikePerMinute    int
}

func Load() Config {
	addr := envString("INKWELL_ADDR", "")
	if addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		} else {
			addr = ":8080"
		}
	}
	cfg := Config{
		Addr:   addr,
		DBPath: envString("INKWELL_DB", "inkwell.db"),
		JWT: JWT{
			Secret:   envString("INKWELL_JWT_SECRET", "dev-jwt-secret-change-me"),
			Issuer:   envString("INKWELL_JWT_ISSUER", "inkwell"),
			Audience: envString("INKWELL_JWT_AUDIENCE", "inkwell-web"),
			TokenTTL: envDuration("INKWELL_TOKEN_TTL", 3*time.Hour),
		},
		Identity: Identity{
			BaseURL: envString("INKWELL_IDENTITY_URL", "http://localhost:9999"),
			APIKey:  envString("INKWELL_IDENTITY_KEY", ""),
		},
		AI: AI{
			BaseURL: envString("INKWELL_AI_URL", "https://generativelanguage.googleapis.com"),
			APIKey:  envString("INKWELL_AI_KEY", ""),
			Model:   envString("INKWELL_AI_MODEL", "gemini-2.0-flash"),
		},
		Speech: Speech{
			Binary: envString("INKWELL_SPEECH_BIN", "espeak-ng"),
			Voice:  envString("INKWELL_SPEECH_VOICE", "en+f3"),
			Volume: envInt("INKWELL_SPEECH_VOLUME", 100),
			Rate:   envInt("INKWELL_SPEECH_RATE", 175),
		},
		RateLimits: RateLimits{
			PostPerMinute:    envInt("INKWELL_RL_POST_PER_MIN", 10),
			CommentPerMinute: envInt("INKWELL_RL_COMMENT_PER_MIN", 30),
			LikePerMinute:    envInt("INKWELL_RL_LIKE_PER_MIN", 120),
		},
	}

	return cfg
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
