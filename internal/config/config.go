package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	HTTPAddr string
	LiveAddr string

	ReplyDelayBase   time.Duration
	ReplyDelayJitter time.Duration
	RandomSeed       int64

	LogLimit     int
	DefaultTheme string
	ThemesFile   string
	MessagesDir  string

	SessionTTL  time.Duration
	MaxSessions int

	AllowedOrigins []string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		HTTPAddr:         ":8080",
		LiveAddr:         ":8081",
		ReplyDelayBase:   600 * time.Millisecond,
		ReplyDelayJitter: 800 * time.Millisecond,
		LogLimit:         25,
		DefaultTheme:     "cyberpunk",
		SessionTTL:       time.Hour,
		MaxSessions:      200,
	}

	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}
	if v, ok := os.LookupEnv("LIVE_ADDR"); ok {
		// empty disables the websocket listener
		cfg.LiveAddr = strings.TrimSpace(v)
	}

	if v := strings.TrimSpace(os.Getenv("REPLY_DELAY_BASE_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.ReplyDelayBase = time.Duration(n) * time.Millisecond
		}
	}
	if v := strings.TrimSpace(os.Getenv("REPLY_DELAY_JITTER_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.ReplyDelayJitter = time.Duration(n) * time.Millisecond
		}
	}
	if v := strings.TrimSpace(os.Getenv("RANDOM_SEED")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.RandomSeed = n
		}
	}

	if v := strings.TrimSpace(os.Getenv("LOG_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LogLimit = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("DEFAULT_THEME")); v != "" {
		cfg.DefaultTheme = strings.ToLower(v)
	}
	cfg.ThemesFile = strings.TrimSpace(os.Getenv("THEMES_FILE"))
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))

	if v := strings.TrimSpace(os.Getenv("SESSION_TTL")); v != "" { // seconds or a duration such as 30m
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SessionTTL = time.Duration(n) * time.Second
		} else if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.SessionTTL = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("MAX_SESSIONS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxSessions = n
		}
	}

	if v := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); v != "" {
		for _, p := range strings.Split(v, ",") {
			s := strings.TrimSpace(p)
			if s != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, s)
			}
		}
	}

	if cfg.HTTPAddr == cfg.LiveAddr {
		return nil, errors.New("HTTP_ADDR and LIVE_ADDR must differ")
	}

	return cfg, nil
}
