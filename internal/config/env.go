package config

import (
	"fmt"
	"strconv"
	"strings"
)

type lookupFunc func(key string) (string, bool)

func applyEnv(cfg *AppConfig, lookup lookupFunc) error {
	var errs []string
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s=%q is not an integer", key, v))
				return
			}
			*dst = n
		}
	}

	integer("PORT", &cfg.Port)
	str("ENV", &cfg.Env)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("OVERRIDE_COLOR", &cfg.Transform.Color)
	integer("MAX_DEPTH", &cfg.Transform.MaxDepth)
	integer("RATE_LIMIT_BURST", &cfg.RateLimit.Burst)
	str("METRICS_USER", &cfg.Metrics.User)
	str("METRICS_PASS", &cfg.Metrics.Pass)
	str("PPROF_SECRET", &cfg.PprofSecret)

	if v, ok := lookup("MAX_BODY_BYTES"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("MAX_BODY_BYTES=%q is not an integer", v))
		} else {
			cfg.MaxBodyBytes = n
		}
	}
	if v, ok := lookup("RATE_LIMIT_RPS"); ok && strings.TrimSpace(v) != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("RATE_LIMIT_RPS=%q is not a number", v))
		} else {
			cfg.RateLimit.RPS = f
		}
	}
	if v, ok := lookup("TRUST_FORWARDED_FOR"); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Sprintf("TRUST_FORWARDED_FOR=%q is not a boolean", v))
		} else {
			cfg.RateLimit.TrustForwardedFor = b
		}
	}
	if v, ok := lookup("ALLOWED_ORIGINS"); ok && strings.TrimSpace(v) != "" {
		cfg.AllowedOrigins = strings.Split(v, ",")
	}

	if len(errs) > 0 {
		return fmt.Errorf("environment: %s", strings.Join(errs, "; "))
	}
	return nil
}
