package gateway

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"api-gateway/middleware/transform"
)

// Config é a configuração explícita do Gateway, passada ao construtor.
// Nada de singleton global: instâncias independentes podem coexistir (útil em
// testes e em processos que servem mais de um domínio).
type Config struct {
	// Version é a versão reportada em X-Gateway-Version e no envelope de erro.
	Version string

	RateLimit      RateLimitConfig
	CircuitBreaker BreakerConfig
	Versioning     VersioningConfig
	Security       SecurityConfig
	CORS           transform.CORS
	Concurrency    ConcurrencyConfig
}

type RateLimitConfig struct {
	Enabled            bool
	DefaultLimit       int
	DefaultPeriod      time.Duration
	KeyHeader          string
	TrustXForwardedFor bool
	Redis              RedisConfig
}

// RedisConfig habilita o contador distribuído. Ausente/desabilitado significa
// modo puramente local.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	Prefix   string
	Timeout  time.Duration
}

type BreakerConfig struct {
	Enabled                 bool
	DefaultFailureThreshold int
	DefaultRecoveryTime     time.Duration
}

type VersioningConfig struct {
	Enabled        bool
	Strategy       string // url_path | query_param | header | content_type
	DefaultVersion string
	HeaderName     string
	QueryParam     string
}

type SecurityConfig struct {
	Headers           bool
	SSLRedirect       bool
	MaskSensitiveData bool
	ExtraHeaders      map[string]string
}

type ConcurrencyConfig struct {
	Max            int
	AcquireTimeout time.Duration
}

// DefaultConfig devolve uma configuração funcional de desenvolvimento.
func DefaultConfig() Config {
	return Config{
		Version: "dev",
		RateLimit: RateLimitConfig{
			Enabled:       true,
			DefaultLimit:  100,
			DefaultPeriod: time.Minute,
			Redis: RedisConfig{
				Prefix:  "ratelimit:counter",
				Timeout: 250 * time.Millisecond,
			},
		},
		CircuitBreaker: BreakerConfig{
			Enabled:                 true,
			DefaultFailureThreshold: 5,
			DefaultRecoveryTime:     30 * time.Second,
		},
		Versioning: VersioningConfig{
			Enabled:        true,
			Strategy:       "url_path",
			DefaultVersion: "1",
		},
		Security: SecurityConfig{
			Headers:           true,
			MaskSensitiveData: true,
		},
		CORS: transform.CORS{Enabled: true},
	}
}

// Validate rejeita configuração malformada na construção; valores
// não-positivos nunca chegam ao caminho da requisição.
func (c Config) Validate() error {
	if c.RateLimit.Enabled {
		if c.RateLimit.DefaultLimit <= 0 {
			return errors.New("gateway: rate limit default deve ser > 0")
		}
		if c.RateLimit.DefaultPeriod <= 0 {
			return errors.New("gateway: rate limit period deve ser > 0")
		}
		if c.RateLimit.Redis.Enabled && strings.TrimSpace(c.RateLimit.Redis.Addr) == "" {
			return errors.New("gateway: redis addr é obrigatório com redis habilitado")
		}
	}
	if c.CircuitBreaker.Enabled {
		if c.CircuitBreaker.DefaultFailureThreshold <= 0 {
			return errors.New("gateway: failure threshold default deve ser > 0")
		}
		if c.CircuitBreaker.DefaultRecoveryTime <= 0 {
			return errors.New("gateway: recovery time default deve ser > 0")
		}
	}
	if c.Concurrency.Max < 0 {
		return errors.New("gateway: concurrency max deve ser >= 0")
	}
	return nil
}

// FromEnv monta a Config a partir de variáveis de ambiente, todas opcionais
// com default (ver DefaultConfig).
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	cfg.Version = getenvDefault("GATEWAY_VERSION", cfg.Version)

	cfg.RateLimit.Enabled = getenvBoolDefault("RATE_LIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.DefaultLimit = getenvIntDefault("RATE_LIMIT_DEFAULT", cfg.RateLimit.DefaultLimit)
	cfg.RateLimit.DefaultPeriod = time.Duration(getenvIntDefault("RATE_LIMIT_PERIOD_SECONDS", int(cfg.RateLimit.DefaultPeriod/time.Second))) * time.Second
	cfg.RateLimit.KeyHeader = os.Getenv("RATE_LIMIT_KEY_HEADER")
	cfg.RateLimit.TrustXForwardedFor = getenvBoolDefault("TRUST_XFF", false)

	cfg.RateLimit.Redis.Enabled = getenvBoolDefault("REDIS_ENABLED", false)
	cfg.RateLimit.Redis.Addr = getenvDefault("REDIS_ADDR", "")
	cfg.RateLimit.Redis.Password = os.Getenv("REDIS_PASSWORD")
	cfg.RateLimit.Redis.DB = getenvIntDefault("REDIS_DB", 0)
	cfg.RateLimit.Redis.Prefix = getenvDefault("REDIS_PREFIX", cfg.RateLimit.Redis.Prefix)
	cfg.RateLimit.Redis.Timeout = getenvDurationDefault("REDIS_TIMEOUT", cfg.RateLimit.Redis.Timeout)

	cfg.CircuitBreaker.Enabled = getenvBoolDefault("CIRCUIT_BREAKER_ENABLED", cfg.CircuitBreaker.Enabled)
	cfg.CircuitBreaker.DefaultFailureThreshold = getenvIntDefault("CIRCUIT_BREAKER_THRESHOLD", cfg.CircuitBreaker.DefaultFailureThreshold)
	cfg.CircuitBreaker.DefaultRecoveryTime = time.Duration(getenvIntDefault("CIRCUIT_BREAKER_RECOVERY_SECONDS", int(cfg.CircuitBreaker.DefaultRecoveryTime/time.Second))) * time.Second

	cfg.Versioning.Enabled = getenvBoolDefault("VERSIONING_ENABLED", cfg.Versioning.Enabled)
	cfg.Versioning.Strategy = getenvDefault("VERSIONING_STRATEGY", cfg.Versioning.Strategy)
	cfg.Versioning.DefaultVersion = getenvDefault("VERSIONING_DEFAULT", cfg.Versioning.DefaultVersion)
	cfg.Versioning.HeaderName = os.Getenv("VERSIONING_HEADER")
	cfg.Versioning.QueryParam = os.Getenv("VERSIONING_QUERY_PARAM")

	cfg.Security.Headers = getenvBoolDefault("SECURITY_HEADERS_ENABLED", cfg.Security.Headers)
	cfg.Security.SSLRedirect = getenvBoolDefault("SSL_REDIRECT", false)
	cfg.Security.MaskSensitiveData = getenvBoolDefault("MASK_SENSITIVE_DATA", cfg.Security.MaskSensitiveData)

	cfg.CORS.Enabled = getenvBoolDefault("CORS_ENABLED", cfg.CORS.Enabled)
	cfg.CORS.AllowedOrigins = getenvListDefault("CORS_ALLOWED_ORIGINS", nil)
	cfg.CORS.AllowCredentials = getenvBoolDefault("CORS_ALLOW_CREDENTIALS", false)
	cfg.CORS.AllowedMethods = getenvListDefault("CORS_ALLOWED_METHODS", nil)
	cfg.CORS.AllowedHeaders = getenvListDefault("CORS_ALLOWED_HEADERS", nil)

	cfg.Concurrency.Max = getenvIntDefault("CONCURRENCY_MAX", 0)
	cfg.Concurrency.AcquireTimeout = getenvDurationDefault("CONCURRENCY_TIMEOUT", 0)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getenvListDefault(k string, def []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
