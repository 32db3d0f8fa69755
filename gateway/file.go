package gateway

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"api-gateway/middleware/transform"
)

// FileConfig é o formato declarativo opcional de registro (versões, rotas,
// regras e breakers), carregado uma vez no boot e aplicado via Apply. É um
// complemento ao registro programático, não um substituto.
type FileConfig struct {
	Versions []struct {
		ID          string `yaml:"id"`
		Description string `yaml:"description"`
		Deprecated  bool   `yaml:"deprecated"`
	} `yaml:"versions"`

	Routes []struct {
		Service string   `yaml:"service"`
		Pattern string   `yaml:"pattern"`
		Methods []string `yaml:"methods"`
		Version string   `yaml:"version"`
	} `yaml:"routes"`

	RateLimitRules []struct {
		PathPrefix    string `yaml:"path_prefix"`
		Limit         int    `yaml:"limit"`
		PeriodSeconds int    `yaml:"period_seconds"`
	} `yaml:"rate_limit_rules"`

	CircuitBreakers []struct {
		Path                string `yaml:"path"`
		FailureThreshold    int    `yaml:"failure_threshold"`
		RecoveryTimeSeconds int    `yaml:"recovery_time_seconds"`
	} `yaml:"circuit_breakers"`

	Transformations []struct {
		Path     string            `yaml:"path"`
		Headers  map[string]string `yaml:"headers"`
		Protocol *struct {
			Source string `yaml:"source"`
			Target string `yaml:"target"`
		} `yaml:"protocol"`
	} `yaml:"transformations"`
}

// LoadFile lê e desserializa um arquivo de configuração declarativa.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gateway: lendo %s: %w", path, err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("gateway: parse de %s: %w", path, err)
	}
	return &fc, nil
}

// Apply registra tudo que o arquivo declara. Versões vêm antes das rotas para
// que RegisterEndpoint encontre a versão já registrada.
func (g *Gateway) Apply(fc *FileConfig) error {
	for _, v := range fc.Versions {
		g.RegisterVersion(v.ID, v.Description, v.Deprecated)
	}
	for _, r := range fc.Routes {
		if err := g.RegisterService(r.Service, r.Pattern, r.Methods, r.Version, nil); err != nil {
			return err
		}
	}
	for _, r := range fc.RateLimitRules {
		period := time.Duration(r.PeriodSeconds) * time.Second
		if err := g.RegisterRateLimitRule(r.PathPrefix, r.Limit, period); err != nil {
			return fmt.Errorf("gateway: regra de rate limit %q: %w", r.PathPrefix, err)
		}
	}
	for _, b := range fc.CircuitBreakers {
		recovery := time.Duration(b.RecoveryTimeSeconds) * time.Second
		if err := g.ConfigureBreaker(b.Path, b.FailureThreshold, recovery); err != nil {
			return fmt.Errorf("gateway: breaker %q: %w", b.Path, err)
		}
	}
	for _, t := range fc.Transformations {
		rule := transform.Rule{Headers: t.Headers}
		if t.Protocol != nil {
			rule.Protocol = &transform.ProtocolAdaptation{
				Source: t.Protocol.Source,
				Target: t.Protocol.Target,
			}
		}
		g.RegisterTransformation(t.Path, rule)
	}
	return nil
}
