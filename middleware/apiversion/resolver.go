package apiversion

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"sync"
)

// Strategy define de onde a versão da API é extraída.
type Strategy string

const (
	StrategyURLPath     Strategy = "url_path"
	StrategyQueryParam  Strategy = "query_param"
	StrategyHeader      Strategy = "header"
	StrategyContentType Strategy = "content_type"
)

const (
	DefaultHeaderName = "X-API-Version"
	DefaultQueryParam = "version"
)

var (
	// /v2/..., /v2.1/... — ancorado no início do path
	pathVersion = regexp.MustCompile(`^/v(\d+(?:\.\d+)*)(?:/|$)`)
	// application/vnd.api.v2+json
	mediaVersion = regexp.MustCompile(`application/vnd\.api\.v(\d+(?:\.\d+)*)\+json`)
)

type version struct {
	id          string
	description string
	deprecated  bool
	endpoints   map[string]struct{}
}

// Resolver extrai a versão de API da requisição segundo UMA estratégia ativa
// (fixada na construção) e mantém o registro de versões suportadas.
type Resolver struct {
	strategy   Strategy
	defaultVer string
	headerName string
	queryParam string

	mu       sync.RWMutex
	versions map[string]*version

	log *slog.Logger
}

type Option func(*Resolver)

func WithHeaderName(name string) Option {
	return func(r *Resolver) {
		if name != "" {
			r.headerName = name
		}
	}
}

func WithQueryParam(name string) Option {
	return func(r *Resolver) {
		if name != "" {
			r.queryParam = name
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(r *Resolver) { r.log = log }
}

func NewResolver(strategy Strategy, defaultVersion string, opts ...Option) (*Resolver, error) {
	switch strategy {
	case StrategyURLPath, StrategyQueryParam, StrategyHeader, StrategyContentType:
	default:
		return nil, fmt.Errorf("apiversion: estratégia desconhecida %q", strategy)
	}
	r := &Resolver{
		strategy:   strategy,
		defaultVer: defaultVersion,
		headerName: DefaultHeaderName,
		queryParam: DefaultQueryParam,
		versions:   make(map[string]*version),
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Resolver) Strategy() Strategy { return r.strategy }

// Extract devolve a versão da requisição; quando a extração falha para a
// estratégia ativa, cai na versão default configurada.
func (r *Resolver) Extract(path string, header http.Header, query url.Values) string {
	switch r.strategy {
	case StrategyURLPath:
		if m := pathVersion.FindStringSubmatch(path); m != nil {
			return m[1]
		}
	case StrategyQueryParam:
		if v := query.Get(r.queryParam); v != "" {
			return v
		}
	case StrategyHeader:
		// lookup case-insensitive (http.Header canonicaliza)
		if v := header.Get(r.headerName); v != "" {
			return v
		}
	case StrategyContentType:
		for _, h := range []string{"Accept", "Content-Type"} {
			if m := mediaVersion.FindStringSubmatch(header.Get(h)); m != nil {
				return m[1]
			}
		}
	}
	return r.defaultVer
}

// RegisterVersion registra (ou substitui a descrição de) uma versão suportada.
func (r *Resolver) RegisterVersion(id, description string, deprecated bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.versions[id]; ok {
		v.description = description
		v.deprecated = deprecated
		return
	}
	r.versions[id] = &version{
		id:          id,
		description: description,
		deprecated:  deprecated,
		endpoints:   make(map[string]struct{}),
	}
}

// RegisterEndpoint associa um path a uma versão. Versão desconhecida é no-op
// com warning — erro de configuração não derruba o registro das demais.
func (r *Resolver) RegisterEndpoint(versionID, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.versions[versionID]
	if !ok {
		r.log.Warn("endpoint registrado para versão desconhecida",
			"version", versionID, "path", path)
		return
	}
	v.endpoints[path] = struct{}{}
}

func (r *Resolver) IsDeprecated(versionID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.versions[versionID]
	return ok && v.deprecated
}

// VersionedPrefix devolve o prefixo de registro de um serviço: sob a
// estratégia url_path vira "/v{version}" + prefix; as demais estratégias não
// alteram o path de registro.
func (r *Resolver) VersionedPrefix(prefix, versionID string) string {
	if r.strategy == StrategyURLPath && versionID != "" {
		return "/v" + versionID + prefix
	}
	return prefix
}

// VersionInfo é a visão read-only de uma versão registrada.
type VersionInfo struct {
	ID          string
	Description string
	Deprecated  bool
	Endpoints   []string
}

// Versions retorna o registro completo, ordenado por id.
func (r *Resolver) Versions() []VersionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]VersionInfo, 0, len(r.versions))
	for _, v := range r.versions {
		eps := make([]string, 0, len(v.endpoints))
		for ep := range v.endpoints {
			eps = append(eps, ep)
		}
		sort.Strings(eps)
		out = append(out, VersionInfo{
			ID:          v.id,
			Description: v.description,
			Deprecated:  v.deprecated,
			Endpoints:   eps,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
