package routing

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
)

// Route é a entrada registrada para um serviço de backend.
//
// Pattern pode conter segmentos {param}, que casam exatamente um segmento de
// path (nunca atravessam "/"). Handler é opaco para a tabela: o gateway o usa
// no lugar do handler default quando presente.
type Route struct {
	Pattern string
	Methods []string
	Service string
	Version string
	Handler http.Handler

	hits atomic.Int64
}

// Hits retorna quantas vezes a rota foi resolvida.
func (r *Route) Hits() int64 { return r.hits.Load() }

// Allows informa se o método é aceito pela rota. Rota sem métodos aceita todos.
func (r *Route) Allows(method string) bool {
	if len(r.Methods) == 0 {
		return true
	}
	for _, m := range r.Methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

type compiledRoute struct {
	route *Route
	re    *regexp.Regexp // nil para patterns literais
}

// Table resolve paths de entrada para rotas registradas.
//
// Match exato contra o pattern literal é tentado primeiro; depois os patterns
// com {param} são testados na ordem de registro. Cada pattern é compilado uma
// única vez, no registro — nada de recompilar regex por request.
type Table struct {
	mu     sync.RWMutex
	exact  map[string]*Route
	params []compiledRoute
}

func NewTable() *Table {
	return &Table{exact: make(map[string]*Route)}
}

var paramSegment = regexp.MustCompile(`^\{[A-Za-z_][A-Za-z0-9_]*\}$`)

// Register registra uma rota. Patterns com {param} são compilados aqui.
func (t *Table) Register(r Route) (*Route, error) {
	if r.Pattern == "" || !strings.HasPrefix(r.Pattern, "/") {
		return nil, fmt.Errorf("routing: pattern inválido %q", r.Pattern)
	}

	route := &Route{
		Pattern: r.Pattern,
		Methods: append([]string(nil), r.Methods...),
		Service: r.Service,
		Version: r.Version,
		Handler: r.Handler,
	}

	cr := compiledRoute{route: route}
	if strings.Contains(r.Pattern, "{") {
		re, err := compilePattern(r.Pattern)
		if err != nil {
			return nil, err
		}
		cr.re = re
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if cr.re == nil {
		t.exact[r.Pattern] = route
	} else {
		t.params = append(t.params, cr)
	}
	return route, nil
}

// compilePattern converte "/users/{id}/pets" em ^/users/[^/]+/pets$.
// Segmentos literais são escapados; {param} vira exatamente um segmento.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, seg := range strings.Split(pattern, "/") {
		if seg == "" {
			continue
		}
		b.WriteString("/")
		if paramSegment.MatchString(seg) {
			b.WriteString("[^/]+")
		} else if strings.ContainsAny(seg, "{}") {
			return nil, fmt.Errorf("routing: segmento malformado %q em %q", seg, pattern)
		} else {
			b.WriteString(regexp.QuoteMeta(seg))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// Resolve devolve a rota do path, incrementando o contador de hits.
// Sem match retorna nil — "rota não encontrada" é resultado normal, não erro.
func (t *Table) Resolve(path string) *Route {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if route, ok := t.exact[path]; ok {
		route.hits.Add(1)
		return route
	}
	for _, cr := range t.params {
		if cr.re.MatchString(path) {
			cr.route.hits.Add(1)
			return cr.route
		}
	}
	return nil
}

// RouteInfo é a visão read-only de uma rota para introspecção.
type RouteInfo struct {
	Pattern string
	Methods []string
	Service string
	Version string
	Hits    int64
}

// Routes lista todas as rotas sem mutar contadores.
func (t *Table) Routes() []RouteInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]RouteInfo, 0, len(t.exact)+len(t.params))
	for _, route := range t.exact {
		out = append(out, info(route))
	}
	for _, cr := range t.params {
		out = append(out, info(cr.route))
	}
	return out
}

func info(r *Route) RouteInfo {
	return RouteInfo{
		Pattern: r.Pattern,
		Methods: append([]string(nil), r.Methods...),
		Service: r.Service,
		Version: r.Version,
		Hits:    r.Hits(),
	}
}
