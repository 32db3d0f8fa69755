package transform

import "sync"

// ProtocolAdaptation declara uma adaptação de protocolo (ex: rest→grpc) para
// o path. O gateway não faz a conversão: ele sinaliza via header para o
// handler downstream decidir.
type ProtocolAdaptation struct {
	Source string
	Target string
}

// Rule é o conjunto de transformações registradas para um path exato.
type Rule struct {
	Path     string
	Headers  map[string]string
	Protocol *ProtocolAdaptation
}

// Registry guarda as regras por path. Re-registrar um path substitui o rule
// set daquele path; as operações incrementais (RegisterHeader/RegisterProtocol)
// são aditivas sobre a regra existente.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]*Rule
}

func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]*Rule)}
}

func (reg *Registry) ruleLocked(path string) *Rule {
	r, ok := reg.rules[path]
	if !ok {
		r = &Rule{Path: path, Headers: make(map[string]string)}
		reg.rules[path] = r
	}
	return r
}

// RegisterHeader adiciona (ou sobrescreve) um header a ser aplicado no path.
func (reg *Registry) RegisterHeader(path, header, value string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.ruleLocked(path).Headers[header] = value
}

// RegisterProtocol declara a adaptação de protocolo do path.
func (reg *Registry) RegisterProtocol(path, source, target string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.ruleLocked(path).Protocol = &ProtocolAdaptation{Source: source, Target: target}
}

// Register substitui o rule set completo do path.
func (reg *Registry) Register(path string, rule Rule) {
	headers := make(map[string]string, len(rule.Headers))
	for k, v := range rule.Headers {
		headers[k] = v
	}
	r := &Rule{Path: path, Headers: headers}
	if rule.Protocol != nil {
		p := *rule.Protocol
		r.Protocol = &p
	}

	reg.mu.Lock()
	reg.rules[path] = r
	reg.mu.Unlock()
}

// RuleFor devolve uma cópia da regra do path exato (nil se não houver).
func (reg *Registry) RuleFor(path string) *Rule {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rules[path]
	if !ok {
		return nil
	}
	out := &Rule{Path: r.Path, Headers: make(map[string]string, len(r.Headers))}
	for k, v := range r.Headers {
		out.Headers[k] = v
	}
	if r.Protocol != nil {
		p := *r.Protocol
		out.Protocol = &p
	}
	return out
}
