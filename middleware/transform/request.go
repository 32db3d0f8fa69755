package transform

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	HeaderGatewayTimestamp = "X-Gateway-Timestamp"
	HeaderTraceID          = "X-Trace-Id"
	HeaderProtocolAdapt    = "X-Protocol-Adapt"
)

// sensitiveHeaders são mascarados em qualquer saída de log. O valor vivo
// continua sendo encaminhado ao backend: mascarar é preocupação de logging,
// não redação do header em trânsito.
var sensitiveHeaders = []string{"Authorization", "Cookie", "X-Api-Key"}

const maskedValue = "***"

// RequestTransformer aplica a fase default (timestamp do gateway, trace-id) e
// a fase por path (headers registrados, sinalização de protocolo) sobre a
// requisição, mutando os headers in place.
type RequestTransformer struct {
	rules      *Registry
	now        func() time.Time
	newTraceID func() string
}

type RequestOption func(*RequestTransformer)

func WithRequestNow(now func() time.Time) RequestOption {
	return func(t *RequestTransformer) { t.now = now }
}

// WithTraceIDFunc injeta o gerador de trace-id (testes).
func WithTraceIDFunc(fn func() string) RequestOption {
	return func(t *RequestTransformer) { t.newTraceID = fn }
}

func NewRequestTransformer(rules *Registry, opts ...RequestOption) *RequestTransformer {
	t := &RequestTransformer{
		rules:      rules,
		now:        time.Now,
		newTraceID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Apply executa as duas fases sobre a requisição.
func (t *RequestTransformer) Apply(r *http.Request) {
	h := r.Header

	// fase default
	h.Set(HeaderGatewayTimestamp, t.now().UTC().Format(time.RFC3339))
	if h.Get(HeaderTraceID) == "" {
		h.Set(HeaderTraceID, t.newTraceID())
	}

	// fase por path (match exato)
	if t.rules == nil {
		return
	}
	rule := t.rules.RuleFor(r.URL.Path)
	if rule == nil {
		return
	}
	for k, v := range rule.Headers {
		h.Set(k, v)
	}
	if rule.Protocol != nil {
		h.Set(HeaderProtocolAdapt, rule.Protocol.Source+"->"+rule.Protocol.Target)
	}
}

// MaskHeaders devolve uma CÓPIA dos headers com os valores sensíveis
// mascarados, pronta para logging. O original não é tocado.
func MaskHeaders(h http.Header) http.Header {
	out := h.Clone()
	for _, name := range sensitiveHeaders {
		if out.Get(name) != "" {
			out.Set(name, maskedValue)
		}
	}
	return out
}
