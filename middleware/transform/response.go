package transform

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

const HeaderGatewayVersion = "X-Gateway-Version"

// CORS é a configuração de cabeçalhos CORS aplicados na resposta.
type CORS struct {
	Enabled          bool
	AllowedOrigins   []string
	AllowCredentials bool
	AllowedMethods   []string
	AllowedHeaders   []string
}

// ResponseTransformer aplica a fase default sobre a resposta: header de
// versão do gateway, security headers, CORS e — para status em [400,600) —
// o envelope de erro padronizado no corpo.
type ResponseTransformer struct {
	gatewayVersion  string
	securityHeaders bool
	extraHeaders    map[string]string
	cors            CORS
	now             func() time.Time
}

type ResponseOption func(*ResponseTransformer)

func WithSecurityHeaders(enabled bool) ResponseOption {
	return func(t *ResponseTransformer) { t.securityHeaders = enabled }
}

func WithExtraHeaders(headers map[string]string) ResponseOption {
	return func(t *ResponseTransformer) { t.extraHeaders = headers }
}

func WithCORS(cors CORS) ResponseOption {
	return func(t *ResponseTransformer) { t.cors = cors }
}

func WithResponseNow(now func() time.Time) ResponseOption {
	return func(t *ResponseTransformer) { t.now = now }
}

func NewResponseTransformer(gatewayVersion string, opts ...ResponseOption) *ResponseTransformer {
	t := &ResponseTransformer{
		gatewayVersion: gatewayVersion,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ApplyHeaders escreve os headers da fase default. Deve ser chamado antes do
// WriteHeader da resposta.
func (t *ResponseTransformer) ApplyHeaders(h http.Header) {
	h.Set(HeaderGatewayVersion, t.gatewayVersion)

	if t.securityHeaders {
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
	}
	for k, v := range t.extraHeaders {
		h.Set(k, v)
	}

	if t.cors.Enabled && h.Get("Access-Control-Allow-Origin") == "" {
		origin := "*"
		if len(t.cors.AllowedOrigins) > 0 {
			origin = t.cors.AllowedOrigins[0]
		}
		h.Set("Access-Control-Allow-Origin", origin)
		if t.cors.AllowCredentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		if len(t.cors.AllowedMethods) > 0 {
			h.Set("Access-Control-Allow-Methods", joinComma(t.cors.AllowedMethods))
		}
		if len(t.cors.AllowedHeaders) > 0 {
			h.Set("Access-Control-Allow-Headers", joinComma(t.cors.AllowedHeaders))
		}
	}
}

// ErrorEnvelope é o corpo padronizado de qualquer resposta com status em
// [400,600) que atravessa o gateway.
type ErrorEnvelope struct {
	Error          bool   `json:"error"`
	Code           int    `json:"code"`
	Message        string `json:"message"`
	GatewayVersion string `json:"gatewayVersion"`
	Path           string `json:"path,omitempty"`
	Timestamp      string `json:"timestamp,omitempty"`
}

// Envelope monta o corpo JSON do envelope de erro para o status/path.
// A serialização não falha para entrada bem-formada: struct fixa, sem campos
// dinâmicos.
func (t *ResponseTransformer) Envelope(status int, path string) []byte {
	msg := http.StatusText(status)
	if msg == "" {
		msg = "Unknown Error"
	}
	body, _ := json.Marshal(ErrorEnvelope{
		Error:          true,
		Code:           status,
		Message:        msg,
		GatewayVersion: t.gatewayVersion,
		Path:           path,
		Timestamp:      t.now().UTC().Format(time.RFC3339),
	})
	return body
}

func joinComma(vs []string) string { return strings.Join(vs, ", ") }
