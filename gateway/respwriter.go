package gateway

import (
	"net/http"
	"strconv"

	"api-gateway/middleware/transform"
)

// responseInterceptor envolve o http.ResponseWriter para aplicar a fase
// default de transformação de resposta no momento certo: headers antes do
// WriteHeader e, para status em [400,600), a troca do corpo pelo envelope de
// erro padronizado (o corpo original é descartado).
type responseInterceptor struct {
	http.ResponseWriter
	tr   *transform.ResponseTransformer
	path string

	status      int
	wroteHeader bool
	enveloped   bool
}

func newResponseInterceptor(w http.ResponseWriter, tr *transform.ResponseTransformer, path string) *responseInterceptor {
	return &responseInterceptor{ResponseWriter: w, tr: tr, path: path}
}

func (w *responseInterceptor) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = status

	h := w.Header()
	w.tr.ApplyHeaders(h)

	if status >= 400 && status < 600 {
		w.enveloped = true
		body := w.tr.Envelope(status, w.path)
		h.Set("Content-Type", "application/json; charset=utf-8")
		h.Set("Content-Length", strconv.Itoa(len(body)))
		h.Del("Content-Encoding")
		w.ResponseWriter.WriteHeader(status)
		_, _ = w.ResponseWriter.Write(body)
		return
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseInterceptor) Write(p []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if w.enveloped {
		// o handler ainda pode tentar escrever o corpo original; finge sucesso
		// para não propagar erro por uma resposta já substituída
		return len(p), nil
	}
	return w.ResponseWriter.Write(p)
}

// finish garante que alguma resposta saiu (handler que não escreve nada).
func (w *responseInterceptor) finish() {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
}

// Status devolve o status efetivamente escrito (0 antes do WriteHeader).
func (w *responseInterceptor) Status() int { return w.status }

// Flush repassa para o writer de baixo quando suportado.
func (w *responseInterceptor) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
