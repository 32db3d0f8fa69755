package apiversion

import (
	"net/http"
	"net/url"
	"testing"
)

func TestResolver_URLPathStrategy(t *testing.T) {
	r, err := NewResolver(StrategyURLPath, "1")
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if got := r.Extract("/v2/anything", http.Header{}, url.Values{}); got != "2" {
		t.Fatalf("expected 2, got %q", got)
	}
	if got := r.Extract("/v2", http.Header{}, url.Values{}); got != "2" {
		t.Fatalf("expected 2 for bare /v2, got %q", got)
	}
	if got := r.Extract("/v2.1/x", http.Header{}, url.Values{}); got != "2.1" {
		t.Fatalf("expected 2.1, got %q", got)
	}
	if got := r.Extract("/anything", http.Header{}, url.Values{}); got != "1" {
		t.Fatalf("expected default 1, got %q", got)
	}
	// o prefixo precisa estar ancorado no início
	if got := r.Extract("/api/v2/x", http.Header{}, url.Values{}); got != "1" {
		t.Fatalf("expected default for non-anchored version, got %q", got)
	}
}

func TestResolver_QueryParamStrategy(t *testing.T) {
	r, err := NewResolver(StrategyQueryParam, "1", WithQueryParam("api_version"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	q := url.Values{"api_version": []string{"3"}}
	if got := r.Extract("/x", http.Header{}, q); got != "3" {
		t.Fatalf("expected 3, got %q", got)
	}
	if got := r.Extract("/x", http.Header{}, url.Values{}); got != "1" {
		t.Fatalf("expected default, got %q", got)
	}
}

func TestResolver_HeaderStrategyIsCaseInsensitive(t *testing.T) {
	r, err := NewResolver(StrategyHeader, "1")
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	h := http.Header{}
	h.Set("x-api-version", "4")
	if got := r.Extract("/x", h, url.Values{}); got != "4" {
		t.Fatalf("expected 4, got %q", got)
	}
}

func TestResolver_ContentTypeStrategy(t *testing.T) {
	r, err := NewResolver(StrategyContentType, "1")
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	h := http.Header{}
	h.Set("Accept", "application/vnd.api.v5+json")
	if got := r.Extract("/x", h, url.Values{}); got != "5" {
		t.Fatalf("expected 5, got %q", got)
	}

	h = http.Header{}
	h.Set("Content-Type", "application/json")
	if got := r.Extract("/x", h, url.Values{}); got != "1" {
		t.Fatalf("expected default for plain media type, got %q", got)
	}
}

func TestResolver_UnknownStrategyIsRejected(t *testing.T) {
	if _, err := NewResolver(Strategy("cookie"), "1"); err == nil {
		t.Fatalf("expected error for unknown strategy")
	}
}

func TestResolver_VersionedPrefix(t *testing.T) {
	byPath, _ := NewResolver(StrategyURLPath, "1")
	if got := byPath.VersionedPrefix("/clientes", "2"); got != "/v2/clientes" {
		t.Fatalf("expected /v2/clientes, got %q", got)
	}

	byHeader, _ := NewResolver(StrategyHeader, "1")
	if got := byHeader.VersionedPrefix("/clientes", "2"); got != "/clientes" {
		t.Fatalf("expected unchanged prefix, got %q", got)
	}
}

func TestResolver_RegistryAndDeprecation(t *testing.T) {
	r, _ := NewResolver(StrategyHeader, "1")

	r.RegisterVersion("1", "estável", false)
	r.RegisterVersion("0", "legada", true)
	r.RegisterEndpoint("1", "/clientes")
	r.RegisterEndpoint("1", "/faturas")
	r.RegisterEndpoint("9", "/fantasma") // versão desconhecida: no-op com warning

	if !r.IsDeprecated("0") {
		t.Fatalf("expected version 0 deprecated")
	}
	if r.IsDeprecated("1") || r.IsDeprecated("9") {
		t.Fatalf("expected 1 and unknown 9 to not be deprecated")
	}

	vs := r.Versions()
	if len(vs) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(vs))
	}
	if vs[1].ID != "1" || len(vs[1].Endpoints) != 2 {
		t.Fatalf("expected version 1 with 2 endpoints, got %+v", vs[1])
	}
}
