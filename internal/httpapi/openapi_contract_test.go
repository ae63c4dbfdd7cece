package httpapi

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type openAPIDoc struct {
	Servers []struct {
		URL string `yaml:"url"`
	} `yaml:"servers"`
	Paths map[string]map[string]any `yaml:"paths"`
}

var httpVerbs = map[string]bool{
	http.MethodGet: true, http.MethodPost: true, http.MethodPut: true, http.MethodPatch: true,
	http.MethodDelete: true, http.MethodHead: true, http.MethodOptions: true,
}

func loadOpenAPI(t *testing.T) openAPIDoc {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "api", "openapi.yaml")

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	var doc openAPIDoc
	if err := yaml.Unmarshal(b, &doc); err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	if len(doc.Servers) != 1 {
		t.Fatalf("expected exactly one server entry, got %d", len(doc.Servers))
	}
	return doc
}

// documentedRoutes returns "METHOD /full/path" for every operation.
func documentedRoutes(doc openAPIDoc) []string {
	base := strings.TrimSuffix(doc.Servers[0].URL, "/")
	var out []string
	for p, ops := range doc.Paths {
		for m := range ops {
			method := strings.ToUpper(m)
			if httpVerbs[method] {
				out = append(out, method+" "+trimSlash(base+p))
			}
		}
	}
	sort.Strings(out)
	return out
}

// registeredRoutes walks the chi tree and keeps the versioned API only.
func registeredRoutes(t *testing.T) []string {
	t.Helper()
	mux, ok := NewHandler(zerolog.New(io.Discard), nil).Router().(*chi.Mux)
	if !ok {
		t.Fatal("Router() is not a *chi.Mux")
	}

	var out []string
	err := chi.Walk(mux, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if httpVerbs[method] && strings.HasPrefix(route, "/api/") {
			out = append(out, method+" "+trimSlash(route))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk router: %v", err)
	}
	sort.Strings(out)
	return out
}

func trimSlash(route string) string {
	if len(route) > 1 {
		return strings.TrimSuffix(route, "/")
	}
	return route
}

func missingFrom(want, have []string) []string {
	set := make(map[string]bool, len(have))
	for _, h := range have {
		set[h] = true
	}
	var out []string
	for _, w := range want {
		if !set[w] {
			out = append(out, w)
		}
	}
	return out
}

func TestOpenAPIMatchesRouter(t *testing.T) {
	documented := documentedRoutes(loadOpenAPI(t))
	registered := registeredRoutes(t)

	undocumented := missingFrom(registered, documented)
	unrouted := missingFrom(documented, registered)
	if len(undocumented) == 0 && len(unrouted) == 0 {
		return
	}
	var sb strings.Builder
	for _, r := range unrouted {
		sb.WriteString("  documented but not routed: " + r + "\n")
	}
	for _, r := range undocumented {
		sb.WriteString("  routed but not documented: " + r + "\n")
	}
	t.Fatalf("api/openapi.yaml and the router disagree:\n%s", sb.String())
}

func TestOpenAPIOperationsAreNamed(t *testing.T) {
	doc := loadOpenAPI(t)

	seen := map[string]string{}
	for p, ops := range doc.Paths {
		for m, raw := range ops {
			method := strings.ToUpper(m)
			if !httpVerbs[method] {
				continue
			}
			op, _ := raw.(map[string]any)
			id, _ := op["operationId"].(string)
			if id == "" {
				t.Fatalf("%s %s has no operationId", method, p)
			}
			if prev, dup := seen[id]; dup {
				t.Fatalf("operationId %q used by both %s and %s %s", id, prev, method, p)
			}
			seen[id] = method + " " + p
		}
	}
}
