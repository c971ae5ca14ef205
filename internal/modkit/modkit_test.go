package modkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"sentimentd/internal/modkit/httpkit"
	"sentimentd/internal/platform/config"
	phttp "sentimentd/internal/platform/net/http"
	"sentimentd/internal/platform/store"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

func TestBuild_Defaults(t *testing.T) {
	b := Build()
	if b.Name != "" || b.Prefix != "" || b.Ports != nil || len(b.Mw) != 0 {
		t.Fatalf("unexpected defaults %+v", b)
	}
}

func TestBuild_OptionsCopyMiddleware(t *testing.T) {
	mw := []func(http.Handler) http.Handler{func(h http.Handler) http.Handler { return h }}
	b := Build(WithName("classify"), WithPrefix("/classify"), WithMiddlewares(mw...), WithPorts("p"))
	if b.Name != "classify" || b.Prefix != "/classify" || b.Ports != "p" {
		t.Fatalf("built %+v", b)
	}
	mw[0] = nil
	if b.Mw[0] == nil {
		t.Fatalf("Build should copy the middleware slice")
	}
}

func TestBuilt_MountAppliesMiddlewareInOrder(t *testing.T) {
	var order []string
	tag := func(s string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, s)
				next.ServeHTTP(w, r)
			})
		}
	}
	b := Build(
		WithPrefix("meta/"),
		WithMiddlewares(tag("first"), tag("second")),
	)

	mux := chi.NewRouter()
	b.Mount(phttp.AdaptChi(mux), func(r httpkit.Router) {
		r.Get("/own", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
		r.Post("/extra", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusAccepted) })
	})

	for _, tc := range []struct {
		method, path string
		want         int
	}{
		{method: http.MethodGet, path: "/meta/own", want: http.StatusOK},
		{method: http.MethodPost, path: "/meta/extra", want: http.StatusAccepted},
	} {
		order = nil
		path, want := tc.path, tc.want
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(tc.method, path, nil))
		if rr.Code != want {
			t.Fatalf("%s: status %d want %d", path, rr.Code, want)
		}
		if len(order) != 2 || order[0] != "first" || order[1] != "second" {
			t.Fatalf("%s: middleware order %v", path, order)
		}
	}
}

func TestFromStore(t *testing.T) {
	d := FromStore(zerolog.Nop(), config.FromMap(nil), nil)
	if d.PG != nil || d.CH != nil || d.Lite != nil {
		t.Fatalf("nil store should leave seams nil")
	}
	d = FromStore(zerolog.Nop(), config.FromMap(nil), &store.Store{})
	if d.PG != nil {
		t.Fatalf("empty store should leave seams nil")
	}
}
