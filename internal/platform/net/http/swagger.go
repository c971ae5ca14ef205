package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// MountSwagger serves the swagger UI under prefix, reading the document at docURL
func MountSwagger(r Router, prefix, docURL string, enabled bool) {
	if !enabled {
		return
	}
	ui := httpSwagger.Handler(httpSwagger.URL(docURL))
	r.Get(prefix+"/*", func(w http.ResponseWriter, req *http.Request) { ui.ServeHTTP(w, req) })
}
