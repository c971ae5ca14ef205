// Package swaggerkit mounts the Swagger UI and the OpenAPI document it reads
package swaggerkit

import (
	_ "embed"
	"net/http"

	phttp "sentimentd/internal/platform/net/http"
)

//go:embed openapi.json
var openapi []byte

// DocPath is where the OpenAPI document is served
const DocPath = "/api/docs/doc.json"

// Mount serves the UI under /api/docs and the document at DocPath when enabled
func Mount(r phttp.Router, enabled bool) {
	if !enabled {
		return
	}
	r.Get("/api/docs", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/api/docs/", http.StatusPermanentRedirect)
	})
	r.Get(DocPath, serveDocJSON)
	phttp.MountSwagger(r, "/api/docs", DocPath, true)
}

func serveDocJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(openapi)
}
