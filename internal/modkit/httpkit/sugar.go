package httpkit

import (
	"net/http"

	phttp "sentimentd/internal/platform/net/http"
	"sentimentd/internal/platform/net/http/bind"
)

// Get registers a no-body handler under GET
func Get(r Router, path string, h func(*http.Request) (any, error)) {
	r.Get(path, Call(h))
}

// GetQuery mounts a GET handler whose input is bound and validated from the query string
func GetQuery[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	phttp.GetQuery(r, path, h)
}

// PostJSON mounts a JSON handler under POST
func PostJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	phttp.PostJSON(r, path, h)
}

// PostJSONLimit is PostJSON with an explicit body size cap
func PostJSONLimit[T any](r Router, path string, maxBytes int64, h func(*http.Request, T) (any, error)) {
	r.Post(path, phttp.JSONHandler(h, bind.JSONOptions{MaxBytes: maxBytes}))
}
