package ch

import (
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// BuildClientInfo describes this process to the server, visible in system.query_log
// role is the binary's job: "api", "batch"
func BuildClientInfo(name, role, tag string) clickhouse.ClientInfo {
	host, _ := os.Hostname()
	if name = strings.TrimSpace(name); name == "" {
		name = "sentimentd"
	}

	type kv = struct{ Name, Version string }
	products := []kv{{Name: name, Version: strings.TrimSpace(tag)}}
	for _, p := range []kv{
		{Name: "role", Version: role},
		{Name: "go", Version: runtime.Version()},
		{Name: "commit", Version: vcsShortSHA()},
		{Name: "host", Version: host},
	} {
		if v := strings.TrimSpace(p.Version); v != "" {
			products = append(products, kv{Name: p.Name, Version: v})
		}
	}
	return clickhouse.ClientInfo{Products: products}
}

func vcsShortSHA() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				return s.Value[:7]
			}
		}
	}
	return ""
}
