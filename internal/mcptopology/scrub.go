package mcptopology

import (
	"os"
	"strings"
)

// reservedPrefixes names environment variable prefixes owned by the host
// language runtime. Variables under these prefixes are stripped from a
// child manifest's environment so that spawned agent processes do not
// inherit interpreter-specific state from the parent swarm process. The
// Go toolchain's own variables (GOROOT, GOPATH, ...) are matched by exact
// name in reservedExact instead of by a "GO" prefix, since that prefix
// would also swallow unrelated connected-tool variables such as
// GOOGLE_API_KEY or GOOGLE_APPLICATION_CREDENTIALS.
var reservedPrefixes = []string{"CGO_"}

var reservedExact = map[string]bool{
	"GOROOT": true, "GOPATH": true, "GOCACHE": true, "GOMODCACHE": true,
	"GOENV": true, "GOFLAGS": true, "GOPROXY": true, "GOSUMDB": true,
	"GOTOOLCHAIN": true, "GOBIN": true,
}

func isReservedEnvName(name string) bool {
	if reservedExact[name] {
		return true
	}
	for _, p := range reservedPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// ScrubbedEnv returns the current process environment as a map with
// runtime-reserved variable names removed.
func ScrubbedEnv() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		if isReservedEnvName(parts[0]) {
			continue
		}
		env[parts[0]] = parts[1]
	}
	return env
}
