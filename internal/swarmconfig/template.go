package swarmconfig

import (
	"bytes"
	"os"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/kandev/swarm/internal/common/apperr"
)

// envBindings exposes the process environment as a read-only map for
// template expressions, e.g. {{ .Env.HOME }} or {{ if .Env.CI }}...{{ end }}.
type envBindings struct {
	Env map[string]string
}

func currentEnv() envBindings {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			env[parts[0]] = parts[1]
		}
	}
	return envBindings{Env: env}
}

// renderTemplate expands conditional and loop constructs in raw against
// the process environment. It is phase (b) of the three-phase load: read
// bytes, render template, parse typed tree.
func renderTemplate(path string, raw []byte) ([]byte, error) {
	tmpl, err := template.New(path).Funcs(sprig.TxtFuncMap()).Option("missingkey=zero").Parse(string(raw))
	if err != nil {
		return nil, apperr.ConfigError("failed to parse config template "+path, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, currentEnv()); err != nil {
		return nil, apperr.ConfigError("failed to render config template "+path, err)
	}

	return buf.Bytes(), nil
}
