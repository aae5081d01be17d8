package swarmconfig

import (
	"os"
	"path/filepath"
	"regexp"
)

// envRefPattern matches ${NAME} and ${NAME:-default} forms.
var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// interpolateEnv expands ${NAME} and ${NAME:-default} references found in
// string leaves of the parsed document. It runs after typed parsing (phase
// c), distinct from the template rendering pass (phase b), so that
// interpolation also applies to values that arrived via an external
// frontmatter file rather than the top-level template.
func interpolateEnv(s string) string {
	return envRefPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envRefPattern.FindStringSubmatch(match)
		name := groups[1]
		hasDefault := groups[2] != ""
		def := groups[3]

		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		if hasDefault {
			return def
		}
		return ""
	})
}

// interpolateStringSlice applies interpolateEnv to every element.
func interpolateStringSlice(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = interpolateEnv(s)
	}
	return out
}

// interpolateAgentSpec walks the string-bearing fields of spec and expands
// environment references in place.
func interpolateAgentSpec(spec *AgentSpec) {
	spec.Description = interpolateEnv(spec.Description)
	spec.Prompt = interpolateEnv(spec.Prompt)
	spec.Model = interpolateEnv(spec.Model)
	for i, d := range spec.Directories {
		spec.Directories[i] = interpolateEnv(d)
	}
	spec.AllowedTools = interpolateStringSlice(spec.AllowedTools)
	spec.DisallowedTools = interpolateStringSlice(spec.DisallowedTools)
	for i, c := range spec.Connections {
		spec.Connections[i] = interpolateEnv(c)
	}
	for i := range spec.MCPServers {
		spec.MCPServers[i].Command = interpolateEnv(spec.MCPServers[i].Command)
		spec.MCPServers[i].URL = interpolateEnv(spec.MCPServers[i].URL)
		spec.MCPServers[i].Args = interpolateStringSlice(spec.MCPServers[i].Args)
	}
}

// resolveAgentDirectories expands spec.Directories against baseDir in
// place, per invariant 1. It runs after interpolateAgentSpec so that a
// directory built from an environment reference (e.g. "${PROJECT_ROOT}")
// is judged absolute-or-relative only once its real value is known.
func resolveAgentDirectories(spec *AgentSpec, baseDir string) {
	for i, d := range spec.Directories {
		if filepath.IsAbs(d) {
			continue
		}
		spec.Directories[i] = filepath.Join(baseDir, d)
	}
}
