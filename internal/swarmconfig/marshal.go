package swarmconfig

import "gopkg.in/yaml.v3"

// marshalDocument mirrors rawDocument but with strongly-typed agent specs
// for re-serialization, so Marshal(Load(x)) round-trips the same
// document shape a user originally wrote.
type marshalDocument struct {
	Version int          `yaml:"version"`
	Swarm   marshalSwarm `yaml:"swarm"`
}

type marshalSwarm struct {
	Name      string                      `yaml:"name"`
	Main      string                      `yaml:"main"`
	Before    []string                    `yaml:"before,omitempty"`
	After     []string                    `yaml:"after,omitempty"`
	Instances map[string]marshalAgentSpec `yaml:"instances"`
}

type marshalAgentSpec struct {
	Description     string              `yaml:"description"`
	Directory       interface{}         `yaml:"directory"`
	Model           string              `yaml:"model,omitempty"`
	Provider        string              `yaml:"provider,omitempty"`
	Temperature     *float64            `yaml:"temperature,omitempty"`
	ReasoningEffort string              `yaml:"reasoning_effort,omitempty"`
	Prompt          string              `yaml:"prompt,omitempty"`
	AllowedTools    []string            `yaml:"allowed_tools,omitempty"`
	DisallowedTools []string            `yaml:"disallowed_tools,omitempty"`
	Connections     []string            `yaml:"connections,omitempty"`
	MCPs            []ExternalMCPServer `yaml:"mcps,omitempty"`
	Worktree        interface{}         `yaml:"worktree,omitempty"`
	Hooks           map[string][]string `yaml:"hooks,omitempty"`
}

// Marshal renders cfg back into the on-disk document shape it was loaded
// from. The orchestrator uses this to copy the effective config (after
// template rendering and env interpolation) into the session directory.
func Marshal(cfg *Config) ([]byte, error) {
	doc := marshalDocument{
		Version: cfg.Version,
		Swarm: marshalSwarm{
			Name:      cfg.Name,
			Main:      cfg.Main,
			Before:    cfg.Before,
			After:     cfg.After,
			Instances: make(map[string]marshalAgentSpec, len(cfg.Agents)),
		},
	}

	for name, spec := range cfg.Agents {
		var dir interface{}
		if len(spec.Directories) == 1 {
			dir = spec.Directories[0]
		} else {
			dir = spec.Directories
		}

		doc.Swarm.Instances[name] = marshalAgentSpec{
			Description:     spec.Description,
			Directory:       dir,
			Model:           spec.Model,
			Provider:        string(spec.Provider),
			Temperature:     spec.Temperature,
			ReasoningEffort: string(spec.ReasoningEffort),
			Prompt:          spec.Prompt,
			AllowedTools:    spec.AllowedTools,
			DisallowedTools: spec.DisallowedTools,
			Connections:     spec.Connections,
			MCPs:            spec.MCPServers,
			Worktree:        marshalWorktree(spec.Worktree),
			Hooks:           spec.Hooks,
		}
	}

	return yaml.Marshal(doc)
}

func marshalWorktree(w *WorktreeDirective) interface{} {
	if w == nil {
		return nil
	}
	if w.BranchName != "" {
		return w.BranchName
	}
	return w.Enabled
}
