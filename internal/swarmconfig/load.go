package swarmconfig

import (
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v3"

	"github.com/kandev/swarm/internal/common/apperr"
)

// Load reads, templates, and parses the config document at path. If
// baseDir is non-empty it is used as the directory that relative agent
// directories and external file references are resolved against
// (session restoration); otherwise the config file's own directory is
// used.
func Load(path string, baseDir string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, apperr.ConfigError("cannot resolve config path "+path, err)
	}

	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, apperr.ConfigError("failed to read config "+abs, err)
	}

	rendered, err := renderTemplate(abs, raw)
	if err != nil {
		return nil, err
	}

	var doc rawDocument
	if err := yaml.Unmarshal(rendered, &doc); err != nil {
		return nil, apperr.ConfigError("failed to parse config "+abs, err)
	}

	effectiveBase := baseDir
	if effectiveBase == "" {
		effectiveBase = filepath.Dir(abs)
	}

	cfg := &Config{
		Version:    doc.Version,
		Name:       doc.Swarm.Name,
		Main:       doc.Swarm.Main,
		Before:     doc.Swarm.Before,
		After:      doc.Swarm.After,
		Agents:     make(map[string]AgentSpec, len(doc.Swarm.Instances)),
		BaseDir:    effectiveBase,
		SourcePath: abs,
	}

	for name, node := range doc.Swarm.Instances {
		node := node
		if node.Kind == yaml.ScalarNode {
			var externalPath string
			if err := node.Decode(&externalPath); err != nil {
				return nil, apperr.ConfigError("invalid external agent reference for "+name, err)
			}
			if err := LoadAgentFile(cfg, name, externalPath); err != nil {
				return nil, err
			}
			continue
		}

		var raws rawAgentSpec
		if err := node.Decode(&raws); err != nil {
			return nil, apperr.ConfigError("invalid agent spec for "+name, err)
		}
		spec, err := normalizeAgentSpec(raws)
		if err != nil {
			return nil, err
		}
		spec.Name = name
		interpolateAgentSpec(&spec)
		resolveAgentDirectories(&spec, effectiveBase)
		cfg.Agents[name] = spec
	}

	return cfg, nil
}

// LoadAgentFile loads a single agent spec from an external markdown file,
// resolving relative paths against cfg.BaseDir, and interpolates
// environment references in it exactly as inline specs are.
func LoadAgentFile(cfg *Config, name, path string) error {
	spec, err := loadExternalAgentSpec(cfg.BaseDir, path)
	if err != nil {
		return err
	}
	spec.Name = name
	interpolateAgentSpec(&spec)
	resolveAgentDirectories(&spec, cfg.BaseDir)
	cfg.Agents[name] = spec
	return nil
}
