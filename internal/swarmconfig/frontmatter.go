package swarmconfig

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kandev/swarm/internal/common/apperr"
)

const frontmatterDelim = "---"

// loadExternalAgentSpec resolves path (relative to baseDir unless
// absolute), requires a .md extension, parses its YAML frontmatter block,
// and takes the remaining body as the system prompt when the frontmatter
// itself does not set one.
func loadExternalAgentSpec(baseDir, path string) (AgentSpec, error) {
	if filepath.Ext(path) != ".md" {
		return AgentSpec{}, apperr.ConfigError("external agent file must have a .md extension: "+path, nil)
	}

	resolved := path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(baseDir, resolved)
	}

	raw, err := os.ReadFile(resolved)
	if err != nil {
		return AgentSpec{}, apperr.ConfigError("failed to read external agent file "+resolved, err)
	}

	frontmatter, body, err := splitFrontmatter(string(raw))
	if err != nil {
		return AgentSpec{}, apperr.ConfigError("malformed frontmatter in "+resolved, err)
	}

	var raws rawAgentSpec
	if strings.TrimSpace(frontmatter) != "" {
		if err := yaml.Unmarshal([]byte(frontmatter), &raws); err != nil {
			return AgentSpec{}, apperr.ConfigError("failed to parse frontmatter in "+resolved, err)
		}
	}

	spec, err := normalizeAgentSpec(raws)
	if err != nil {
		return AgentSpec{}, err
	}
	spec.SourcePath = resolved

	if raws.Prompt == "" {
		spec.Prompt = strings.TrimSpace(body)
	}

	return spec, nil
}

// splitFrontmatter separates a leading `---`-delimited block from the
// remainder of the document. A document with no leading delimiter is
// treated as having no frontmatter at all (body is the whole document).
func splitFrontmatter(doc string) (frontmatter, body string, err error) {
	trimmed := strings.TrimLeft(doc, "\n")
	if !strings.HasPrefix(trimmed, frontmatterDelim) {
		return "", doc, nil
	}

	rest := trimmed[len(frontmatterDelim):]
	idx := strings.Index(rest, "\n"+frontmatterDelim)
	if idx == -1 {
		return "", "", apperr.ConfigError("unclosed frontmatter block", nil)
	}

	frontmatter = rest[:idx]
	afterClose := rest[idx+len("\n"+frontmatterDelim):]
	afterClose = strings.TrimPrefix(afterClose, "\r")
	afterClose = strings.TrimPrefix(afterClose, "\n")
	return frontmatter, afterClose, nil
}
