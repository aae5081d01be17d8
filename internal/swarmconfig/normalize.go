package swarmconfig

import (
	"fmt"

	"github.com/kandev/swarm/internal/common/apperr"
)

// normalizeAgentSpec converts a raw, loosely-typed document fragment into
// a strongly-typed AgentSpec, applying the directory-as-string-or-list
// coercion and rejecting tool lists that aren't sequences. Directories
// are left relative here; the caller expands them against BaseDir after
// environment interpolation has run, per invariant 1.
func normalizeAgentSpec(raw rawAgentSpec) (AgentSpec, error) {
	dirs, err := normalizeStringOrSlice(raw.Directory, "directory")
	if err != nil {
		return AgentSpec{}, err
	}
	if len(dirs) == 0 {
		dirs = []string{"."}
	}

	allowed, err := normalizeStringSequence(raw.AllowedTools, "allowed_tools")
	if err != nil {
		return AgentSpec{}, err
	}
	disallowed, err := normalizeStringSequence(raw.DisallowedTools, "disallowed_tools")
	if err != nil {
		return AgentSpec{}, err
	}

	wt, err := normalizeWorktreeDirective(raw.Worktree)
	if err != nil {
		return AgentSpec{}, err
	}

	return AgentSpec{
		Description:     raw.Description,
		Directories:     dirs,
		Model:           raw.Model,
		Provider:        Provider(raw.Provider),
		Temperature:     raw.Temperature,
		ReasoningEffort: ReasoningEffort(raw.ReasoningEffort),
		Prompt:          raw.Prompt,
		AllowedTools:    allowed,
		DisallowedTools: disallowed,
		Connections:     raw.Connections,
		MCPServers:      raw.MCPs,
		Worktree:        wt,
		Hooks:           raw.Hooks,
	}, nil
}

// normalizeStringOrSlice accepts either a bare string or a sequence of
// strings and always returns a slice, per the "a single path or an
// ordered list" rule for directory fields.
func normalizeStringOrSlice(v interface{}, field string) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case string:
		return []string{t}, nil
	case []string:
		return t, nil
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, apperr.ConfigError(fmt.Sprintf("field %q must contain only strings, got %T", field, item), nil)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, apperr.ConfigError(fmt.Sprintf("field %q must be a string or list of strings, got %T", field, v), nil)
	}
}

// normalizeStringSequence requires v to be an actual sequence (never a
// bare string) of strings, per invariant 6: tool lists are sequences and
// any non-sequence value fails with a type-in-error message.
func normalizeStringSequence(v interface{}, field string) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case []string:
		return t, nil
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, apperr.ConfigError(fmt.Sprintf("field %q must contain only strings, got %T", field, item), nil)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, apperr.ConfigError(fmt.Sprintf("field %q must be a sequence, got %T", field, v), nil)
	}
}

// normalizeWorktreeDirective accepts bool, "true"/"false", or a branch
// name string.
func normalizeWorktreeDirective(v interface{}) (*WorktreeDirective, error) {
	if v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case bool:
		return &WorktreeDirective{Enabled: t, UseShared: t}, nil
	case string:
		switch t {
		case "", "true":
			return &WorktreeDirective{Enabled: true, UseShared: true}, nil
		case "false":
			return &WorktreeDirective{Enabled: false, UseShared: false}, nil
		}
		return &WorktreeDirective{Enabled: true, BranchName: t}, nil
	default:
		return nil, apperr.ConfigError(fmt.Sprintf("field %q must be a boolean or branch name string, got %T", "worktree", v), nil)
	}
}
