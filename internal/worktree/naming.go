package worktree

import (
	"crypto/sha256"
	"encoding/hex"
	"math/rand"
	"path/filepath"
)

const cliSentinelDefault = "__swarm_worktree_default__"

// randIntn is overridable in tests for determinism.
var randIntn = rand.Intn

const alphanumerics = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomSuffix(n int) string {
	out := make([]byte, n)
	for i := range out {
		out[i] = alphanumerics[randIntn(len(alphanumerics))]
	}
	return string(out)
}

// ResolveSharedName determines the shared worktree name from the CLI
// input, per the naming rule: an empty string, an unset flag, or the
// CLI's placeholder default all mean "generate a fresh name".
func ResolveSharedName(explicit string, sessionID string) string {
	if explicit == "" || explicit == cliSentinelDefault {
		if sessionID != "" {
			return "worktree-" + sessionID
		}
		return "worktree-" + randomSuffix(5)
	}
	return explicit
}

// shortHash returns an 8-hex-character digest of the absolute repository
// path, used to disambiguate repositories that share a basename.
func shortHash(absPath string) string {
	sum := sha256.Sum256([]byte(absPath))
	return hex.EncodeToString(sum[:])[:8]
}

// ExternalPath computes the deterministic worktree path:
// <root>/<session-id>/<repo-basename>-<short-hash>/<name>.
func ExternalPath(root, sessionID, repoRoot, name string) string {
	base := filepath.Base(filepath.Clean(repoRoot))
	dirName := base + "-" + shortHash(filepath.Clean(repoRoot))
	return filepath.Join(root, sessionID, dirName, name)
}
