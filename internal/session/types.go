// Package session owns the on-disk layout for one run: metadata,
// per-agent manifests, the structured log, process identifiers, and the
// running-symlink index used for discoverability.
package session

import (
	"path/filepath"
	"time"

	"github.com/kandev/swarm/internal/worktree"
)

func join(elem ...string) string { return filepath.Join(elem...) }

const (
	configFileName       = "config.yml"
	metadataFileName     = "session_metadata.json"
	logTextFileName      = "session.log"
	logJSONFileName      = "session.log.json"
	rootDirFileName      = "root_directory"
	mainPIDFileName      = "main_pid"
	runningIndexDirName  = "run"
	sessionsRootDirName  = "sessions"
	worktreesRootDirName = "worktrees"
)

// Metadata is the JSON document written to session_metadata.json.
type Metadata struct {
	SwarmName    string                 `json:"swarm_name"`
	Timestamp    time.Time              `json:"timestamp"`
	ToolVersion  string                 `json:"tool_version"`
	Worktree     *worktree.Record       `json:"worktree,omitempty"`
	InstanceIDs  map[string]string      `json:"instance_ids"`
	ExtraConfigs map[string]interface{} `json:"instance_configs,omitempty"`
}

// Paths resolves every on-disk path for one session directory.
type Paths struct {
	Root string
}

func (p Paths) ConfigFile() string        { return join(p.Root, configFileName) }
func (p Paths) MetadataFile() string      { return join(p.Root, metadataFileName) }
func (p Paths) LogTextFile() string       { return join(p.Root, logTextFileName) }
func (p Paths) LogJSONFile() string       { return join(p.Root, logJSONFileName) }
func (p Paths) RootDirFile() string       { return join(p.Root, rootDirFileName) }
func (p Paths) MainPIDFile() string       { return join(p.Root, mainPIDFileName) }
func (p Paths) ManifestFile(agent string) string {
	return join(p.Root, agent+".mcp.json")
}
func (p Paths) SettingsFile(agent string) string {
	return join(p.Root, agent+"_settings.json")
}
func (p Paths) LLMConnectionsFile(agent string) string {
	return join(p.Root, agent+"_llm_mcp_connections.json")
}

// RestoredSession is what Restore exposes to the Orchestrator.
type RestoredSession struct {
	Paths       Paths
	Metadata    Metadata
	RootDir     string
	ToolVersion string
}
