package mcptopology

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kandev/swarm/internal/swarmconfig"
)

func testConfig() *swarmconfig.Config {
	return &swarmconfig.Config{
		Version: 1,
		Name:    "test-swarm",
		Main:    "lead",
		Agents: map[string]swarmconfig.AgentSpec{
			"lead": {
				Name:        "lead",
				Description: "lead agent",
				Directories: []string{"."},
				Connections: []string{"worker1", "worker2"},
			},
			"worker1": {
				Name:        "worker1",
				Description: "worker one",
				Directories: []string{"."},
			},
			"worker2": {
				Name:        "worker2",
				Description: "worker two",
				Directories: []string{"."},
				Provider:    swarmconfig.ProviderOpenAI,
				Model:       "o3",
			},
		},
	}
}

func TestGenerateManifestEntryCount(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	instanceIDs := map[string]string{"lead": "id-lead", "worker1": "id-w1", "worker2": "id-w2"}

	manifests, err := Generate(cfg, instanceIDs, "/usr/local/bin/swarm", dir, false)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	lead := manifests["lead"]
	if len(lead.MCPServers) != 2 {
		t.Fatalf("expected 2 server entries for lead (k connections + |external|), got %d", len(lead.MCPServers))
	}

	if _, err := os.Stat(filepath.Join(dir, "worker2_llm_mcp_connections.json")); err != nil {
		t.Fatalf("expected sibling llm connections manifest for non-native provider agent: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "worker1_llm_mcp_connections.json")); err == nil {
		t.Fatalf("native provider agent should not get a sibling llm connections manifest")
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	dir1 := t.TempDir()
	dir2 := t.TempDir()
	cfg := testConfig()
	instanceIDs := map[string]string{"lead": "id-lead", "worker1": "id-w1", "worker2": "id-w2"}

	if _, err := Generate(cfg, instanceIDs, "/usr/local/bin/swarm", dir1, false); err != nil {
		t.Fatalf("first generate failed: %v", err)
	}
	if _, err := Generate(cfg, instanceIDs, "/usr/local/bin/swarm", dir2, false); err != nil {
		t.Fatalf("second generate failed: %v", err)
	}

	for _, name := range []string{"lead.mcp.json", "worker1.mcp.json", "worker2.mcp.json"} {
		b1, err := os.ReadFile(filepath.Join(dir1, name))
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		b2, err := os.ReadFile(filepath.Join(dir2, name))
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		if string(b1) != string(b2) {
			t.Fatalf("manifest %s not byte-identical across runs", name)
		}
	}
}

func TestGenerateEmptyConnectionsProducesMinimalManifest(t *testing.T) {
	dir := t.TempDir()
	cfg := &swarmconfig.Config{
		Version: 1,
		Main:    "solo",
		Agents: map[string]swarmconfig.AgentSpec{
			"solo": {Name: "solo", Description: "lone agent", Directories: []string{"."}},
		},
	}
	manifests, err := Generate(cfg, map[string]string{"solo": "id"}, "/usr/local/bin/swarm", dir, false)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(manifests["solo"].MCPServers) != 0 {
		t.Fatalf("expected zero server entries, got %d", len(manifests["solo"].MCPServers))
	}
}
