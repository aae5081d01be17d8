package executor

import (
	"os"
	"strings"

	"github.com/kandev/swarm/internal/common/apperr"
	"github.com/kandev/swarm/internal/common/logger"
	"github.com/kandev/swarm/internal/swarmconfig"
)

func joinCSV(items []string) string {
	return strings.Join(items, ",")
}

// DefaultNativeBinary and DefaultForeignBinary are the provider CLI
// front-ends used both for delegated sub-calls here and for the
// orchestrator's own main-agent launch, so the two command-line builders
// never drift apart on which binary a provider maps to.
var (
	DefaultNativeBinary  = nativeBinary
	DefaultForeignBinary = foreignBinary
)

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// New is the factory mapping a provider tag to its executor variant.
// Unknown providers fail here, at construction time, not at run time —
// config load is expected to have already rejected them, but this is the
// last line of defense.
func New(cfg Config, sink LogSink, log *logger.Logger) (Executor, error) {
	switch swarmconfig.Provider(cfg.Provider) {
	case "", swarmconfig.ProviderAnthropic:
		return NewNativeExecutor(cfg, sink, log), nil
	case swarmconfig.ProviderOpenAI:
		return NewForeignExecutor(cfg, sink, log), nil
	default:
		return nil, apperr.ConfigError("unknown provider: "+cfg.Provider, nil)
	}
}
