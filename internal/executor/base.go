package executor

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kandev/swarm/internal/common/apperr"
	"github.com/kandev/swarm/internal/common/logger"
)

// streamEvent is one line of the provider CLI's line-delimited JSON
// stream, e.g. {"type":"assistant","text":"..."} or the terminal
// {"type":"result","text":"...","session_id":"..."}.
type streamEvent struct {
	Type      string                 `json:"type"`
	Text      string                 `json:"text"`
	SessionID string                 `json:"session_id"`
	Cost      *float64               `json:"cost,omitempty"`
	Usage     map[string]int         `json:"usage,omitempty"`
	Extra     map[string]interface{} `json:"-"`
}

// argBuilder turns a Config and the per-call prompt into a provider CLI
// invocation. NativeExecutor and ForeignExecutor each supply their own.
type argBuilder func(cfg Config, prompt, sessionID string) (binary string, args []string)

// base is shared by NativeExecutor and ForeignExecutor: request/result
// logging, session-token bookkeeping, and subprocess invocation.
type base struct {
	cfg     Config
	log     *logger.Logger
	sink    LogSink
	buildFn argBuilder

	mu        sync.Mutex
	sessionID string
}

func newBase(cfg Config, sink LogSink, log *logger.Logger, build argBuilder) *base {
	if log == nil {
		log = logger.Default()
	}
	return &base{
		cfg:       cfg,
		log:       log,
		sink:      sink,
		buildFn:   build,
		sessionID: cfg.ResumeSessionID,
	}
}

func (b *base) HasSession() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessionID != ""
}

func (b *base) ResetSession() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessionID = ""
}

func (b *base) currentSession() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessionID
}

func (b *base) setSession(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessionID = id
}

// execute runs the full per-call algorithm described in the component
// design: log request, invoke provider, stream intermediate events, log
// and validate the terminal result.
func (b *base) execute(ctx context.Context, prompt string) (*Result, error) {
	callID := uuid.NewString()
	start := nowFunc()

	b.logEvent("request", map[string]interface{}{
		"call_id": callID,
		"prompt":  prompt,
	})

	binary, args := b.buildFn(b.cfg, prompt, b.currentSession())

	result, err := b.runSubprocess(ctx, binary, args, callID)
	if err != nil {
		wrapped := apperr.ExecutionError(fmt.Sprintf("agent %s: provider invocation failed", b.cfg.AgentName), err)
		b.logEvent("result", map[string]interface{}{
			"call_id": callID,
			"error":   wrapped.Error(),
		})
		return nil, wrapped
	}

	if strings.TrimSpace(result.Text) == "" {
		err := apperr.ExecutionError(fmt.Sprintf("agent %s: result payload is empty", b.cfg.AgentName), nil)
		b.logEvent("result", map[string]interface{}{
			"call_id": callID,
			"error":   err.Error(),
		})
		return nil, err
	}

	b.setSession(result.SessionID)
	result.DurationMs = nowFunc().Sub(start).Milliseconds()

	b.logEvent("result", map[string]interface{}{
		"call_id":     callID,
		"duration_ms": result.DurationMs,
		"session_id":  result.SessionID,
	})

	return result, nil
}

// runSubprocess launches the provider CLI, streaming intermediate
// assistant/tool_call/system events into the log as they arrive, and
// returns the terminal result event.
func (b *base) runSubprocess(ctx context.Context, binary string, args []string, callID string) (*Result, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = b.cfg.WorkingDir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var final *Result
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev streamEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			continue
		}

		switch ev.Type {
		case "result":
			final = &Result{Type: "result", Text: ev.Text, SessionID: ev.SessionID, Cost: ev.Cost, Usage: ev.Usage}
		default:
			b.logEvent(ev.Type, map[string]interface{}{
				"call_id": callID,
				"text":    ev.Text,
			})
		}
	}

	waitErr := cmd.Wait()
	if waitErr != nil {
		return nil, waitErr
	}
	if final == nil {
		return nil, fmt.Errorf("provider exited without emitting a result event")
	}
	return final, nil
}

// logEvent records one line of the structured session log, shaping it
// into the envelope-plus-nested-event schema: ts/instance/instance_id/
// calling_instance/calling_instance_id at the top level, eventType and
// fields nested under "event".
func (b *base) logEvent(eventType string, fields map[string]interface{}) {
	if b.sink == nil {
		return
	}

	fields["type"] = eventType

	var callingInstance, callingInstanceID interface{}
	if b.cfg.CallerName != "" {
		callingInstance = b.cfg.CallerName
		callingInstanceID = b.cfg.CallerID
	}

	record := map[string]interface{}{
		"ts":                  nowFunc().UTC().Format(time.RFC3339Nano),
		"instance":            b.cfg.AgentName,
		"instance_id":         b.cfg.AgentID,
		"calling_instance":    callingInstance,
		"calling_instance_id": callingInstanceID,
		"event":               fields,
	}

	if err := b.sink.RecordEvent(record); err != nil {
		b.log.Warn("failed to record session event", zap.Error(err))
	}
}
