package main

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/spf13/cobra"

	"github.com/kandev/swarm/internal/executor"
)

// generatePromptTemplate is rendered with the requested model name and
// handed to the native provider CLI as a one-shot prompt asking it to
// draft a config document; authoring the document itself is the
// provider's job, not this binary's.
const generatePromptTemplate = `You are helping a developer author a swarm
config document (version: 1, a "swarm" with "main" and "instances").
{{- if .Model }} Target model for the agents: {{ .Model }}.{{ end }}
Ask clarifying questions if the task is ambiguous, then produce a single
YAML document matching that schema and nothing else.`

func newGenerateCommand() *cobra.Command {
	var (
		output string
		model  string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Template-driven assistant for authoring a config, via an external LLM CLI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(output, model)
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "file to write the drafted config to (default: stdout)")
	cmd.Flags().StringVar(&model, "model", "", "model the assisting LLM CLI should target for the drafted agents")

	return cmd
}

func runGenerate(output, model string) error {
	tmpl, err := template.New("generate-prompt").Funcs(sprig.TxtFuncMap()).Parse(generatePromptTemplate)
	if err != nil {
		return err
	}
	var prompt bytes.Buffer
	if err := tmpl.Execute(&prompt, struct{ Model string }{Model: model}); err != nil {
		return err
	}

	cmd := exec.Command(executor.DefaultNativeBinary, "-p", prompt.String(), "--output-format", "text")
	cmd.Stdin = os.Stdin
	cmd.Stderr = os.Stderr

	out, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("delegated config-authoring CLI failed: %w", err)
	}

	if output == "" {
		_, err := os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(output, out, 0o644)
}
