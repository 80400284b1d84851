package chain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"cmp-dialogue/internal/ai"
	"cmp-dialogue/internal/retry"
)

// Handle names one of the fixed prompt roles.
type Handle string

const (
	Professor     Handle = "alex_professor_it"
	Student       Handle = "alice_student_it"
	LinkGenerator Handle = "generate_links_from_question"
)

var ErrUnknownChain = errors.New("unknown chain")

// Vars are the named template inputs. Fields a template does not reference
// are ignored.
type Vars struct {
	Question         string
	Context          string
	Answer           string
	BrandInstruction string
}

type Completer interface {
	Complete(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage) (string, error)
}

// Registry holds the parsed templates and the completion client. It is built
// once and safe for concurrent use.
type Registry struct {
	client Completer
	cfg    ai.ChatConfig
	policy retry.Policy
	chains map[Handle]*template.Template
}

// NewRegistry parses the built-in templates, replacing any handle that has a
// non-blank entry in overrides.
func NewRegistry(client Completer, cfg ai.ChatConfig, policy retry.Policy, overrides map[Handle]string) (*Registry, error) {
	sources := map[Handle]string{
		Professor:     professorTemplate,
		Student:       studentTemplate,
		LinkGenerator: linkGeneratorTemplate,
	}
	for h, src := range overrides {
		if _, ok := sources[h]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownChain, h)
		}
		if strings.TrimSpace(src) != "" {
			sources[h] = src
		}
	}
	chains := make(map[Handle]*template.Template, len(sources))
	for h, src := range sources {
		tmpl, err := template.New(string(h)).Option("missingkey=error").Parse(src)
		if err != nil {
			return nil, fmt.Errorf("parse %s template failed: %w", h, err)
		}
		chains[h] = tmpl
	}
	return &Registry{
		client: client,
		cfg:    cfg,
		policy: policy.Named("llm"),
		chains: chains,
	}, nil
}

// Render fills the template of h without calling the model.
func (r *Registry) Render(h Handle, vars Vars) (string, error) {
	tmpl, ok := r.chains[h]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownChain, h)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render %s prompt failed: %w", h, err)
	}
	return buf.String(), nil
}

// Invoke renders the prompt for h and sends it to the completion service,
// retrying throttling and server-side failures.
func (r *Registry) Invoke(ctx context.Context, h Handle, vars Vars) (string, error) {
	prompt, err := r.Render(h, vars)
	if err != nil {
		return "", err
	}
	messages := []ai.ChatMessage{{Role: "user", Content: prompt}}

	out, err := retry.Do(ctx, r.policy, func(ctx context.Context) (string, error) {
		return r.client.Complete(ctx, r.cfg, messages)
	}, retry.IsTransientExternal)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
