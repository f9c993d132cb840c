// Package prompts serves the knowledge documents under docs/ as MCP prompts.
//
// Each document is markdown with a YAML header giving the prompt name, its
// description and its arguments. Argument values replace {{name}}
// placeholders in the body.
package prompts

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"
)

//go:embed docs/*.md
var docs embed.FS

// Argument is a prompt argument.
type Argument struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Required    bool   `yaml:"required"`
	Default     string `yaml:"default"`
}

// Prompt is one parsed document.
type Prompt struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Arguments   []Argument `yaml:"arguments"`
	Body        string     `yaml:"-"`
}

// ErrMissingArgument is returned when a required argument is empty.
var ErrMissingArgument = errors.New("missing required argument")

// Load parses every embedded document, sorted by name.
func Load() ([]Prompt, error) {
	return load(docs, "docs")
}

func load(fsys fs.FS, dir string) ([]Prompt, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	var out []Prompt
	seen := map[string]bool{}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".md" {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		p, err := Parse(string(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("%s: duplicate prompt %q", e.Name(), p.Name)
		}
		seen[p.Name] = true
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Parse splits a document into its header and body.
func Parse(doc string) (Prompt, error) {
	var p Prompt
	rest, ok := strings.CutPrefix(doc, "---\n")
	if !ok {
		return p, errors.New("missing header")
	}
	header, body, ok := strings.Cut(rest, "\n---\n")
	if !ok {
		return p, errors.New("unterminated header")
	}
	if err := yaml.Unmarshal([]byte(header), &p); err != nil {
		return p, fmt.Errorf("parse header: %w", err)
	}
	if p.Name == "" {
		return p, errors.New("header has no name")
	}
	p.Body = strings.TrimSpace(body)
	return p, nil
}

// Render fills the placeholders of the body with args, falling back to
// argument defaults.
func (p Prompt) Render(args map[string]string) (string, error) {
	text := p.Body
	for _, a := range p.Arguments {
		v := strings.TrimSpace(args[a.Name])
		if v == "" {
			if a.Required {
				return "", fmt.Errorf("%w: %s", ErrMissingArgument, a.Name)
			}
			v = a.Default
		}
		text = strings.ReplaceAll(text, "{{"+a.Name+"}}", v)
	}
	return text, nil
}

// Definition returns the MCP definition of the prompt.
func (p Prompt) Definition() mcp.Prompt {
	opts := []mcp.PromptOption{mcp.WithPromptDescription(p.Description)}
	for _, a := range p.Arguments {
		argOpts := []mcp.ArgumentOption{mcp.ArgumentDescription(a.Description)}
		if a.Required {
			argOpts = append(argOpts, mcp.RequiredArgument())
		}
		opts = append(opts, mcp.WithArgument(a.Name, argOpts...))
	}
	return mcp.NewPrompt(p.Name, opts...)
}

func (p Prompt) handle(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	text, err := p.Render(req.Params.Arguments)
	if err != nil {
		return nil, err
	}
	return mcp.NewGetPromptResult(p.Description, []mcp.PromptMessage{
		mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
	}), nil
}

// Register adds every embedded prompt to s and returns how many were added.
func Register(s *server.MCPServer) (int, error) {
	all, err := Load()
	if err != nil {
		return 0, err
	}
	for _, p := range all {
		s.AddPrompt(p.Definition(), p.handle)
	}
	return len(all), nil
}
