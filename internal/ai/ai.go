// Package ai is the content-generation collaborator: a prompt in, text
// snippets or one image out.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

type Mode string

const (
	ModeText  Mode = "text"
	ModeImage Mode = "image"
)

// Result holds either Snippets or Image. Image is a URL or data URI.
type Result struct {
	Snippets []string `json:"snippets,omitempty"`
	Image    string   `json:"image,omitempty"`
}

func (r Result) Empty() bool {
	return len(r.Snippets) == 0 && r.Image == ""
}

type Generator interface {
	Generate(ctx context.Context, prompt string, mode Mode) (Result, error)
}

var ErrNotConfigured = errors.New("ai endpoint not configured")

// FallbackSnippets are inserted when generation fails.
var FallbackSnippets = []string{
	"Main idea",
	"Supporting point",
	"Open question",
	"Next step",
}

// HTTPGenerator posts the prompt as JSON to an endpoint that answers with a
// Result.
type HTTPGenerator struct {
	Endpoint string
	Token    string
	HTTP     *http.Client
}

func NewHTTPGenerator(endpoint, token string) *HTTPGenerator {
	return &HTTPGenerator{
		Endpoint: endpoint,
		Token:    token,
		HTTP:     &http.Client{Timeout: 60 * time.Second},
	}
}

type request struct {
	Prompt string `json:"prompt"`
	Mode   Mode   `json:"mode"`
}

func (g *HTTPGenerator) Generate(ctx context.Context, prompt string, mode Mode) (Result, error) {
	if g.Endpoint == "" {
		return Result{}, ErrNotConfigured
	}
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(request{Prompt: prompt, Mode: mode}); err != nil {
		return Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.Endpoint, buf)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.Token)
	}
	resp, err := g.HTTP.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("generate: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("generate: unexpected status %s", resp.Status)
	}
	var out Result
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("generate: decode response: %w", err)
	}
	out.Snippets = clean(out.Snippets)
	if out.Empty() {
		return Result{}, errors.New("generate: empty response")
	}
	return out, nil
}

func clean(snippets []string) []string {
	out := snippets[:0]
	for _, s := range snippets {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Fallback wraps a Generator so failures degrade to FallbackSnippets. The
// returned error is the original failure, for reporting only.
type Fallback struct {
	Generator Generator
}

func WithFallback(g Generator) *Fallback {
	return &Fallback{Generator: g}
}

func (f *Fallback) Generate(ctx context.Context, prompt string, mode Mode) (Result, error) {
	if f.Generator == nil {
		return Result{Snippets: append([]string(nil), FallbackSnippets...)}, ErrNotConfigured
	}
	res, err := f.Generator.Generate(ctx, prompt, mode)
	if err != nil {
		log.WithError(err).WithField("mode", mode).Warn("generation failed, using fallback snippets")
		return Result{Snippets: append([]string(nil), FallbackSnippets...)}, err
	}
	return res, nil
}
