// Package pipeline implements the generation-with-caching protocol: hash
// the extracted text, check the cache, otherwise request N candidate
// decompositions in one batched call, keep the best parseable one, and
// persist it in the background.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/autorfp-ai/autorfp/pkg/artifact"
	"github.com/autorfp-ai/autorfp/pkg/cache"
	"github.com/autorfp-ai/autorfp/pkg/llm"
	"github.com/autorfp-ai/autorfp/pkg/plan"
	"github.com/autorfp-ai/autorfp/pkg/prompts"
)

// ErrNoCandidates is returned when every completion in a batch fails to
// parse into a valid plan.
var ErrNoCandidates = errors.New("no parseable candidates")

// PlanCollection is the cache collection generated plans live in.
const PlanCollection = "Plan"

const (
	defaultCandidates  = 3
	defaultTemperature = 0.2
	defaultFuzzyCutoff = 70
)

// Config tunes one pipeline instance.
type Config struct {
	Model       string
	Temperature float32
	Candidates  int
	MaxTokens   int
	FuzzyCutoff float64
	TTL         time.Duration
}

// Result is the outcome of one pipeline run.
type Result struct {
	Plan        *plan.Plan
	Fingerprint string
	// Cached reports whether the plan came from the cache without a
	// backend call.
	Cached bool
	// Candidates is the number of completions that parsed and validated,
	// zero on a cache hit.
	Candidates int
}

// Pipeline turns extracted document text into a cached project plan. The
// cache handle is injected at construction; the caller owns its lifecycle.
type Pipeline struct {
	provider llm.Provider
	binding  *artifact.Binding[plan.Plan]
	prompts  *prompts.Library
	cfg      Config

	persists sync.WaitGroup
}

// New builds a pipeline over provider and c. Zero Config fields fall back
// to the defaults: 3 candidates at temperature 0.2.
func New(provider llm.Provider, c *cache.Cache, lib *prompts.Library, cfg Config) *Pipeline {
	if cfg.Candidates <= 0 {
		cfg.Candidates = defaultCandidates
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.FuzzyCutoff <= 0 {
		cfg.FuzzyCutoff = defaultFuzzyCutoff
	}
	if cfg.TTL == 0 {
		cfg.TTL = cache.DefaultTTL
	}
	binding := artifact.NewBinding[plan.Plan](c,
		artifact.WithCollection(PlanCollection),
		artifact.WithTTL(cfg.TTL),
		artifact.WithDecodeOptions(artifact.Options{Fuzzy: true, Cutoff: cfg.FuzzyCutoff}),
	)
	return &Pipeline{
		provider: provider,
		binding:  binding,
		prompts:  lib,
		cfg:      cfg,
	}
}

// Fingerprint returns the cache key for text: the SHA-256 hex digest of
// the text with runs of whitespace collapsed, so reflowed extractions of
// the same document share a key.
func Fingerprint(text string) string {
	normalized := strings.Join(strings.Fields(text), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Run executes the full protocol for text. With force set the cache check
// is skipped and the result overwrites any existing entry.
func (p *Pipeline) Run(ctx context.Context, text string, force bool) (*Result, error) {
	fp := Fingerprint(text)

	if !force {
		if cached, ok := p.binding.Load(fp, false); ok {
			log.Printf("pipeline: cache hit for %q", fp)
			return &Result{Plan: cached, Fingerprint: fp, Cached: true}, nil
		}
	}

	completions, err := p.complete(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("generate candidates: %w", err)
	}

	candidates := make([]*plan.Plan, 0, len(completions))
	for i, completion := range completions {
		cand, err := artifact.FromYAML[plan.Plan](completion, artifact.Options{
			Fuzzy:  true,
			Cutoff: p.cfg.FuzzyCutoff,
		})
		if err != nil {
			log.Printf("pipeline: candidate %d unparseable: %v", i, err)
			continue
		}
		if err := cand.Validate(); err != nil {
			log.Printf("pipeline: candidate %d invalid: %v", i, err)
			continue
		}
		candidates = append(candidates, cand)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w (tried %d completions)", ErrNoCandidates, len(completions))
	}

	best := Rank(candidates)
	p.persistAsync(fp, best)
	return &Result{Plan: best, Fingerprint: fp, Candidates: len(candidates)}, nil
}

// Rank returns the candidate with the most subtasks, ties broken by total
// hours. More subtasks reads as a more complete decomposition; more hours
// as a more thorough one.
func Rank(candidates []*plan.Plan) *plan.Plan {
	best := candidates[0]
	for _, c := range candidates[1:] {
		switch {
		case c.SubtaskCount() > best.SubtaskCount():
			best = c
		case c.SubtaskCount() == best.SubtaskCount() && c.Hours() > best.Hours():
			best = c
		}
	}
	return best
}

// Lookup fetches a previously generated plan by fingerprint.
func (p *Pipeline) Lookup(fingerprint string, allowExpired bool) (*plan.Plan, bool) {
	return p.binding.Load(fingerprint, allowExpired)
}

// Forget removes the cached plan for fingerprint.
func (p *Pipeline) Forget(fingerprint string) bool {
	return p.binding.Delete(fingerprint)
}

// Flush blocks until in-flight background cache writes finish. Run never
// waits on them; this exists for shutdown and tests.
func (p *Pipeline) Flush() {
	p.persists.Wait()
}

func (p *Pipeline) complete(ctx context.Context, text string) ([]string, error) {
	example, err := artifact.ToYAML(plan.Example())
	if err != nil {
		return nil, fmt.Errorf("render output example: %w", err)
	}
	system, err := p.prompts.Render("system", nil)
	if err != nil {
		return nil, err
	}
	user, err := p.prompts.Render("user", map[string]string{
		"sow":           text,
		"categories":    plan.CategoryList(),
		"output_format": example,
	})
	if err != nil {
		return nil, err
	}

	return p.provider.Complete(ctx, llm.Request{
		Model: p.cfg.Model,
		Messages: []llm.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
		N:           p.cfg.Candidates,
	})
}

func (p *Pipeline) persistAsync(fingerprint string, best *plan.Plan) {
	p.persists.Add(1)
	go func() {
		defer p.persists.Done()
		if !p.binding.Save(fingerprint, best) {
			log.Printf("pipeline: cache write failed for %q", fingerprint)
		}
	}()
}
