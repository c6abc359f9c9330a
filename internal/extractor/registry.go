package extractor

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ytget/vidgrab/internal/cache"
	"github.com/ytget/vidgrab/internal/model"
	"github.com/ytget/vidgrab/internal/progress"
)

// Status is the outcome of dispatching a URL to the registry.
type Status int

const (
	// StatusMatched means an extractor claimed the URL and produced a
	// record.
	StatusMatched Status = iota

	// StatusNotSuitable means no registered extractor claims the URL.
	StatusNotSuitable

	// StatusFailed means the claiming extractor returned an error.
	StatusFailed
)

// Result describes one dispatch: which extractor claimed the URL and what
// it produced or why it failed.
type Result struct {
	Status    Status
	Extractor string
	Record    model.Record
	Err       error
}

// Registry holds extractors in priority order and routes URLs to them.
type Registry struct {
	mu          sync.Mutex
	extractors  []Extractor
	cache       *cache.Cache
	log         progress.LogFunc
	initialized map[string]bool
}

// NewRegistry returns an empty registry. The cache may be nil.
func NewRegistry(c *cache.Cache, log progress.LogFunc) *Registry {
	return &Registry{
		cache:       c,
		log:         log,
		initialized: make(map[string]bool),
	}
}

// Register appends an extractor. Order matters: earlier extractors are asked
// first, so catch-all extractors belong at the end.
func (r *Registry) Register(e Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors = append(r.extractors, e)
}

// Lookup finds an extractor by name, case-insensitively.
func (r *Registry) Lookup(name string) (Extractor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.extractors {
		if strings.EqualFold(e.Name(), name) {
			return e, true
		}
	}
	return nil, false
}

// Dispatch routes the URL to the first extractor that claims it.
func (r *Registry) Dispatch(ctx context.Context, url string) Result {
	r.mu.Lock()
	extractors := make([]Extractor, len(r.extractors))
	copy(extractors, r.extractors)
	r.mu.Unlock()

	for _, e := range extractors {
		if !e.Suitable(url) {
			continue
		}
		return r.runExtractor(ctx, e, url)
	}
	return Result{Status: StatusNotSuitable}
}

// DispatchTo routes the URL to a named extractor, bypassing the Suitable
// scan. Used for URL records that carry an extractor key.
func (r *Registry) DispatchTo(ctx context.Context, name, url string) Result {
	e, ok := r.Lookup(name)
	if !ok {
		return Result{
			Status: StatusNotSuitable,
			Err:    fmt.Errorf("no extractor named %q", name),
		}
	}
	return r.runExtractor(ctx, e, url)
}

func (r *Registry) runExtractor(ctx context.Context, e Extractor, url string) Result {
	if !e.Working() {
		r.logf(progress.SeverityWarning,
			"extractor %s is marked broken, results may be incomplete", e.Name())
	}
	if err := r.initialize(ctx, e); err != nil {
		return Result{
			Status:    StatusFailed,
			Extractor: e.Name(),
			Err:       &ExtractError{Extractor: e.Name(), URL: url, Err: err},
		}
	}

	record, err := e.Extract(ctx, url)
	if err != nil {
		if _, ok := err.(*ExtractError); !ok {
			err = &ExtractError{Extractor: e.Name(), URL: url, Err: err}
		}
		return Result{Status: StatusFailed, Extractor: e.Name(), Err: err}
	}

	annotate(record, e.Name(), url)
	return Result{Status: StatusMatched, Extractor: e.Name(), Record: record}
}

// initialize runs an extractor's Initialize exactly once.
func (r *Registry) initialize(ctx context.Context, e Extractor) error {
	r.mu.Lock()
	done := r.initialized[e.Name()]
	r.mu.Unlock()
	if done {
		return nil
	}
	if err := e.Initialize(ctx, r.cache); err != nil {
		return err
	}
	r.mu.Lock()
	r.initialized[e.Name()] = true
	r.mu.Unlock()
	return nil
}

// annotate stamps extractor provenance onto the record and its entries.
func annotate(record model.Record, name, url string) {
	meta := record.Meta()
	if meta.Extractor == "" {
		meta.Extractor = name
	}
	if meta.ExtractorKey == "" {
		meta.ExtractorKey = name
	}
	if meta.WebpageURL == "" {
		meta.WebpageURL = url
	}
}

func (r *Registry) logf(sev progress.Severity, format string, args ...any) {
	if r.log != nil {
		r.log(progress.LogEvent{
			Severity: sev,
			Sender:   []string{"extractor"},
			Message:  fmt.Sprintf(format, args...),
		})
	}
}
