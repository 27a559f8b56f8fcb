// Package analysis fans a captured image out into one prompt per catalog
// section and assembles the combined report.
package analysis

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/vbonduro/aushadhi/internal/catalog"
	"github.com/vbonduro/aushadhi/internal/completion"
	"github.com/vbonduro/aushadhi/internal/domain"
	"github.com/vbonduro/aushadhi/internal/imagedata"
)

type Status string

const (
	StatusLoading  Status = "loading"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

type Section struct {
	Key     catalog.SectionKey `json:"key"`
	Title   string             `json:"title"`
	Content string             `json:"content"`
	Status  Status             `json:"status"`
	Error   string             `json:"error,omitempty"`
}

// Snapshot is a copy of every section's state in catalog order. Observers own
// the slice they receive.
type Snapshot []Section

// Observer receives a snapshot once when the run starts and again after each
// section settles. Calls are serialized.
type Observer func(Snapshot)

type Report struct {
	Language domain.Language `json:"language"`
	Sections []Section       `json:"sections"`
	Text     string          `json:"report"`
}

// AnalysisError means the fan-out could not be started at all. Its message is
// localized for display.
type AnalysisError struct {
	Language domain.Language
	Message  string
	Err      error
}

func (e *AnalysisError) Error() string {
	return e.Message
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

type Orchestrator struct {
	completer completion.Completer
	logger    *slog.Logger
}

func NewOrchestrator(completer completion.Completer, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{completer: completer, logger: logger}
}

// Analyze sends one request per catalog section concurrently and waits for
// every request to settle. A failed section is recorded in the report and never
// aborts its siblings; only a bad language or unreadable image returns an error.
func (o *Orchestrator) Analyze(ctx context.Context, imageDataURL string, lang domain.Language, observe Observer) (*Report, error) {
	cat, err := catalog.For(lang)
	if err != nil {
		return nil, &AnalysisError{
			Language: lang,
			Message:  catalog.MustFor(domain.English).Strings.ReportFailed,
			Err:      err,
		}
	}
	if _, err := imagedata.FromDataURL(imageDataURL); err != nil {
		return nil, &AnalysisError{Language: lang, Message: cat.Strings.ReportFailed, Err: err}
	}

	r := newRun(cat, observe)
	r.publish()

	start := time.Now()
	o.logger.Info("section analysis started", "language", lang, "sections", len(r.sections))

	var wg conc.WaitGroup
	for _, section := range cat.Sections() {
		wg.Go(func() {
			text, err := o.completer.Complete(ctx, completion.Request{
				Prompt:       section.Template,
				ImageDataURL: imageDataURL,
			})
			if err != nil {
				o.logger.Warn("section analysis failed", "section", section.Key, "error", err)
			}
			r.settle(section.Key, text, err)
		})
	}
	wg.Wait()

	report := r.report()
	o.logger.Info("section analysis complete",
		"language", lang,
		"failed_sections", countStatus(report.Sections, StatusError),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return report, nil
}

// run is the mutable section state of one Analyze call.
type run struct {
	mu       sync.Mutex
	cat      *catalog.Catalog
	sections []Section
	index    map[catalog.SectionKey]int
	observe  Observer
}

func newRun(cat *catalog.Catalog, observe Observer) *run {
	r := &run{
		cat:     cat,
		index:   make(map[catalog.SectionKey]int, len(catalog.SectionKeys)),
		observe: observe,
	}
	for i, s := range cat.Sections() {
		r.sections = append(r.sections, Section{Key: s.Key, Title: s.Title, Status: StatusLoading})
		r.index[s.Key] = i
	}
	return r
}

func (r *run) snapshot() Snapshot {
	out := make(Snapshot, len(r.sections))
	copy(out, r.sections)
	return out
}

func (r *run) publish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.observe != nil {
		r.observe(r.snapshot())
	}
}

// settle moves a loading section to its terminal state. A section settles
// exactly once; later calls for the same key are ignored.
func (r *run) settle(key catalog.SectionKey, text string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &r.sections[r.index[key]]
	if s.Status != StatusLoading {
		return
	}
	if err != nil {
		s.Status = StatusError
		s.Error = err.Error()
	} else {
		s.Status = StatusComplete
		s.Content = text
	}
	if r.observe != nil {
		r.observe(r.snapshot())
	}
}

func (r *run) report() *Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	sections := r.snapshot()
	return &Report{
		Language: r.cat.Language,
		Sections: sections,
		Text:     Render(sections, r.cat.Strings.ErrorLabel),
	}
}

func countStatus(sections []Section, status Status) int {
	n := 0
	for _, s := range sections {
		if s.Status == status {
			n++
		}
	}
	return n
}
