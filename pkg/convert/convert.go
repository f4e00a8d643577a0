// Package convert runs the conversion of a profile list into fragments.
//
// A [Converter] assembles each profile into a document and hands it to a
// fragment writer, applying the duplicate-name policy, the failure policy,
// optional CEL selection and bounded parallelism. Results are reported in
// input order.
package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/not-in-stock/terminal-profiles-hm/pkg/document"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/expr"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/log"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/profile"
)

// ErrDuplicateName is returned when two profiles share a name under
// [DuplicatesError].
var ErrDuplicateName = errors.New("duplicate profile name")

// Assembler builds the document of one profile.
type Assembler interface {
	Assemble(p *profile.Profile) (*document.Document, error)
}

// Writer persists documents.
type Writer interface {
	// Write persists doc under id and returns its location.
	Write(id string, doc *document.Document) (string, error)
	// Diff describes what Write would change, without writing.
	Diff(id string, doc *document.Document) (string, error)
}

// Result is the outcome for one profile.
type Result struct {
	Err      error
	Name     string
	ID       string
	Location string
	Diff     string
	Skipped  bool
}

// Report holds one [Result] per input profile, in input order.
type Report struct {
	Results []Result
}

// Written returns the results that produced a fragment (or a diff, in
// dry-run mode).
func (r Report) Written() []Result {
	var out []Result

	for _, res := range r.Results {
		if res.Err == nil && !res.Skipped {
			out = append(out, res)
		}
	}

	return out
}

// Failed returns the results that failed.
func (r Report) Failed() []Result {
	var out []Result

	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}

	return out
}

// Converter converts profile lists.
type Converter struct {
	assembler   Assembler
	writer      Writer
	selector    *expr.Selector
	tracer      trace.Tracer
	duplicates  DuplicatePolicy
	onError     FailurePolicy
	parallelism int
	dryRun      bool
}

// Opt configures a [Converter].
type Opt func(*Converter)

// WithDuplicatePolicy sets the duplicate-name policy. Defaults to
// [DuplicatesError].
func WithDuplicatePolicy(p DuplicatePolicy) Opt {
	return func(c *Converter) {
		if p != "" {
			c.duplicates = p
		}
	}
}

// WithFailurePolicy sets the failure policy. Defaults to [OnErrorAbort].
func WithFailurePolicy(p FailurePolicy) Opt {
	return func(c *Converter) {
		if p != "" {
			c.onError = p
		}
	}
}

// WithParallelism sets how many profiles are converted at once. Values below
// 1 mean 1.
func WithParallelism(n int) Opt {
	return func(c *Converter) {
		c.parallelism = max(n, 1)
	}
}

// WithSelector skips profiles the selector does not match.
func WithSelector(s *expr.Selector) Opt {
	return func(c *Converter) {
		c.selector = s
	}
}

// WithDryRun reports diffs instead of writing.
func WithDryRun(dryRun bool) Opt {
	return func(c *Converter) {
		c.dryRun = dryRun
	}
}

// WithTracer sets the tracer. Defaults to the global tracer provider.
func WithTracer(t trace.Tracer) Opt {
	return func(c *Converter) {
		if t != nil {
			c.tracer = t
		}
	}
}

// New creates a [Converter].
func New(assembler Assembler, writer Writer, opts ...Opt) *Converter {
	c := &Converter{
		assembler:   assembler,
		writer:      writer,
		tracer:      otel.Tracer("converter"),
		duplicates:  DuplicatesError,
		onError:     OnErrorAbort,
		parallelism: 1,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Run converts every profile in l.
//
// Under [OnErrorAbort] the first failure (in input order) is returned and
// profiles that had not started are left out of the report. Under
// [OnErrorContinue] every profile is processed and all failures are returned
// joined. Profiles sharing an identifier are always processed sequentially,
// in input order.
func (c *Converter) Run(ctx context.Context, l profile.List) (Report, error) {
	ids, err := Identifiers(l, c.duplicates)
	if err != nil {
		return Report{}, err
	}

	logger := log.WithContext(ctx)
	start := time.Now()

	results := make([]Result, len(l))
	done := make([]bool, len(l))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallelism)

	for _, group := range groupByID(ids) {
		g.Go(func() error {
			for _, i := range group {
				if gctx.Err() != nil {
					return nil //nolint:nilerr // Cancellation is reported after Wait.
				}

				results[i] = c.convert(gctx, l[i], ids[i])
				done[i] = true

				if results[i].Err != nil && c.onError == OnErrorAbort {
					return results[i].Err
				}
			}

			return nil
		})
	}

	// Errors are collected from the results, in input order.
	_ = g.Wait()

	report := Report{}

	var errs []error

	for i := range results {
		if !done[i] {
			continue
		}

		report.Results = append(report.Results, results[i])

		if results[i].Err != nil {
			errs = append(errs, results[i].Err)
		}
	}

	logger.Debug("conversion finished",
		slog.Int("profiles", len(l)),
		slog.Int("written", len(report.Written())),
		slog.Int("failed", len(errs)),
		slog.Duration("duration", time.Since(start)),
	)

	switch {
	case len(errs) == 0 && ctx.Err() != nil:
		return report, fmt.Errorf("convert: %w", ctx.Err())
	case len(errs) == 0:
		return report, nil
	case c.onError == OnErrorAbort:
		return report, errs[0]
	default:
		return report, errors.Join(errs...)
	}
}

func (c *Converter) convert(ctx context.Context, p *profile.Profile, id string) Result {
	ctx, span := c.tracer.Start(ctx, "convert.profile", trace.WithAttributes(
		attribute.String("profile.name", p.Name),
		attribute.String("profile.id", id),
		attribute.Bool("dry_run", c.dryRun),
	))
	defer span.End()

	logger := log.WithContext(ctx).With(slog.String("profile", p.Name))

	res := Result{Name: p.Name, ID: id}

	fail := func(err error) Result {
		res.Err = fmt.Errorf("profile %q: %w", p.Name, err)

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.DebugContext(ctx, "profile failed", slog.Any("error", err))

		return res
	}

	if c.selector != nil {
		m, err := p.Map()
		if err != nil {
			return fail(err)
		}

		ok, err := c.selector.Match(p.Name, m)
		if err != nil {
			return fail(err)
		}

		if !ok {
			logger.DebugContext(ctx, "profile not selected", slog.String("selector", c.selector.String()))

			res.Skipped = true
			span.SetAttributes(attribute.Bool("skipped", true))

			return res
		}
	}

	doc, err := c.assembler.Assemble(p)
	if err != nil {
		return fail(err)
	}

	if c.dryRun {
		res.Diff, err = c.writer.Diff(id, doc)
		if err != nil {
			return fail(err)
		}

		return res
	}

	res.Location, err = c.writer.Write(id, doc)
	if err != nil {
		return fail(err)
	}

	span.SetAttributes(attribute.String("location", res.Location))

	return res
}

// groupByID groups profile indexes by identifier, in order of first
// appearance.
func groupByID(ids []string) [][]int {
	index := make(map[string]int, len(ids))

	var groups [][]int

	for i, id := range ids {
		g, ok := index[id]
		if !ok {
			g = len(groups)
			index[id] = g
			groups = append(groups, nil)
		}

		groups[g] = append(groups[g], i)
	}

	return groups
}
