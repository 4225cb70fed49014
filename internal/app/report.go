package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/joacominatel/queryreport/internal/catalog"
	"github.com/joacominatel/queryreport/internal/results"
	"github.com/joacominatel/queryreport/internal/theme"
)

// Banner widths.
const (
	titleRule   = 60
	sectionRule = 40
	entryRule   = 80
)

// DefaultPreviewLength is how much SQL text is echoed above each table.
const DefaultPreviewLength = 100

// Summary counts what a run did. Skipped entries were never executed
// because the run was interrupted or the connection was lost.
type Summary struct {
	Executed int
	Failed   int
	Skipped  int
}

// ReporterOption configures a Reporter.
type ReporterOption func(*Reporter)

// WithPreviewLength sets how many characters of SQL are echoed per entry.
func WithPreviewLength(n int) ReporterOption {
	return func(r *Reporter) {
		if n > 0 {
			r.previewLen = n
		}
	}
}

// WithClock overrides the time source used for the title banner.
func WithClock(now func() time.Time) ReporterOption {
	return func(r *Reporter) { r.now = now }
}

// Reporter runs a catalog against a connected service and writes the report.
type Reporter struct {
	service    *Service
	out        io.Writer
	logger     *log.Logger
	previewLen int
	now        func() time.Time
}

// NewReporter creates a reporter writing to out.
func NewReporter(service *Service, out io.Writer, logger *log.Logger, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		service:    service,
		out:        out,
		logger:     logger,
		previewLen: DefaultPreviewLength,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every catalog entry in order. A failing entry is reported
// inline and does not stop the run. The run stops early when ctx is done or
// the session no longer answers a ping after a failure.
func (r *Reporter) Run(ctx context.Context, cat *catalog.Catalog) Summary {
	logger := r.logger.With("run", uuid.NewString())
	logger.Info("report started", "queries", cat.Len(), "database", r.service.DatabaseName())

	r.printTitle(cat)

	var sum Summary
sections:
	for _, section := range cat.Sections {
		if ctx.Err() != nil {
			break
		}
		r.println()
		r.println(theme.StyleSection.Render(section.Title))
		r.println(rule("=", sectionRule))

		for _, entry := range section.Entries {
			if ctx.Err() != nil {
				break sections
			}
			sum.Executed++
			err := r.runEntry(ctx, logger, entry)
			if err == nil {
				continue
			}
			sum.Failed++
			logger.Error("query failed", "name", entry.Name, "err", err)
			r.println(theme.StyleError.Render("Query failed: " + failureMessage(err)))

			if perr := r.service.Ping(ctx); perr != nil && ctx.Err() == nil {
				logger.Error("connection lost", "err", perr)
				break sections
			}
		}
	}
	sum.Skipped = cat.Len() - sum.Executed
	if err := ctx.Err(); err != nil {
		logger.Warn("report interrupted", "err", err, "skipped", sum.Skipped)
	}

	r.printSummary(sum)
	logger.Info("report finished", "executed", sum.Executed, "failed", sum.Failed, "skipped", sum.Skipped)
	return sum
}

// failureMessage strips the query error prefix so the line reads
// "Query failed: <cause>".
func failureMessage(err error) string {
	var qe *ErrQuery
	if errors.As(err, &qe) && qe.Cause != nil {
		return qe.Cause.Error()
	}
	return err.Error()
}

func (r *Reporter) runEntry(ctx context.Context, logger *log.Logger, entry catalog.Entry) error {
	r.println()
	r.println(rule("=", entryRule))
	r.println(theme.StyleTitle.Render(entry.Name))
	r.println(rule("=", entryRule))
	r.println("Query: " + preview(entry.SQL, r.previewLen))
	r.println(rule("-", entryRule))

	result, err := r.service.ExecuteQuery(ctx, entry.SQL)
	if err != nil {
		return err
	}

	text, err := results.Render(result, entry.DisplayLimit())
	if err != nil {
		return &ErrQuery{Query: entry.SQL, Cause: err}
	}

	logger.Debug("query executed", "name", entry.Name, "rows", result.RowCount(), "duration", result.Duration)
	_, _ = io.WriteString(r.out, text)
	return nil
}

func (r *Reporter) printTitle(cat *catalog.Catalog) {
	r.println(theme.StyleTitle.Render(cat.Title))
	r.println(rule("=", titleRule))
	r.println("Analysis Date: " + r.now().Format("2006-01-02 15:04:05"))

	db := r.service.DatabaseName()
	if cat.Description != "" {
		db += " (" + cat.Description + ")"
	}
	r.println("Database: " + db)
	r.println(rule("=", titleRule))
}

func (r *Reporter) printSummary(sum Summary) {
	r.println()
	r.println(rule("=", entryRule))
	style := theme.StyleSuccess
	if sum.Failed > 0 || sum.Skipped > 0 {
		style = theme.StyleError
	}
	r.println(style.Render("ANALYSIS COMPLETE!"))
	r.println(fmt.Sprintf("Executed %d queries (%d failed)", sum.Executed, sum.Failed))
	if sum.Skipped > 0 {
		r.println(fmt.Sprintf("Skipped %d queries", sum.Skipped))
	}
	r.println(rule("=", entryRule))
}

func (r *Reporter) println(s ...string) {
	_, _ = io.WriteString(r.out, strings.Join(s, "")+"\n")
}

func rule(ch string, n int) string {
	return strings.Repeat(ch, n)
}

// preview trims sql and cuts it to n runes, marking the cut with "...".
func preview(sql string, n int) string {
	sql = strings.TrimSpace(sql)
	runes := []rune(sql)
	if len(runes) <= n {
		return sql
	}
	return string(runes[:n]) + "..."
}
