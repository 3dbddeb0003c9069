package reports

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/dimitrije/pod-console/internal/apperr"
	"github.com/dimitrije/pod-console/internal/models"
	"golang.org/x/time/rate"
)

// Fetcher loads the full interview behind an id.
type Fetcher func(ctx context.Context, id string) (*models.Interview, error)

type Exporter struct {
	delay time.Duration
	now   func() time.Time
	seq   func() int
}

// NewExporter returns an exporter that waits delay between batch items.
func NewExporter(delay time.Duration) *Exporter {
	return &Exporter{
		delay: delay,
		now:   time.Now,
		seq:   func() int { return rand.IntN(1000) },
	}
}

type Export struct {
	FileName string
	Document Document
	PDF      []byte
}

// Export renders one interview. Interviews without a report are refused.
func (e *Exporter) Export(iv *models.Interview) (*Export, error) {
	if iv == nil || iv.Report == nil {
		return nil, apperr.NotFound("interview report", "")
	}
	now := e.now()
	doc := BuildDocument(iv, now, e.seq())
	data, err := Render(doc, now)
	if err != nil {
		return nil, err
	}
	return &Export{
		FileName: FileName(iv.Candidate.Name, iv.JobRole, now),
		Document: doc,
		PDF:      data,
	}, nil
}

type BatchResult struct {
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Failures  map[string]string `json:"failures,omitempty"`
}

// Batch exports ids one after another into a zip written to w, pausing
// between items. A failed item is counted and skipped. A cancelled context
// stops the batch; the archive holds whatever finished.
func (e *Exporter) Batch(ctx context.Context, ids []string, fetch Fetcher, w io.Writer) (*BatchResult, error) {
	result := &BatchResult{Failures: map[string]string{}}
	limiter := rate.NewLimiter(rate.Every(e.delay), 1)
	if e.delay <= 0 {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}

	zw := zip.NewWriter(w)
	used := make(map[string]int)

	for _, id := range ids {
		if err := limiter.Wait(ctx); err != nil {
			_ = zw.Close()
			return result, fmt.Errorf("batch export interrupted: %w", err)
		}

		out, err := e.exportOne(ctx, id, fetch)
		if err != nil {
			result.Failed++
			result.Failures[id] = apperr.Message(err)
			continue
		}

		name := uniqueName(out.FileName, used)
		entry, err := zw.Create(name)
		if err != nil {
			_ = zw.Close()
			return result, fmt.Errorf("failed to add %s to archive: %w", name, err)
		}
		if _, err := entry.Write(out.PDF); err != nil {
			_ = zw.Close()
			return result, fmt.Errorf("failed to write %s to archive: %w", name, err)
		}
		result.Succeeded++
	}

	if err := zw.Close(); err != nil {
		return result, fmt.Errorf("failed to finish archive: %w", err)
	}
	return result, nil
}

func (e *Exporter) exportOne(ctx context.Context, id string, fetch Fetcher) (*Export, error) {
	iv, err := fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.Export(iv)
}

func uniqueName(name string, used map[string]int) string {
	used[name]++
	n := used[name]
	if n == 1 {
		return name
	}
	return fmt.Sprintf("%s_%d.pdf", strings.TrimSuffix(name, ".pdf"), n)
}
