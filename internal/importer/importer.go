// Package importer bulk-creates events from an uploaded CSV file.
//
// Every row is validated on its own; bad rows are reported and skipped while
// the good ones are committed together as one batch.
package importer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/geocoder89/eventdesk/internal/domain/event"
	"github.com/geocoder89/eventdesk/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const commitFailed = "DB commit failed"

// BatchCreator persists events atomically: either all of them or none.
type BatchCreator interface {
	CreateBatch(ctx context.Context, events []event.Event) error
}

// ImportError is either a row failure ({row, error}) or a batch failure
// ({error, detail}).
type ImportError struct {
	Row    int    `json:"row,omitempty"`
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

type Result struct {
	Rows    []Summary     `json:"rows"`
	Preview []Summary     `json:"preview"`
	Created int           `json:"created"`
	Errors  []ImportError `json:"errors"`
}

type Importer struct {
	store BatchCreator
	log   *slog.Logger
	prom  *observability.Prom
}

func New(store BatchCreator, log *slog.Logger, prom *observability.Prom) *Importer {
	if log == nil {
		log = slog.Default()
	}

	return &Importer{store: store, log: log, prom: prom}
}

// Import reads every record of r and commits the valid ones in one batch. It
// never fails as a whole: problems are returned in Result.Errors.
//
// When the commit is rejected nothing is persisted, so Created is reset to
// zero and Rows emptied; Preview still shows what was parsed.
func (im *Importer) Import(ctx context.Context, r io.Reader) Result {
	start := time.Now()

	ctx, span := otel.Tracer("eventdesk/importer").Start(ctx, "importer.Import")
	defer span.End()

	res := Result{
		Rows:    []Summary{},
		Preview: []Summary{},
		Errors:  []ImportError{},
	}

	staged := im.parse(ctx, r, &res)
	invalid := len(res.Errors)
	rolledBack := 0

	if len(staged) > 0 {
		err := im.store.CreateBatch(ctx, staged)

		if err != nil {
			rolledBack = len(staged)

			res.Errors = append(res.Errors, ImportError{Error: commitFailed, Detail: err.Error()})
			res.Rows = []Summary{}
			res.Created = 0

			span.RecordError(err)
			span.SetStatus(codes.Error, commitFailed)
			im.log.ErrorContext(ctx, "import.commit_failed", "staged", len(staged), "err", err)
		}
	}

	span.SetAttributes(
		attribute.Int("import.created", res.Created),
		attribute.Int("import.invalid_rows", invalid),
		attribute.Int("import.rolled_back", rolledBack),
	)

	im.prom.ObserveImport(res.Created, invalid, rolledBack, time.Since(start))

	im.log.InfoContext(ctx, "import.events",
		"created", res.Created,
		"invalid", invalid,
		"rolled_back", rolledBack,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return res
}

// parse walks the CSV, filling res with per-row outcomes, and returns the
// events that passed validation.
func (im *Importer) parse(ctx context.Context, r io.Reader, res *Result) []event.Event {
	cr := newCSVReader(r)

	header, err := cr.Read()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			res.Errors = append(res.Errors, ImportError{Error: "Unreadable file", Detail: err.Error()})
		}
		return nil
	}

	staged := make([]event.Event, 0)

	for row := 1; ; row++ {
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// read failures (body limit, broken connection) end the file
			res.Errors = append(res.Errors, ImportError{Row: row, Error: "Unreadable row", Detail: err.Error()})
			im.log.WarnContext(ctx, "import.read_failed", "row", row, "err", err)
			break
		}

		ev, preview, err := MapRow(toRecord(header, cells))
		if err != nil {
			res.Errors = append(res.Errors, ImportError{Row: row, Error: err.Error()})
			continue
		}

		staged = append(staged, ev)
		res.Rows = append(res.Rows, summarize(ev))
		res.Preview = append(res.Preview, preview)
		res.Created++
	}

	return staged
}
