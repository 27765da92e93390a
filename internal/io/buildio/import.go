package buildio

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/gnames/drugref/internal/ent/store"
	"github.com/gnames/drugref/internal/str"
	"github.com/gnames/drugref/pkg/ent/model"
	"github.com/gnames/gnsys"
	"golang.org/x/sync/errgroup"
)

// row is a line of a CSV file with access to fields by header names.
type row struct {
	line   int
	fields []string
	idx    map[string]int
}

func (r row) get(field string) string {
	if i, ok := r.idx[field]; ok && i < len(r.fields) {
		return strings.TrimSpace(r.fields[i])
	}
	return ""
}

// stats counts results of an import.
type stats struct {
	mu                      sync.Mutex
	saved, invalid, dupKeys int64
}

func (s *stats) add(saved, dups int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved += saved
	s.dupKeys += dups
}

func (s *stats) addInvalid() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalid++
}

// importFile runs a pipeline: a reader sends rows to workers, workers make
// validated records and send them in batches to the writer.
func (b *buildio) importFile(src source) error {
	path := filepath.Join(b.cfg.DumpDir, src.file)
	exists, _ := gnsys.FileExists(path)
	if !exists {
		slog.Info("Skipping missing file", "file", src.file)
		return nil
	}
	slog.Info("Importing " + src.file)

	chIn := make(chan row)
	chOut := make(chan []model.Record)
	var cnt stats
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(chIn)
		return loadCSV(ctx, path, chIn)
	})
	for range b.cfg.JobsNum {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			return b.worker(ctx, src, chIn, chOut, &cnt)
		})
	}
	g.Go(func() error {
		return b.writer(ctx, chOut, &cnt)
	})

	go func() {
		wg.Wait()
		close(chOut)
	}()

	if err := g.Wait(); err != nil {
		slog.Error("error in goroutines", "error", err)
		return err
	}

	fmt.Printf("\r%s\r", strings.Repeat(" ", 40))
	slog.Info("Imported "+src.file,
		"saved", humanize.Comma(cnt.saved),
		"invalid", humanize.Comma(cnt.invalid),
		"duplicates", humanize.Comma(cnt.dupKeys),
	)
	return nil
}

func loadCSV(ctx context.Context, path string, chIn chan<- row) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		slog.Error("Cannot read the header", "file", path, "error", err)
		return err
	}
	idx := make(map[string]int, len(header))
	for i, v := range header {
		idx[strings.TrimSpace(v)] = i
	}

	line := 1
	for {
		fields, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			slog.Error("Cannot read CSV file", "file", path, "error", err)
			return err
		}
		line++
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chIn <- row{line: line, fields: fields, idx: idx}:
		}
	}
}

// worker converts rows to records. Rows that fail validation are logged and
// skipped.
func (b *buildio) worker(
	ctx context.Context,
	src source,
	chIn <-chan row,
	chOut chan<- []model.Record,
	cnt *stats,
) error {
	batch := make([]model.Record, 0, b.cfg.BatchSize)
	send := func() error {
		if len(batch) == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chOut <- batch:
		}
		batch = make([]model.Record, 0, b.cfg.BatchSize)
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r, ok := <-chIn:
			if !ok {
				return send()
			}
			rec, err := src.record(b, r)
			if err != nil {
				if !errors.Is(err, model.ErrValidation) {
					return fmt.Errorf("%s line %d: %w", src.file, r.line, err)
				}
				cnt.addInvalid()
				slog.Warn("Skipping invalid row",
					"file", src.file, "line", r.line, "error", err)
				continue
			}
			batch = append(batch, rec)
			if len(batch) == b.cfg.BatchSize {
				if err = send(); err != nil {
					return err
				}
			}
		}
	}
}

// writer saves batches of records. Stores that support bulk loading get the
// whole batch at once. If such batch has a duplicate, its records are
// inserted one by one, so only duplicates are skipped.
func (b *buildio) writer(
	ctx context.Context,
	chOut <-chan []model.Record,
	cnt *stats,
) error {
	bl, bulk := b.st.(store.BulkLoader)
	var total int64
	for recs := range chOut {
		if bulk {
			n, err := bl.BulkInsert(ctx, recs)
			switch {
			case err == nil:
				cnt.add(n, 0)
				total += n
				progress(total)
				continue
			case !errors.Is(err, model.ErrDuplicateKey):
				return err
			}
		}
		saved, dups, err := b.insertEach(ctx, recs)
		if err != nil {
			return err
		}
		cnt.add(saved, dups)
		total += saved
		progress(total)
	}
	return nil
}

func (b *buildio) insertEach(
	ctx context.Context,
	recs []model.Record,
) (saved, dups int64, err error) {
	for _, rec := range recs {
		err = b.st.Insert(ctx, rec)
		if errors.Is(err, model.ErrDuplicateKey) {
			dups++
			slog.Warn("Skipping duplicate",
				"record", str.ShortTitle(fmt.Sprint(rec)), "error", err)
			continue
		}
		if err != nil {
			return saved, dups, err
		}
		saved++
	}
	return saved, dups, nil
}

func progress(n int64) {
	fmt.Printf("\r%s", strings.Repeat(" ", 40))
	fmt.Printf("\rSaved %s records", humanize.Comma(n))
}
