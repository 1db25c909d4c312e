package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/sidney/mira4-assembler-patches-sub001/hashstat"
)

// pool is a loaded read pool. records keeps the parsed input so that passes
// can write surviving reads back out unchanged.
type pool struct {
	reads   []*hashstat.Read
	records []*fastx.Record
}

func loadPool(files []string, tech hashstat.Technology, progress bool) (*pool, error) {
	var pbs *mpb.Progress
	var bar *mpb.Bar
	if progress {
		pbs = mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
		bar = pbs.AddBar(int64(len(files)),
			mpb.PrependDecorators(
				decor.Name("read files: ", decor.WC{W: len("read files: "), C: decor.DindentRight}),
				decor.Name("", decor.WCSyncSpaceR),
				decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
			),
			mpb.AppendDecorators(
				decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
				decor.EwmaETA(decor.ET_STYLE_GO, 10),
				decor.OnComplete(decor.Name(""), ". done"),
			),
		)
	}

	p := &pool{}
	for group, file := range files {
		start := time.Now()
		if err := p.readFile(file, group, tech); err != nil {
			if bar != nil {
				bar.Abort(false)
				pbs.Wait()
			}
			return nil, err
		}
		if bar != nil {
			bar.EwmaIncrBy(1, time.Since(start))
		}
	}
	if pbs != nil {
		pbs.Wait()
	}
	return p, nil
}

func (p *pool) readFile(file string, group int, tech hashstat.Technology) error {
	r, err := fastx.NewDefaultReader(file)
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	defer r.Close()

	for {
		record, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("%s: %w", file, err)
		}
		// The reader reuses its record between calls.
		record = record.Clone()
		p.records = append(p.records, record)
		p.reads = append(p.reads, &hashstat.Read{
			Name:  string(record.ID),
			Seq:   record.Seq.Seq,
			Tech:  tech,
			Group: group,
		})
	}
}

// write writes the records whose read satisfies keep to path, or to stdout if
// path is "-".
func (p *pool) write(path string, keep func(*hashstat.Read) bool) (n int, err error) {
	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		w = f
	}
	for i, r := range p.reads {
		if !keep(r) {
			continue
		}
		if _, err := w.Write(p.records[i].Format(0)); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
