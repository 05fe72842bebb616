package output

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/poros-project/netreco/internal/model"
)

// Writer formats and writes one result document, auto-detecting TTY
// status to decide whether to keep ANSI colors (spec's ambient output
// stack, grounded on the teacher's Writer).
type Writer struct {
	formatter Formatter
	stdout    io.Writer
	extra     *os.File // --output FILE destination, always JSON
	noStdout  bool
	isTTY     bool
}

// NewWriter builds a Writer for the given format. extraPath, if
// non-empty, additionally writes the full JSON document to that file
// regardless of format (spec §6: "--output FILE").
func NewWriter(format Format, cfg Config, extraPath string, noStdout bool) (*Writer, error) {
	isTTY := isTerminal(os.Stdout)
	if !isTTY {
		cfg.Colors = false
	}

	w := &Writer{
		formatter: NewFormatter(format, cfg),
		stdout:    os.Stdout,
		noStdout:  noStdout,
		isTTY:     isTTY,
	}
	if extraPath != "" {
		f, err := os.Create(extraPath)
		if err != nil {
			return nil, err
		}
		w.extra = f
	}
	return w, nil
}

func (w *Writer) IsTTY() bool { return w.isTTY }

// Close flushes and closes the --output file, if any.
func (w *Writer) Close() error {
	if w.extra == nil {
		return nil
	}
	return w.extra.Close()
}

func (w *Writer) WriteScan(r *model.ScanResult) error {
	if err := w.toStdout(func() ([]byte, error) { return w.formatter.FormatScan(r) }); err != nil {
		return err
	}
	return w.toExtra(func() ([]byte, error) { return jsonFormatter{}.FormatScan(r) })
}

func (w *Writer) WriteTrace(r *model.TraceResult) error {
	if err := w.toStdout(func() ([]byte, error) { return w.formatter.FormatTrace(r) }); err != nil {
		return err
	}
	return w.toExtra(func() ([]byte, error) { return jsonFormatter{}.FormatTrace(r) })
}

func (w *Writer) WritePing(r *model.PingResult) error {
	if err := w.toStdout(func() ([]byte, error) { return w.formatter.FormatPing(r) }); err != nil {
		return err
	}
	return w.toExtra(func() ([]byte, error) { return jsonFormatter{}.FormatPing(r) })
}

func (w *Writer) WriteNeighbor(r *model.NeighborDiscoveryResult) error {
	if err := w.toStdout(func() ([]byte, error) { return w.formatter.FormatNeighbor(r) }); err != nil {
		return err
	}
	return w.toExtra(func() ([]byte, error) { return jsonFormatter{}.FormatNeighbor(r) })
}

func (w *Writer) toStdout(render func() ([]byte, error)) error {
	if w.noStdout {
		return nil
	}
	data, err := render()
	if err != nil {
		return err
	}
	_, err = w.stdout.Write(data)
	if f, ok := w.stdout.(*os.File); ok {
		f.Sync()
	}
	return err
}

func (w *Writer) toExtra(render func() ([]byte, error)) error {
	if w.extra == nil {
		return nil
	}
	data, err := render()
	if err != nil {
		return err
	}
	_, err = w.extra.Write(data)
	return err
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
