package cards

import (
	"bufio"
	"io"
	"strings"

	"subcards/internal/vocab"
)

// Writer emits cards as tab-separated rows. Fields must already be
// sanitized; Assemble guarantees that.
type Writer struct {
	w *bufio.Writer
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteHeader writes the column names.
func (w *Writer) WriteHeader() error {
	return w.writeRow(Header)
}

// Write writes one card.
func (w *Writer) Write(card Card) error {
	return w.writeRow(card.Fields())
}

// Flush flushes buffered rows.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

func (w *Writer) writeRow(fields []string) error {
	if _, err := w.w.WriteString(strings.Join(fields, "\t")); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// ExportStats counts exported and skipped entries.
type ExportStats struct {
	Exported int
	Skipped  int
}

// WriteAll writes the header and a card for every entry in set order.
func WriteAll(w io.Writer, set *vocab.Set, a Assembler) (ExportStats, error) {
	var stats ExportStats
	tw := NewWriter(w)
	if err := tw.WriteHeader(); err != nil {
		return stats, err
	}
	for _, entry := range set.Entries() {
		card, ok := a.Assemble(entry)
		if !ok {
			stats.Skipped++
			continue
		}
		if err := tw.Write(card); err != nil {
			return stats, err
		}
		stats.Exported++
	}
	return stats, tw.Flush()
}
