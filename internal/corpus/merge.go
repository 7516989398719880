package corpus

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

const markerRule = "============================================================"

// WriteMerged writes every corpus line followed by a newline. With markers,
// each unit is preceded by a block naming it between two rules, and units are
// separated by a blank line.
func WriteMerged(w io.Writer, c *Corpus, withMarkers bool) error {
	bw := bufio.NewWriter(w)
	prev := ""
	started := false
	for line := range c.Lines() {
		if withMarkers && (!started || line.Unit != prev) {
			if started {
				if err := bw.WriteByte('\n'); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(bw, "%s\n%s\n%s\n", markerRule, line.Unit, markerRule); err != nil {
				return err
			}
		}
		if _, err := bw.WriteString(line.Text + "\n"); err != nil {
			return err
		}
		prev = line.Unit
		started = true
	}
	return bw.Flush()
}

// MarkedPath returns the companion path for the marker version of a merged
// export: "merged.txt" becomes "merged_with_episodes.txt".
func MarkedPath(path string) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	return filepath.Join(filepath.Dir(path), stem+"_with_episodes.txt")
}
