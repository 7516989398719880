package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"subcards/internal/logging"
	"subcards/internal/textutil"
)

// MinLineRunes is the shortest line kept in the corpus.
const MinLineRunes = 2

var (
	digitsOnlyPattern = regexp.MustCompile(`^\d+$`)
	timestampPattern  = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}`)
)

// Options controls corpus construction.
type Options struct {
	// Encodings is the decoder fallback order. Empty means DefaultEncodings.
	Encodings []string
	// Workers bounds parallel decoding. Values below 1 decode serially.
	Workers int
	Logger  *slog.Logger
}

// DefaultEncodings is the fallback order used when Options.Encodings is empty.
var DefaultEncodings = []string{"utf-8", "utf-8-bom", "gb18030", "gbk", "big5"}

type decodedUnit struct {
	lines    []string
	encoding string
	err      error
}

// Build decodes and normalizes every unit. Units that no decoder accepts are
// skipped and returned as UnitErrors. Repeated unit IDs get a "#n" suffix so
// every unit in the corpus is distinct. The returned error is non-nil only
// for an invalid encoding chain or context cancellation.
func Build(ctx context.Context, units []RawUnit, opts Options) (*Corpus, []UnitError, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	encodings := opts.Encodings
	if len(encodings) == 0 {
		encodings = DefaultEncodings
	}
	chain, err := NewChain(encodings)
	if err != nil {
		return nil, nil, err
	}

	logger.Debug("decoding subtitle units",
		logging.Int("units", len(units)),
		logging.String("encodings", strings.Join(chain.Names(), ",")),
	)
	results, err := decodeAll(ctx, chain, units, opts.Workers)
	if err != nil {
		return nil, nil, err
	}

	ids := distinctIDs(units)
	corpus := &Corpus{}
	var failures []UnitError
	for i := range units {
		res := results[i]
		id := ids[i]
		if res.err != nil {
			failures = append(failures, UnitError{Unit: id, Err: res.err})
			logging.WarnWithContext(logger, "subtitle unit skipped", "unit_undecodable",
				logging.String(logging.FieldUnit, id),
				logging.String(logging.FieldErrorHint, "re-save the file as UTF-8 or add its encoding to corpus.encodings"),
				logging.String(logging.FieldImpact, "unit contributes no lines"),
				logging.Error(res.err),
			)
			continue
		}
		if len(res.lines) == 0 {
			logger.Debug("subtitle unit produced no lines", logging.String(logging.FieldUnit, id))
			continue
		}
		if res.encoding != "utf-8" {
			logger.Debug("subtitle unit decoded with fallback",
				logging.String(logging.FieldUnit, id),
				logging.String("encoding", res.encoding),
			)
		}
		corpus.units = append(corpus.units, id)
		for ordinal, text := range res.lines {
			corpus.lines = append(corpus.lines, SourceLine{Text: text, Unit: id, Ordinal: ordinal + 1})
		}
	}
	return corpus, failures, nil
}

func distinctIDs(units []RawUnit) []string {
	ids := make([]string, len(units))
	used := make(map[string]struct{}, len(units))
	for i, unit := range units {
		id := unit.ID
		for n := 2; ; n++ {
			if _, taken := used[id]; !taken {
				break
			}
			id = fmt.Sprintf("%s#%d", unit.ID, n)
		}
		used[id] = struct{}{}
		ids[i] = id
	}
	return ids
}

// decodeAll decodes units concurrently. Each worker writes only its own slot
// so results line up with input order.
func decodeAll(ctx context.Context, chain *Chain, units []RawUnit, workers int) ([]decodedUnit, error) {
	results := make([]decodedUnit, len(units))
	g, gctx := errgroup.WithContext(ctx)
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)
	for i, unit := range units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, name, err := chain.Decode(unit.Data)
			if err != nil {
				results[i] = decodedUnit{err: err}
				return nil
			}
			results[i] = decodedUnit{lines: CleanLines(text), encoding: name}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// CleanLines splits decoded subtitle text into kept lines. Cue numbers,
// timing lines, and blanks are dropped; markup is stripped; tabs become
// spaces; text is NFC-normalized; lines shorter than MinLineRunes are dropped.
func CleanLines(text string) []string {
	var lines []string
	for raw := range strings.SplitSeq(text, "\n") {
		if line, ok := CleanLine(raw); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

// CleanLine normalizes a single raw line and reports whether it is kept.
func CleanLine(raw string) (string, bool) {
	line := strings.TrimSpace(raw)
	if line == "" || digitsOnlyPattern.MatchString(line) || timestampPattern.MatchString(line) {
		return "", false
	}
	line = textutil.StripTags(line)
	line = strings.ReplaceAll(line, "\t", " ")
	line = strings.TrimSpace(line)
	line = norm.NFC.String(line)
	if textutil.RuneLen(line) < MinLineRunes {
		return "", false
	}
	return line, true
}
