package linker

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Aman-CERP/notelink/internal/store"
)

// DefaultMinShared is the default connection threshold.
const DefaultMinShared = 3

// Strategy selects how candidate pairs are found.
type Strategy string

const (
	// StrategyPairwise intersects every pair of documents.
	StrategyPairwise Strategy = "pairwise"
	// StrategyInverted only intersects pairs that share at least one keyword,
	// found through a keyword to document index.
	StrategyInverted Strategy = "inverted"
)

// ParseStrategy maps a configuration value to a Strategy.
// An empty value selects StrategyPairwise.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyPairwise:
		return StrategyPairwise, nil
	case StrategyInverted:
		return StrategyInverted, nil
	default:
		return "", fmt.Errorf("unknown linking strategy %q (expected %q or %q)", s, StrategyPairwise, StrategyInverted)
	}
}

// Options configures a Linker.
type Options struct {
	Strategy Strategy
	Logger   *slog.Logger
}

// Linker computes connections and annotations.
type Linker struct {
	strategy Strategy
	logger   *slog.Logger
}

// New creates a Linker. Zero Options select the pairwise strategy.
func New(opts Options) *Linker {
	strategy := opts.Strategy
	if strategy == "" {
		strategy = StrategyPairwise
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Linker{strategy: strategy, logger: logger}
}

// Strategy returns the configured strategy.
func (l *Linker) Strategy() Strategy {
	return l.strategy
}

// Connection is an unordered pair of connected documents.
type Connection struct {
	A      string   // path of the earlier document in load order
	B      string   // path of the later document
	Shared []string // sorted shared keywords
}

// Annotation is the set of backlinks and tags proposed for one document.
type Annotation struct {
	Path      string
	Name      string
	backlinks map[string]struct{}
	tags      map[string]struct{}
}

func newAnnotation(doc store.Document) *Annotation {
	return &Annotation{
		Path:      doc.Path,
		Name:      doc.Name,
		backlinks: make(map[string]struct{}),
		tags:      make(map[string]struct{}),
	}
}

func (a *Annotation) addTag(raw string) {
	a.tags[NormalizeTag(raw)] = struct{}{}
}

// Backlinks returns the backlink display names, sorted.
func (a *Annotation) Backlinks() []string {
	return sortedKeys(a.backlinks)
}

// Tags returns the normalized tags, sorted.
func (a *Annotation) Tags() []string {
	return sortedKeys(a.tags)
}

// Empty reports whether there is nothing to write for this document.
func (a *Annotation) Empty() bool {
	return len(a.backlinks) == 0 && len(a.tags) == 0
}

// Result is the outcome of Compute.
type Result struct {
	// Connections in (i, j) load order.
	Connections []Connection
	// Annotations are aligned with the input documents.
	Annotations []*Annotation
	// Compared is the number of pairs whose signatures were intersected.
	Compared int
}

// NormalizeTag lower-cases s, replaces spaces with underscores and adds the
// '#' prefix.
func NormalizeTag(s string) string {
	return "#" + strings.ReplaceAll(strings.ToLower(s), " ", "_")
}

// Compute derives connections and annotations for docs. Pairs whose
// signatures share at least minShared keywords are connected.
func (l *Linker) Compute(docs []store.Document, minShared int) Result {
	sets := make([]map[string]struct{}, len(docs))
	annotations := make([]*Annotation, len(docs))
	for i, doc := range docs {
		sets[i] = toSet(doc.Signature)
		ann := newAnnotation(doc)
		if doc.Group != "" {
			ann.addTag(doc.Group)
		}
		for _, k := range doc.Signature {
			ann.addTag(k)
		}
		annotations[i] = ann
	}

	var pairs [][2]int
	switch l.strategy {
	case StrategyInverted:
		if minShared >= 1 {
			pairs = candidatePairs(docs)
			break
		}
		// Pairs sharing nothing still connect below a threshold of one.
		pairs = allPairs(len(docs))
	default:
		pairs = allPairs(len(docs))
	}

	res := Result{Annotations: annotations, Compared: len(pairs)}
	for _, p := range pairs {
		i, j := p[0], p[1]
		shared := intersect(sets[i], sets[j])
		if len(shared) < minShared {
			continue
		}

		res.Connections = append(res.Connections, Connection{A: docs[i].Path, B: docs[j].Path, Shared: shared})
		a, b := annotations[i], annotations[j]
		a.backlinks[docs[j].Name] = struct{}{}
		b.backlinks[docs[i].Name] = struct{}{}
		for _, k := range shared {
			a.addTag(k)
			b.addTag(k)
		}

		l.logger.Debug("connection_found",
			slog.String("a", docs[i].Name),
			slog.String("b", docs[j].Name),
			slog.Int("shared", len(shared)))
	}

	l.logger.Debug("link_computed",
		slog.String("strategy", string(l.strategy)),
		slog.Int("documents", len(docs)),
		slog.Int("compared", res.Compared),
		slog.Int("connections", len(res.Connections)))

	return res
}

// Compute runs the pairwise strategy with the default logger.
func Compute(docs []store.Document, minShared int) Result {
	return New(Options{}).Compute(docs, minShared)
}

func allPairs(n int) [][2]int {
	if n < 2 {
		return nil
	}
	pairs := make([][2]int, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, [2]int{i, j})
		}
	}
	return pairs
}

// candidatePairs returns every pair (i, j), i < j, sharing at least one
// keyword, sorted by (i, j).
func candidatePairs(docs []store.Document) [][2]int {
	index := make(map[string][]int)
	for i, doc := range docs {
		for k := range toSet(doc.Signature) {
			index[k] = append(index[k], i)
		}
	}

	seen := make(map[[2]int]struct{})
	for _, postings := range index {
		for x := 0; x < len(postings); x++ {
			for y := x + 1; y < len(postings); y++ {
				seen[[2]int{postings[x], postings[y]}] = struct{}{}
			}
		}
	}

	pairs := make([][2]int, 0, len(seen))
	for p := range seen {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a][0] != pairs[b][0] {
			return pairs[a][0] < pairs[b][0]
		}
		return pairs[a][1] < pairs[b][1]
	})
	return pairs
}

func toSet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

func intersect(a, b map[string]struct{}) []string {
	if len(b) < len(a) {
		a, b = b, a
	}
	out := make([]string, 0)
	for k := range a {
		if _, ok := b[k]; ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
