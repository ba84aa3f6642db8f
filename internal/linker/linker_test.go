package linker

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/notelink/internal/store"
)

func doc(path string, sig ...string) store.Document {
	return store.NewDocument(path, sig)
}

func scenarioDocs() []store.Document {
	return []store.Document{
		doc("/vault/research/One.md", "alpha", "beta", "gamma", "delta"),
		doc("/vault/research/Two.md", "alpha", "beta", "gamma", "epsilon"),
	}
}

func TestCompute_ConnectsAtThreshold(t *testing.T) {
	// Given: two documents sharing alpha, beta and gamma
	docs := scenarioDocs()

	// When: computing with a minimum of 3
	res := New(Options{}).Compute(docs, 3)

	// Then: one connection with the three shared keywords
	require.Len(t, res.Connections, 1)
	assert.Equal(t, Connection{
		A:      "/vault/research/One.md",
		B:      "/vault/research/Two.md",
		Shared: []string{"alpha", "beta", "gamma"},
	}, res.Connections[0])

	one, two := res.Annotations[0], res.Annotations[1]
	assert.Equal(t, []string{"Two"}, one.Backlinks())
	assert.Equal(t, []string{"One"}, two.Backlinks())
	assert.Equal(t, []string{"#alpha", "#beta", "#delta", "#gamma", "#research"}, one.Tags())
	assert.Equal(t, []string{"#alpha", "#beta", "#epsilon", "#gamma", "#research"}, two.Tags())
	assert.Equal(t, 1, res.Compared)
}

func TestCompute_BelowThresholdKeepsOnlySelfTags(t *testing.T) {
	docs := scenarioDocs()

	res := New(Options{}).Compute(docs, 4)

	assert.Empty(t, res.Connections)
	assert.Empty(t, res.Annotations[0].Backlinks())
	assert.Empty(t, res.Annotations[1].Backlinks())
	assert.Equal(t, []string{"#alpha", "#beta", "#delta", "#gamma", "#research"}, res.Annotations[0].Tags())
	assert.Equal(t, []string{"#alpha", "#beta", "#epsilon", "#gamma", "#research"}, res.Annotations[1].Tags())
}

func TestCompute_ThresholdEdge(t *testing.T) {
	tests := []struct {
		name      string
		minShared int
		connected bool
	}{
		{name: "equal to shared count", minShared: 2, connected: true},
		{name: "one below shared count", minShared: 1, connected: true},
		{name: "one above shared count", minShared: 3, connected: false},
	}

	docs := []store.Document{
		doc("/v/a.md", "red", "green", "blue"),
		doc("/v/b.md", "red", "green", "cyan"),
	}

	for _, tt := range tests {
		for _, strategy := range []Strategy{StrategyPairwise, StrategyInverted} {
			t.Run(fmt.Sprintf("%s/%s", tt.name, strategy), func(t *testing.T) {
				res := New(Options{Strategy: strategy}).Compute(docs, tt.minShared)
				assert.Equal(t, tt.connected, len(res.Connections) == 1)
			})
		}
	}
}

func TestCompute_ZeroAndOneDocument(t *testing.T) {
	res := New(Options{}).Compute(nil, 3)
	assert.Empty(t, res.Connections)
	assert.Empty(t, res.Annotations)
	assert.Zero(t, res.Compared)

	res = New(Options{}).Compute([]store.Document{doc("/v/inbox/solo.md", "lonely", "note")}, 0)
	assert.Empty(t, res.Connections)
	require.Len(t, res.Annotations, 1)
	assert.Empty(t, res.Annotations[0].Backlinks(), "a document never links to itself")
	assert.Equal(t, []string{"#inbox", "#lonely", "#note"}, res.Annotations[0].Tags())
}

func TestCompute_EmptyGroupAddsNoGroupTag(t *testing.T) {
	d := store.Document{Path: "/a.md", Name: "a", Signature: []string{"word"}}

	res := Compute([]store.Document{d}, 3)

	assert.Equal(t, []string{"#word"}, res.Annotations[0].Tags())
}

func TestCompute_EmptyDocumentHasEmptyAnnotation(t *testing.T) {
	d := store.Document{Path: "/a.md", Name: "a"}

	res := Compute([]store.Document{d}, 1)

	assert.True(t, res.Annotations[0].Empty())
}

func TestCompute_GroupTagIsNormalized(t *testing.T) {
	res := Compute([]store.Document{doc("/v/Reading List/book.md", "novel")}, 3)

	assert.Equal(t, []string{"#novel", "#reading_list"}, res.Annotations[0].Tags())
}

func TestCompute_ZeroThresholdConnectsDisjointDocuments(t *testing.T) {
	docs := []store.Document{doc("/v/a.md", "one"), doc("/v/b.md", "two")}

	for _, strategy := range []Strategy{StrategyPairwise, StrategyInverted} {
		res := New(Options{Strategy: strategy}).Compute(docs, 0)
		require.Len(t, res.Connections, 1, strategy)
		assert.Empty(t, res.Connections[0].Shared)
	}
}

func TestCompute_Symmetry(t *testing.T) {
	docs := randomDocs(rand.New(rand.NewSource(7)), 40)

	res := Compute(docs, 2)

	byName := make(map[string]map[string]bool, len(docs))
	for _, ann := range res.Annotations {
		set := make(map[string]bool)
		for _, b := range ann.Backlinks() {
			set[b] = true
		}
		byName[ann.Name] = set
	}
	for a, links := range byName {
		for b := range links {
			assert.True(t, byName[b][a], "%s links %s but not the reverse", a, b)
		}
	}
	assert.NotEmpty(t, res.Connections)
}

func TestCompute_StrategiesAgree(t *testing.T) {
	docs := randomDocs(rand.New(rand.NewSource(42)), 60)

	for _, minShared := range []int{1, 2, 3, 4} {
		pairwise := New(Options{Strategy: StrategyPairwise}).Compute(docs, minShared)
		inverted := New(Options{Strategy: StrategyInverted}).Compute(docs, minShared)

		assert.Equal(t, pairwise.Connections, inverted.Connections, "minShared=%d", minShared)
		require.Len(t, inverted.Annotations, len(pairwise.Annotations))
		for i := range pairwise.Annotations {
			assert.Equal(t, pairwise.Annotations[i].Backlinks(), inverted.Annotations[i].Backlinks())
			assert.Equal(t, pairwise.Annotations[i].Tags(), inverted.Annotations[i].Tags())
		}
		assert.LessOrEqual(t, inverted.Compared, pairwise.Compared)
	}
}

func TestCompute_InvertedSkipsDisjointPairs(t *testing.T) {
	docs := []store.Document{
		doc("/v/a.md", "one", "two"),
		doc("/v/b.md", "three", "four"),
		doc("/v/c.md", "one", "five"),
	}

	res := New(Options{Strategy: StrategyInverted}).Compute(docs, 1)

	assert.Equal(t, 1, res.Compared)
	require.Len(t, res.Connections, 1)
	assert.Equal(t, "/v/a.md", res.Connections[0].A)
	assert.Equal(t, "/v/c.md", res.Connections[0].B)
}

func TestCompute_ConnectionsInLoadOrder(t *testing.T) {
	docs := []store.Document{
		doc("/v/z.md", "shared"),
		doc("/v/a.md", "shared"),
		doc("/v/m.md", "shared"),
	}

	res := New(Options{Strategy: StrategyInverted}).Compute(docs, 1)

	require.Len(t, res.Connections, 3)
	assert.Equal(t, [2]string{"/v/z.md", "/v/a.md"}, [2]string{res.Connections[0].A, res.Connections[0].B})
	assert.Equal(t, [2]string{"/v/z.md", "/v/m.md"}, [2]string{res.Connections[1].A, res.Connections[1].B})
	assert.Equal(t, [2]string{"/v/a.md", "/v/m.md"}, [2]string{res.Connections[2].A, res.Connections[2].B})
}

func TestCompute_Deterministic(t *testing.T) {
	docs := randomDocs(rand.New(rand.NewSource(3)), 25)

	first := Compute(docs, 2)
	second := Compute(docs, 2)

	assert.Equal(t, first.Connections, second.Connections)
}

func TestNormalizeTag(t *testing.T) {
	tests := []struct {
		input  string
		expect string
	}{
		{input: "alpha", expect: "#alpha"},
		{input: "Machine Learning", expect: "#machine_learning"},
		{input: "", expect: "#"},
		{input: "ÉCOLE", expect: "#école"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expect, NormalizeTag(tt.input))
		})
	}
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyPairwise, s)

	s, err = ParseStrategy(" Inverted ")
	require.NoError(t, err)
	assert.Equal(t, StrategyInverted, s)

	_, err = ParseStrategy("quadratic")
	assert.Error(t, err)
}

func TestNew_DefaultsToPairwise(t *testing.T) {
	assert.Equal(t, StrategyPairwise, New(Options{}).Strategy())
}

func randomDocs(r *rand.Rand, n int) []store.Document {
	vocab := make([]string, 30)
	for i := range vocab {
		vocab[i] = fmt.Sprintf("word%02d", i)
	}
	docs := make([]store.Document, n)
	for i := range docs {
		size := 3 + r.Intn(6)
		seen := make(map[string]bool)
		var sig []string
		for len(sig) < size {
			w := vocab[r.Intn(len(vocab))]
			if !seen[w] {
				seen[w] = true
				sig = append(sig, w)
			}
		}
		docs[i] = doc(fmt.Sprintf("/v/group%d/note%03d.md", i%3, i), sig...)
	}
	return docs
}
