package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocument_DerivesNameAndGroup(t *testing.T) {
	path := filepath.Join(string(filepath.Separator), "vault", "Projects", "Graph Theory.md")

	doc := NewDocument(path, []string{"graph"})

	assert.Equal(t, path, doc.Path)
	assert.Equal(t, "Graph Theory", doc.Name)
	assert.Equal(t, "Projects", doc.Group)
	assert.Equal(t, []string{"graph"}, doc.Signature)
}

func TestDisplayName_OnlyStripsTrailingExtension(t *testing.T) {
	assert.Equal(t, "Idea", DisplayName("/v/Idea.txt"))
	assert.Equal(t, "v1.2 notes", DisplayName("/v/v1.2 notes.md"))
	assert.Equal(t, "README", DisplayName("/v/README.md"))
	assert.Equal(t, "plain", DisplayName("/v/plain"))
}

func TestGroupLabel_RootHasNoGroup(t *testing.T) {
	assert.Equal(t, "", GroupLabel("/a.md"))
	assert.Equal(t, "", GroupLabel("a.md"))
	assert.Equal(t, "inbox", GroupLabel("/vault/inbox/a.md"))
}

func TestEncodeSignature(t *testing.T) {
	s, err := EncodeSignature([]string{"alpha", "beta", "gamma"})
	require.NoError(t, err)
	assert.Equal(t, "alpha,beta,gamma", s)

	s, err = EncodeSignature(nil)
	require.NoError(t, err)
	assert.Equal(t, "", s)

	_, err = EncodeSignature([]string{"a,b"})
	assert.Error(t, err)
}

func TestDecodeSignature_DropsBlankEntries(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect []string
	}{
		{name: "empty", input: "", expect: []string{}},
		{name: "plain", input: "alpha,beta", expect: []string{"alpha", "beta"}},
		{name: "blank entries", input: ",alpha,, ,beta,", expect: []string{"alpha", "beta"}},
		{name: "padded", input: " alpha , beta ", expect: []string{"alpha", "beta"}},
		{name: "only whitespace", input: " ,\t, ", expect: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, DecodeSignature(tt.input))
		})
	}
}
