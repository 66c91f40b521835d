// Package words supplies ant names, filler words and the flavor text the
// scheduler writes into an ant's status.
package words

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/talgya/cromulant/internal/entropy"
)

//go:embed data/names.json
var namesJSON []byte

//go:embed data/countries.json
var countriesJSON []byte

//go:embed data/corpus.json
var corpusJSON []byte

// Corpus is the word pool behind filler words and sentences.
type Corpus struct {
	Nouns      []string `json:"nouns"`
	Adjectives []string `json:"adjectives"`
	Verbs      []string `json:"verbs"` // third person, ready to drop into a sentence
	Adverbs    []string `json:"adverbs"`
	Glyphs     []string `json:"glyphs"`
}

// Shape selects a sentence template.
type Shape uint8

const (
	ShapeSimple             Shape = iota // The noun verbs.
	ShapeBareBones                       // The noun verbs the noun.
	ShapeBareBonesAdjective              // The adj noun verbs the noun.
	ShapeFull                            // The adj noun adverb verbs the adj noun.
)

// NumShapes is the number of sentence templates.
const NumShapes = 4

// Generator draws names and words from its pools.
type Generator struct {
	src       entropy.Source
	names     []string
	reserved  map[string]bool
	countries []string
	corpus    Corpus
}

// New creates a generator over the embedded pools.
func New(src entropy.Source) *Generator {
	g := &Generator{src: src}
	mustDecode("names", namesJSON, &g.names)
	mustDecode("countries", countriesJSON, &g.countries)
	mustDecode("corpus", corpusJSON, &g.corpus)
	g.SetNamePool(g.names)
	return g
}

func mustDecode(what string, data []byte, into any) {
	if err := json.Unmarshal(data, into); err != nil {
		panic(fmt.Sprintf("words: embedded %s: %v", what, err))
	}
}

// SetNamePool replaces the static name pool. Blank and duplicate entries
// are dropped. An empty pool is allowed: every name is then synthetic.
func (g *Generator) SetNamePool(names []string) {
	pool := make([]string, 0, len(names))
	reserved := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || reserved[n] {
			continue
		}
		reserved[n] = true
		pool = append(pool, n)
	}
	g.names = pool
	g.reserved = reserved
}

// NamePool returns a copy of the static name pool.
func (g *Generator) NamePool() []string {
	return append([]string(nil), g.names...)
}

// Reserved reports whether name belongs to the static pool.
func (g *Generator) Reserved(name string) bool {
	return g.reserved[name]
}

// RandomName picks uniformly from the pool minus exclude. When every pool
// name is taken it synthesizes one instead, so it never blocks.
func (g *Generator) RandomName(exclude map[string]bool) string {
	free := make([]string, 0, len(g.names))
	for _, n := range g.names {
		if !exclude[n] {
			free = append(free, n)
		}
	}
	if name, ok := entropy.Pick(g.src, free); ok {
		return name
	}
	return g.SyntheticName(exclude)
}

const (
	consonants = "bcdfghjklmnprstvz"
	vowels     = "aeiou"
)

// SyntheticName builds "Cvcv Cvcv" from random letters, avoiding exclude.
func (g *Generator) SyntheticName(exclude map[string]bool) string {
	var name string
	for attempt := 0; attempt < 100; attempt++ {
		name = Capitalize(g.syllable()) + " " + Capitalize(g.syllable())
		if !exclude[name] && !g.reserved[name] {
			return name
		}
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s %d", name, i)
		if !exclude[candidate] {
			return candidate
		}
	}
}

func (g *Generator) syllable() string {
	b := []byte{
		consonants[g.src.Intn(len(consonants))],
		vowels[g.src.Intn(len(vowels))],
		consonants[g.src.Intn(len(consonants))],
		vowels[g.src.Intn(len(vowels))],
	}
	return string(b)
}

// RandomWord returns one noun or adjective.
func (g *Generator) RandomWord() string {
	if g.src.Intn(2) == 0 {
		return g.pick(g.corpus.Nouns, "thing")
	}
	return g.pick(g.corpus.Adjectives, "odd")
}

// RandomWords returns n filler words.
func (g *Generator) RandomWords(n int) []string {
	out := make([]string, 0, max(n, 0))
	for i := 0; i < n; i++ {
		out = append(out, g.RandomWord())
	}
	return out
}

// Location returns a random place an ant can travel to.
func (g *Generator) Location() string {
	return g.pick(g.countries, "Nowhere")
}

// Glyphs returns n random glyphs separated by spaces.
func (g *Generator) Glyphs(n int) string {
	parts := make([]string, 0, max(n, 0))
	for i := 0; i < n; i++ {
		parts = append(parts, g.pick(g.corpus.Glyphs, "?"))
	}
	return strings.Join(parts, " ")
}

// Sentence fills the template for shape.
func (g *Generator) Sentence(shape Shape) string {
	noun := func() string { return g.pick(g.corpus.Nouns, "thing") }
	adj := func() string { return g.pick(g.corpus.Adjectives, "odd") }
	verb := func() string { return g.pick(g.corpus.Verbs, "sees") }

	var s string
	switch shape {
	case ShapeSimple:
		s = fmt.Sprintf("the %s %s", noun(), strings.TrimSuffix(verb(), " to"))
	case ShapeBareBones:
		s = fmt.Sprintf("the %s %s the %s", noun(), verb(), noun())
	case ShapeBareBonesAdjective:
		s = fmt.Sprintf("the %s %s %s the %s", adj(), noun(), verb(), noun())
	default:
		adverb := g.pick(g.corpus.Adverbs, "quietly")
		s = fmt.Sprintf("the %s %s %s %s the %s %s", adj(), noun(), adverb, verb(), adj(), noun())
	}
	return Capitalize(s) + "."
}

// RandomSentence picks a template uniformly.
func (g *Generator) RandomSentence() string {
	return g.Sentence(Shape(g.src.Intn(NumShapes)))
}

func (g *Generator) pick(items []string, fallback string) string {
	if item, ok := entropy.Pick(g.src, items); ok {
		return item
	}
	return fallback
}
