package qdrant

import (
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"unicode"
)

type sparseVector struct {
	Indices []uint32  `json:"indices"`
	Values  []float32 `json:"values"`
}

const (
	chunkTermSaturationK = 1.2
	queryTermSaturationK = 1.2
	fileNameTermBoost    = 1.5
	maxSparseTerms       = 256
)

// stopTerms are dropped before hashing. Compliance prose is dense with
// function words and boilerplate verbs that carry no retrieval signal
// and would otherwise dominate the term frequencies of every chunk.
var stopTerms = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "of": {}, "in": {}, "on": {}, "for": {},
	"and": {}, "or": {}, "to": {}, "is": {}, "are": {}, "be": {}, "as": {},
	"at": {}, "by": {}, "with": {}, "this": {}, "that": {}, "it": {},
	"its": {}, "from": {}, "shall": {}, "must": {}, "may": {}, "any": {},
	"such": {}, "where": {}, "which": {},
}

func encodeSparseChunk(text string, fileName string) sparseVector {
	termFreq := make(map[uint32]float64, 64)
	appendTermFreq(termFreq, tokenizeAlphaNum(text), 1.0)
	appendTermFreq(termFreq, tokenizeAlphaNum(fileName), fileNameTermBoost)
	return termFreqToSparse(termFreq, chunkTermSaturationK)
}

func encodeSparseQuery(query string) sparseVector {
	termFreq := make(map[uint32]float64, 32)
	appendTermFreq(termFreq, tokenizeAlphaNum(query), 1.0)
	return termFreqToSparse(termFreq, queryTermSaturationK)
}

func appendTermFreq(dst map[uint32]float64, tokens []string, tokenWeight float64) {
	for _, token := range tokens {
		if token == "" {
			continue
		}
		dst[hashToken(token)] += tokenWeight
	}
}

func termFreqToSparse(tf map[uint32]float64, k float64) sparseVector {
	if len(tf) == 0 {
		return sparseVector{}
	}
	indices := make([]uint32, 0, len(tf))
	for idx := range tf {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	if len(indices) > maxSparseTerms {
		indices = indices[:maxSparseTerms]
	}

	values := make([]float32, 0, len(indices))
	for _, idx := range indices {
		tfValue := tf[idx]
		weight := (tfValue * (k + 1.0)) / (tfValue + k)
		if math.IsNaN(weight) || math.IsInf(weight, 0) {
			weight = 0
		}
		values = append(values, float32(weight))
	}

	return sparseVector{Indices: indices, Values: values}
}

func hashToken(token string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	sum := h.Sum32()
	if sum == 0 {
		return 1
	}
	return sum
}

// tokenizeAlphaNum lowercases and splits on every non-alphanumeric rune,
// so "Annex-4" yields "annex" and "4" and both sides of a section
// reference stay searchable. Stop terms and stray single letters are
// dropped; pure-digit tokens survive because annex and article numbers
// are exactly what lexical recall is for.
func tokenizeAlphaNum(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 24)
	var b strings.Builder
	flush := func() {
		if b.Len() == 0 {
			return
		}
		token := b.String()
		b.Reset()
		if _, skip := stopTerms[token]; skip {
			return
		}
		if len(token) == 1 && token[0] >= 'a' && token[0] <= 'z' {
			return
		}
		out = append(out, token)
	}
	for _, r := range s {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return out
}
