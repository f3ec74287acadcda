package minhash

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultCacheSize bounds the signature memoization cache. Detection
// requests repeatedly hash the same candidate titles/descriptions across
// phases (enrichment re-recruitment, scoring); memoizing avoids recomputing
// 100 hash-function minima for identical text within a process lifetime.
const defaultCacheSize = 4096

// Engine computes and memoizes MinHash signatures. It holds no per-request
// state; its memoization cache is shared across requests and written on
// every miss (lru.Cache synchronizes its own access). A cached signature
// never changes, since Compute is deterministic.
type Engine struct {
	cache *lru.Cache[string, Signature]
}

// NewEngine creates a signature engine with the default memoization size.
func NewEngine() *Engine {
	c, err := lru.New[string, Signature](defaultCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which never
		// happens with the package constant above.
		panic(err)
	}
	return &Engine{cache: c}
}

// Signature returns the MinHash signature for text, computing and caching
// it on first use.
func (e *Engine) Signature(text string) Signature {
	if sig, ok := e.cache.Get(text); ok {
		return sig
	}
	sig := Compute(text)
	e.cache.Add(text, sig)
	return sig
}

// Similarity computes the Jaccard estimate between two texts (§4.2's
// contract: deterministic, symmetric, sim(x,x) == 1.0 for non-empty x).
func (e *Engine) Similarity(textA, textB string) float64 {
	return Similarity(e.Signature(textA), e.Signature(textB))
}
