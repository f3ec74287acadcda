package minhash

import "math"

// Signature is the fixed-length MinHash sketch of a text (§4.2).
type Signature [SignatureLength]uint64

// maxSigValue stands in for an empty shingle set's all-MAX signature.
const maxSigValue = math.MaxUint64

// Compute produces the MinHash signature for text, per §4.2. It is
// deterministic: the same text always yields the same signature.
func Compute(text string) Signature {
	shingleSet := shingles(text)

	var sig Signature
	for i := range sig {
		sig[i] = maxSigValue
	}
	if len(shingleSet) == 0 {
		return sig
	}

	hashes := make([]uint32, len(shingleSet))
	for i, sh := range shingleSet {
		hashes[i] = stableHash32(sh)
	}

	for i := 0; i < SignatureLength; i++ {
		min := uint64(maxSigValue)
		for _, h := range hashes {
			v := hashAt(i, h)
			if v < min {
				min = v
			}
		}
		sig[i] = min
	}
	return sig
}

// Similarity returns the Jaccard estimate between two equal-length
// signatures: the fraction of positions at which they agree (§4.2).
// It is symmetric, and Similarity(s, s) == 1.0 for any signature s
// produced from non-empty text.
func Similarity(a, b Signature) float64 {
	agree := 0
	for i := range a {
		if a[i] == b[i] {
			agree++
		}
	}
	return float64(agree) / float64(len(a))
}
