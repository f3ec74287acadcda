package minhash

import (
	"math/rand"

	"github.com/cespare/xxhash/v2"
)

// SignatureLength is the fixed signature width (§4.2).
const SignatureLength = 100

// signatureSeed is the build-time constant seed (§4.2) that makes the
// h_i family reproducible across processes.
const signatureSeed = 0x6d696e68617368 // "minhash" in hex, arbitrary but fixed

// hashPrime is a prime greater than 2^32, per §4.2.
const hashPrime uint64 = 4294967311

var hashCoeffA [SignatureLength]uint64
var hashCoeffB [SignatureLength]uint64

func init() {
	gen := rand.New(rand.NewSource(signatureSeed))
	for i := 0; i < SignatureLength; i++ {
		// a_i must be non-zero mod hashPrime.
		a := uint64(gen.Int63n(int64(hashPrime-1))) + 1
		b := uint64(gen.Int63n(int64(hashPrime)))
		hashCoeffA[i] = a
		hashCoeffB[i] = b
	}
}

// stableHash32 is H(x): a stable 32-bit hash of a shingle string.
func stableHash32(s string) uint32 {
	return uint32(xxhash.Sum64String(s))
}

// hashAt computes h_i(x) = (a_i*H(x) + b_i) mod p for signature position i.
// The result is stored as uint64 rather than uint32 because p exceeds
// 2^32 (§4.2) and truncating would wrap the top of the range.
func hashAt(i int, h uint32) uint64 {
	return (hashCoeffA[i]*uint64(h) + hashCoeffB[i]) % hashPrime
}
