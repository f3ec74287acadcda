package minhash

import "testing"

func TestTokenize(t *testing.T) {
	got := tokenize("Hello, World! 123")
	want := []string{"hello", "world", "123"}
	if len(got) != len(want) {
		t.Fatalf("tokenize = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tokenize[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestShinglesShortText(t *testing.T) {
	got := shingles("one two")
	if len(got) != 2 {
		t.Fatalf("shingles(\"one two\") = %v, want 2 single-token shingles", got)
	}
}

func TestShinglesWindowed(t *testing.T) {
	got := shingles("one two three four")
	want := []string{"one two three", "two three four"}
	if len(got) != len(want) {
		t.Fatalf("shingles = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("shingles[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestShinglesEmpty(t *testing.T) {
	if got := shingles(""); got != nil {
		t.Errorf("shingles(\"\") = %v, want nil", got)
	}
}

func TestComputeDeterministic(t *testing.T) {
	a := Compute("the quick brown fox jumps")
	b := Compute("the quick brown fox jumps")
	if a != b {
		t.Error("Compute is not deterministic for identical input")
	}
}

func TestSimilaritySelfIsOne(t *testing.T) {
	sig := Compute("a reasonably long piece of sample text for shingling")
	if got := Similarity(sig, sig); got != 1.0 {
		t.Errorf("Similarity(s, s) = %v, want 1.0", got)
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	a := Compute("the quick brown fox")
	b := Compute("the slow brown dog")
	if Similarity(a, b) != Similarity(b, a) {
		t.Error("Similarity is not symmetric")
	}
}

func TestSimilarityDistinctTextsLowerThanIdentical(t *testing.T) {
	a := Compute("introduction to algebra for beginners")
	b := Compute("completely unrelated content about cooking recipes")
	same := Compute("introduction to algebra for beginners")
	if Similarity(a, same) <= Similarity(a, b) {
		t.Errorf("expected identical text to score higher similarity than unrelated text")
	}
}

func TestComputeEmptyTextSignature(t *testing.T) {
	a := Compute("")
	b := Compute("")
	if Similarity(a, b) != 1.0 {
		t.Error("two empty-text signatures should be maximally similar to each other")
	}
}

func TestEngineMemoizesSignature(t *testing.T) {
	e := NewEngine()
	text := "memoized sample text"
	first := e.Signature(text)
	second := e.Signature(text)
	if first != second {
		t.Error("Engine.Signature should return a stable cached signature for the same text")
	}
}

func TestEngineSimilarity(t *testing.T) {
	e := NewEngine()
	if got := e.Similarity("same text here", "same text here"); got != 1.0 {
		t.Errorf("Engine.Similarity(x, x) = %v, want 1.0", got)
	}
}
