// Package codefilter keeps a bloom filter over every known short code and
// custom alias so the redirect gateway can skip store lookups for paths that
// definitely are not short links. False positives only cost one lookup;
// false negatives cannot occur for codes added through Add or Seed.
package codefilter

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

const falsePositiveRate = 0.001

// Filter is a concurrency-safe bloom filter over short codes.
type Filter struct {
	mu sync.RWMutex
	bf *bloom.BloomFilter
}

// New sizes a filter for the expected number of codes.
func New(expectedCodes uint) *Filter {
	if expectedCodes == 0 {
		expectedCodes = 1
	}
	return &Filter{bf: bloom.NewWithEstimates(expectedCodes, falsePositiveRate)}
}

// Seed adds every given code; called once at startup with the store contents.
func (f *Filter) Seed(codes []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, code := range codes {
		f.bf.AddString(code)
	}
}

// Add records a freshly created code or alias.
func (f *Filter) Add(code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bf.AddString(code)
}

// MightContain reports whether the code could be a known short code. A false
// return is definitive; a true return still requires a store lookup.
func (f *Filter) MightContain(code string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bf.TestString(code)
}
