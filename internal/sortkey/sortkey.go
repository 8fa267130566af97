// Package sortkey assigns flashcards their review-order keys and resolves
// collisions across a batch.
//
// A key is an 8-digit string: HSK level (2 digits), frequency bucket
// (2 digits), random tiebreak (4 digits). Cards sort by key, so lower HSK
// levels and more frequent words surface first, shuffled within a bucket.
package sortkey

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"chinosrs/internal/config"
)

// freqBuckets maps frequency tag names to their bucket code.
var freqBuckets = map[string]int{
	"top1k":  1,
	"top3k":  3,
	"top5k":  5,
	"top10k": 10,
	"rare":   90,
}

// ParseTags extracts the HSK level and frequency bucket code from a
// semicolon-separated tag cell like "hsk:2;freq:top1k". Unknown or missing
// components fall back to 99, sorting last.
func ParseTags(tags string) (hsk, freq int) {
	hsk = config.UnknownHSK
	freq = config.UnknownFreq
	for _, tag := range strings.Split(tags, ";") {
		tag = strings.TrimSpace(tag)
		switch {
		case strings.HasPrefix(tag, "hsk:"):
			if n, err := strconv.Atoi(strings.TrimPrefix(tag, "hsk:")); err == nil {
				hsk = n
			}
		case strings.HasPrefix(tag, "freq:"):
			if code, ok := freqBuckets[strings.TrimPrefix(tag, "freq:")]; ok {
				freq = code
			} else {
				freq = config.UnknownFreq
			}
		}
	}
	return hsk, freq
}

// Format renders the three key components as an 8-digit key.
func Format(hsk, freq, random int) string {
	return fmt.Sprintf("%02d%02d%04d", hsk, freq, random)
}

// Generator produces sort keys. The random source is injectable so batches
// can be reproduced in tests.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a Generator seeded from seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Generate builds a key for a card from its frequency tag cell.
func (g *Generator) Generate(tags string) string {
	hsk, freq := ParseTags(tags)
	return Format(hsk, freq, g.rng.Intn(config.SortKeyRandomSpace))
}

// Deduplicate resolves key collisions within a batch.
//
// For every group of cards sharing a key, the first keeps it. Each later card
// probes (base+offset) mod 10000 within the same HSK+freq bucket; once a
// single card burns through config.BucketProbeLimit occupied probes the
// bucket is considered saturated and probing restarts at offset 0 in the next
// frequency bucket (freq+1). The probe offset carries over between the cards
// of a group, the attempt allowance does not. All reassignments respect keys already present
// anywhere in the batch.
//
// Resolution is deterministic given the input keys: groups are visited in
// first-occurrence order and probing is sequential.
//
// Returns the full key list with replacements applied and the indices whose
// keys changed, in ascending order. Errs when an HSK level runs out of
// frequency buckets entirely.
func Deduplicate(keys []string) ([]string, []int, error) {
	resolved := make([]string, len(keys))
	copy(resolved, keys)

	groups := make(map[string][]int, len(keys))
	var order []string
	for i, k := range keys {
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}

	used := make(map[string]struct{}, len(groups))
	for k := range groups {
		used[k] = struct{}{}
	}

	var changed []int
	for _, key := range order {
		indices := groups[key]
		if len(indices) < 2 {
			continue
		}
		if len(key) != 8 {
			return nil, nil, fmt.Errorf("malformed sort key %q", key)
		}

		hsk := key[:2]
		baseFreq, err := strconv.Atoi(key[2:4])
		if err != nil {
			return nil, nil, fmt.Errorf("malformed sort key %q: %w", key, err)
		}
		baseRandom, err := strconv.Atoi(key[4:8])
		if err != nil {
			return nil, nil, fmt.Errorf("malformed sort key %q: %w", key, err)
		}

		offset := 1
		freq := baseFreq

		for _, idx := range indices[1:] {
			// Each note gets the full probe allowance before the bucket
			// is declared saturated.
			attempts := 0
			for {
				candidate := fmt.Sprintf("%s%02d%04d", hsk, freq, (baseRandom+offset)%config.SortKeyRandomSpace)
				if _, taken := used[candidate]; !taken {
					resolved[idx] = candidate
					used[candidate] = struct{}{}
					changed = append(changed, idx)
					offset++
					break
				}
				offset++
				attempts++
				if attempts > config.BucketProbeLimit {
					freq++
					offset = 0
					attempts = 0
					if freq > config.MaxFreqBucket {
						return nil, nil, fmt.Errorf("all frequency buckets saturated for HSK level %s", hsk)
					}
				}
			}
		}
	}

	sort.Ints(changed)
	return resolved, changed, nil
}
