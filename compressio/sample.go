package compressio

import (
	"bufio"
	"io"
	"math/rand"
)

// SampleLines draws a uniform sample of up to k lines from r using
// reservoir sampling (Algorithm R): one pass, O(n) time, O(k) space
// regardless of how many lines r holds. If r yields fewer than k
// lines, SampleLines returns all of them.
func SampleLines(r io.Reader, k int, rng *rand.Rand) ([]string, error) {
	if k <= 0 {
		return nil, nil
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	reservoir := make([]string, 0, k)
	seen := 0
	for sc.Scan() {
		line := sc.Text()
		seen++
		if len(reservoir) < k {
			reservoir = append(reservoir, line)
			continue
		}
		j := rng.Intn(seen)
		if j < k {
			reservoir[j] = line
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return reservoir, nil
}
