package dictionary

import (
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"wordroom-server/roomerrors"
)

// Validation errors returned by Check. Each failure mode has its own
// sentinel so callers can surface a specific reason to players.
var (
	ErrMissingSyllable = errors.New("word does not contain the syllable")
	ErrUnknownWord     = errors.New("word is not in the dictionary")
)

const (
	// randomAttempts bounds the number of random probes before falling
	// back to a linear scan in RandomWord/RandomSyllable.
	randomAttempts = 64

	minSubstringLen = 2
	maxSubstringLen = 3
)

// Resource is the process-wide word corpus. One instance is shared by
// reference across all rooms; it is read-only after its one-time load,
// so post-load access needs no locking. Loading is coalesced: concurrent
// Load calls from racing rooms share a single fetch/decompress/index pass.
type Resource struct {
	source   string // file path or http(s) URL; ".gz" suffix means gzip
	minWords int    // minimum containing-word count for a syllable to be indexed

	group  singleflight.Group
	loaded atomic.Bool

	words     []string
	wordSet   map[string]struct{}
	syllables []string

	// HTTPClient is used for http(s) sources. Replaceable in tests.
	HTTPClient *http.Client
}

// New creates an unloaded Resource. Call Load before querying.
func New(source string, minWords int) *Resource {
	return &Resource{
		source:     source,
		minWords:   minWords,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Ready reports whether the corpus has finished loading.
func (r *Resource) Ready() bool {
	return r.loaded.Load()
}

// Load fetches, decompresses, and indexes the corpus. It returns
// immediately if already loaded; concurrent calls while a load is in
// flight await and share that single load's outcome.
func (r *Resource) Load(ctx context.Context) error {
	if r.loaded.Load() {
		return nil
	}
	_, err, _ := r.group.Do("load", func() (interface{}, error) {
		if r.loaded.Load() {
			return nil, nil
		}
		start := time.Now()
		rc, err := r.open(ctx)
		if err != nil {
			return nil, err
		}
		defer rc.Close()

		reader := io.Reader(rc)
		if strings.HasSuffix(r.source, ".gz") {
			gz, err := gzip.NewReader(rc)
			if err != nil {
				return nil, fmt.Errorf("decompressing %s: %w", r.source, err)
			}
			defer gz.Close()
			reader = gz
		}

		words, set, err := scanWords(reader)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", r.source, err)
		}
		if len(words) == 0 {
			return nil, fmt.Errorf("dictionary source %s contained no words", r.source)
		}

		r.words = words
		r.wordSet = set
		r.syllables = indexSyllables(words, r.minWords)
		r.loaded.Store(true)

		slog.Info("dictionary loaded", "tag", "dict",
			"words", len(words), "syllables", len(r.syllables),
			"elapsed", time.Since(start).Round(time.Millisecond).String())
		return nil, nil
	})
	return err
}

func (r *Resource) open(ctx context.Context) (io.ReadCloser, error) {
	if strings.HasPrefix(r.source, "http://") || strings.HasPrefix(r.source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.source, nil)
		if err != nil {
			return nil, err
		}
		resp, err := r.HTTPClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetching %s: status %d", r.source, resp.StatusCode)
		}
		return resp.Body, nil
	}
	return os.Open(r.source)
}

// scanWords reads one word per line, uppercases, and builds the set.
// Blank lines and words with non-letter characters are skipped.
func scanWords(reader io.Reader) ([]string, map[string]struct{}, error) {
	var words []string
	set := make(map[string]struct{})
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		w := strings.ToUpper(strings.TrimSpace(scanner.Text()))
		if w == "" || !allLetters(w) {
			continue
		}
		if _, dup := set[w]; dup {
			continue
		}
		words = append(words, w)
		set[w] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return words, set, nil
}

func allLetters(w string) bool {
	for _, c := range w {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

// indexSyllables counts, for every 2- and 3-letter substring, how many
// distinct words contain it, and keeps those meeting the minimum. The
// minimum keeps generated syllables fair: common enough to be answerable,
// rare enough to not be trivial.
func indexSyllables(words []string, minWords int) []string {
	if minWords < 1 {
		minWords = 1
	}
	counts := make(map[string]int)
	seen := make(map[string]struct{})
	for _, w := range words {
		for k := range seen {
			delete(seen, k)
		}
		for size := minSubstringLen; size <= maxSubstringLen; size++ {
			for i := 0; i+size <= len(w); i++ {
				sub := w[i : i+size]
				if _, dup := seen[sub]; dup {
					continue
				}
				seen[sub] = struct{}{}
				counts[sub]++
			}
		}
	}
	var syllables []string
	for sub, n := range counts {
		if n >= minWords {
			syllables = append(syllables, sub)
		}
	}
	return syllables
}

// Check validates a submitted word against the corpus and an optional
// syllable. Containment is checked first so the more specific reason wins.
// The word is expected to already be uppercase.
func (r *Resource) Check(word, syllable string) error {
	if !r.loaded.Load() {
		return roomerrors.ErrDictionaryNotReady
	}
	if syllable != "" && !strings.Contains(word, syllable) {
		return ErrMissingSyllable
	}
	if _, ok := r.wordSet[word]; !ok {
		return ErrUnknownWord
	}
	return nil
}

// Contains reports corpus membership for an uppercase word.
func (r *Resource) Contains(word string) bool {
	if !r.loaded.Load() {
		return false
	}
	_, ok := r.wordSet[word]
	return ok
}

// WordCount returns the number of words in the corpus (0 before load).
func (r *Resource) WordCount() int {
	if !r.loaded.Load() {
		return 0
	}
	return len(r.words)
}

// RandomWord samples a word of exactly the given length. It probes random
// indices a bounded number of times, then scans from a random offset, and
// fails with roomerrors.ErrWordNotFound when no word of that length exists.
func (r *Resource) RandomWord(length int) (string, error) {
	if !r.loaded.Load() {
		return "", roomerrors.ErrDictionaryNotReady
	}
	n := len(r.words)
	for attempt := 0; attempt < randomAttempts; attempt++ {
		w := r.words[rand.Intn(n)]
		if len(w) == length {
			return w, nil
		}
	}
	offset := rand.Intn(n)
	for i := 0; i < n; i++ {
		w := r.words[(offset+i)%n]
		if len(w) == length {
			return w, nil
		}
	}
	return "", fmt.Errorf("no word of length %d: %w", length, roomerrors.ErrWordNotFound)
}

// RandomSyllable samples from the precomputed syllable index.
func (r *Resource) RandomSyllable() (string, error) {
	if !r.loaded.Load() {
		return "", roomerrors.ErrDictionaryNotReady
	}
	if len(r.syllables) == 0 {
		return "", fmt.Errorf("syllable index is empty: %w", roomerrors.ErrWordNotFound)
	}
	return r.syllables[rand.Intn(len(r.syllables))], nil
}
