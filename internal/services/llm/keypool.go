// Package llm wraps the generative backends behind the report pipeline's
// Generator contract: credential rotation, streaming completion calls, and
// markup cleanup of the accumulated output.
package llm

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/ternarybob/arbor"
)

// ErrNoKeys indicates the pool was constructed without any usable credential
var ErrNoKeys = errors.New("no api keys available")

// googleKeyRe is the expected shape of a Google API key. Keys that don't
// match are still usable; the mismatch is only logged.
var googleKeyRe = regexp.MustCompile(`^AIzaSy[A-Za-z0-9_-]{33}$`)

// KeyPool is the process-wide credential rotation pool. Every concurrent
// generation call draws from the same pool; selection is round-robin behind
// an atomic counter so rotation is safe without locking.
type KeyPool struct {
	keys    atomic.Pointer[[]string]
	counter atomic.Uint64
}

// NewKeyPool creates a pool over the given keys
func NewKeyPool(keys []string) (*KeyPool, error) {
	cleaned := cleanKeys(keys)
	if len(cleaned) == 0 {
		return nil, ErrNoKeys
	}
	pool := &KeyPool{}
	pool.keys.Store(&cleaned)
	return pool, nil
}

func cleanKeys(keys []string) []string {
	cleaned := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			cleaned = append(cleaned, k)
		}
	}
	return cleaned
}

// Reload swaps the pool's keys without interrupting in-flight rotation.
// The rotation counter carries over, applied modulo the new size.
func (p *KeyPool) Reload(keys []string) error {
	cleaned := cleanKeys(keys)
	if len(cleaned) == 0 {
		return ErrNoKeys
	}
	p.keys.Store(&cleaned)
	return nil
}

// LoadKeyPool builds a pool from a keys file (one key per line, '#' starts a
// comment) plus an optional single fallback key. Either source alone is
// sufficient.
func LoadKeyPool(keysFile, fallbackKey string, logger arbor.ILogger) (*KeyPool, error) {
	var keys []string

	if keysFile != "" {
		file, err := os.Open(keysFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open keys file %s: %w", keysFile, err)
		}
		defer file.Close()

		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if !googleKeyRe.MatchString(line) {
				logger.Warn().Str("file", keysFile).Msg("Key does not match expected format, keeping anyway")
			}
			keys = append(keys, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read keys file %s: %w", keysFile, err)
		}
	}

	if fallbackKey != "" {
		keys = append(keys, fallbackKey)
	}

	pool, err := NewKeyPool(keys)
	if err != nil {
		return nil, err
	}

	logger.Info().Int("keys", pool.Size()).Msg("Credential pool loaded")
	return pool, nil
}

// Next returns the next key in round-robin order. Rotation only; keys are
// never suspended, a failing key simply comes around again after the rest
// have been tried.
func (p *KeyPool) Next() string {
	keys := *p.keys.Load()
	idx := p.counter.Add(1) - 1
	return keys[idx%uint64(len(keys))]
}

// Size returns the number of keys in the pool
func (p *KeyPool) Size() int {
	return len(*p.keys.Load())
}
