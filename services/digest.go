package services

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/crypto/sha3"

	"book-pipeline/models"
	"book-pipeline/utils"
)

// SortKey multiplies (value+1) over every hex digit of digest. A 64-digit
// SHA3-256 digest can reach 16^64, hence the big.Int.
func SortKey(digest string) (*big.Int, error) {
	key := big.NewInt(1)
	factor := new(big.Int)
	for i, c := range digest {
		v, ok := hexValue(c)
		if !ok {
			return nil, fmt.Errorf("digest: invalid hex character %q at %d", c, i)
		}
		key.Mul(key, factor.SetInt64(int64(v)+1))
	}
	return key, nil
}

func hexValue(c rune) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	}
	return 0, false
}

// DigestFile returns the hex SHA3-256 digest of the file at path.
func DigestFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("digest: read %q: %w", path, err)
	}
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// DigestDir hashes every regular file directly inside dir on a pool of
// workers, starting at most one file per rateLimitMs milliseconds when
// rateLimitMs is positive. Subdirectories are skipped. The result is ordered
// by file name.
func DigestDir(dir string, workers, rateLimitMs int, logger *utils.Logger) ([]models.FileDigest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("digest: list %q: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			logger.Debug("[digest] Skipping directory %s", e.Name())
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	results := make([]models.FileDigest, len(names))
	var (
		mu   sync.Mutex
		errs error
	)

	pool := utils.NewWorkerPool(workers, rateLimitMs)
	for i, name := range names {
		pool.Submit(func() {
			digest, err := DigestFile(filepath.Join(dir, name))
			if err == nil {
				var key *big.Int
				key, err = SortKey(digest)
				results[i] = models.FileDigest{Name: name, Digest: digest, SortKey: key}
			}
			if err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
		})
	}
	pool.Wait()

	if errs != nil {
		return nil, errs
	}
	logger.Info("[digest] Hashed %d files in %s", len(results), dir)
	return results, nil
}

// SortDigests orders digests by ascending sort key, then by name.
func SortDigests(digests []models.FileDigest) {
	sort.SliceStable(digests, func(i, j int) bool {
		if c := digests[i].SortKey.Cmp(digests[j].SortKey); c != 0 {
			return c < 0
		}
		return digests[i].Name < digests[j].Name
	})
}
