package curated

import (
	"io"
	"os"

	"github.com/zeebo/xxh3"
)

// Fingerprint returns the xxh3 hash of the file at path. Output files are
// fingerprinted in the logs so two runs over the same input can be compared
// without diffing the files themselves.
func Fingerprint(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
