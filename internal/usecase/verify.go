package usecase

import (
	"fmt"
	"os"

	"github.com/aulianza/dbarc/internal/domain"
)

// minPlausibleSize is a heuristic floor: a real dump is essentially never
// under 100 bytes, even compressed.
const minPlausibleSize = 100

// Verifier checks that a produced dump file exists and is non-trivial.
type Verifier struct {
	logger Logger
}

func NewVerifier(logger Logger) *Verifier {
	return &Verifier{logger: logger}
}

// Verify returns the file size. A missing file, stat error, or zero size
// is fatal; a suspiciously small file passes with a warning.
func (v *Verifier) Verify(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: stat %s: %v", domain.ErrVerification, path, err)
	}

	size := info.Size()
	if size == 0 {
		return 0, fmt.Errorf("%w: %s is empty", domain.ErrVerification, path)
	}
	if size < minPlausibleSize {
		v.logger.Warnf("Backup file %s is suspiciously small: %d bytes", path, size)
	}

	return size, nil
}
