// Package hashvote computes a content digest by re-reading a file from
// possibly-corrupting storage N times and taking the modal SHA-1 digest,
// defending the end-to-end check against local storage corruption rather
// than network corruption (§4.5).
package hashvote

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"io"
	"os"
)

// Attempts is the number of times the file is fully re-read and re-hashed
// before a modal digest is chosen (N=50 per §4.5).
const Attempts = 50

// ErrOpen is returned when a read attempt cannot even open the file.
var ErrOpen = errors.New("hashvote: failed to open file")

// ErrStat is returned when the file's size cannot be determined.
var ErrStat = errors.New("hashvote: failed to stat file")

// ErrShortRead is returned when a read returns fewer bytes than the file's
// stat size. This is a storage-layer error, not corruption (§4.5): a
// corrupted read still returns the expected byte count, just with altered
// content.
var ErrShortRead = errors.New("hashvote: read fewer bytes than file size")

// FileOpener is the narrow interface hashvote needs from a (possibly nasty)
// file backend: open path for reading. Implementations may return bytes
// that disagree with what was last written, simulating storage corruption.
type FileOpener interface {
	Open(path string) (io.ReadCloser, error)
}

// osOpener is the non-adversarial FileOpener used when file nastiness is 0.
type osOpener struct{}

// Open implements FileOpener using a plain os.Open.
func (osOpener) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// OS is the default, non-corrupting FileOpener.
var OS FileOpener = osOpener{}

// Majority computes the majority-vote SHA-1 digest of path by reading it
// Attempts times through opener and returning the most frequently observed
// hex digest, ties broken by first occurrence. statSize is the file's
// expected byte length (obtained once via os.Stat by the caller, since the
// file's true size is assumed stable for the duration of the vote); a
// negative statSize skips the short-read check.
//
// Open question, intentionally not fixed (§4.5, §9.3): with sufficiently
// high file nastiness the individual digests may split so finely that no
// digest is truly dominant, yet this function still returns whichever
// digest happens to have the highest count, which can produce a spurious
// agreement between the two ends of the connection. The original source
// carries the same caveat without mitigation; this module does too.
func Majority(opener FileOpener, path string, statSize int64) (string, error) {
	counts := make(map[string]int, Attempts)
	order := make([]string, 0, Attempts)

	for i := 0; i < Attempts; i++ {
		digest, err := hashOnce(opener, path, statSize)
		if err != nil {
			return "", err
		}
		if _, seen := counts[digest]; !seen {
			order = append(order, digest)
		}
		counts[digest]++
	}

	best := order[0]
	bestCount := counts[best]
	for _, d := range order[1:] {
		if counts[d] > bestCount {
			best = d
			bestCount = counts[d]
		}
	}
	return best, nil
}

func hashOnce(opener FileOpener, path string, statSize int64) (string, error) {
	rc, err := opener.Open(path)
	if err != nil {
		return "", ErrOpen
	}
	defer rc.Close()

	h := sha1.New()
	n, err := io.Copy(h, rc)
	if err != nil {
		return "", ErrShortRead
	}
	if statSize >= 0 && n != statSize {
		return "", ErrShortRead
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// StatSize returns the current size of path, wrapped as ErrStat on failure,
// for callers that need the expected size before calling Majority.
func StatSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, ErrStat
	}
	return info.Size(), nil
}
