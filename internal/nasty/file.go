package nasty

import (
	"io"
	"math/rand"
	"os"
)

// fileCorruptWeight mirrors the network weights: higher level, higher
// per-call probability of a single bit flip somewhere in the buffer just
// read or about to be written.
const fileCorruptWeight = 10

// File wraps an *os.File, corrupting bytes on Read/Write with a probability
// that scales with level. This is the concrete stand-in for the spec's
// "assumed given" adversarial file interface (§1): open/read/write/close
// that may corrupt bytes, used transparently by both read-entire-file and
// the majority-vote hasher on either side of the connection.
type File struct {
	f     *os.File
	level int
	rnd   *rand.Rand
}

// NewFile wraps f with the given file nastiness level.
func NewFile(f *os.File, level int, rnd *rand.Rand) *File {
	return &File{f: f, level: level, rnd: rnd}
}

// Read delegates to the wrapped file, then may flip a single random bit
// among the bytes actually read.
func (n *File) Read(p []byte) (int, error) {
	c, err := n.f.Read(p)
	if c > 0 {
		n.maybeCorrupt(p[:c])
	}
	return c, err
}

// Write corrupts a copy of p before delegating to the wrapped file, so that
// what lands on "disk" may already disagree with what the caller intended
// to write — modeling storage-layer corruption rather than transport
// corruption.
func (n *File) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return n.f.Write(p)
	}
	buf := make([]byte, len(p))
	copy(buf, p)
	n.maybeCorrupt(buf)
	return n.f.Write(buf)
}

// Close releases the underlying file.
func (n *File) Close() error {
	return n.f.Close()
}

func (n *File) maybeCorrupt(b []byte) {
	if n.level <= 0 || len(b) == 0 {
		return
	}
	p := float64(n.level) / float64(n.level+fileCorruptWeight)
	if n.rnd.Float64() >= p {
		return
	}
	idx := n.rnd.Intn(len(b))
	b[idx] ^= 1 << uint(n.rnd.Intn(8))
}

// Factory opens and creates files with a fixed nastiness level and random
// source, implementing both hashvote.FileOpener and the receiver's staging
// file creation need. A level of 0 yields a transparent passthrough to
// os.Open/os.Create.
type Factory struct {
	Level int
	Rnd   *rand.Rand
}

// Open opens path for reading, applying read-side corruption. The return
// type is io.ReadCloser so Factory satisfies hashvote.FileOpener directly.
func (f *Factory) Open(path string) (io.ReadCloser, error) {
	osf, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return NewFile(osf, f.Level, f.Rnd), nil
}

// Create truncates (or creates) path for writing, applying write-side
// corruption, matching the receiver's "fopen(targetName, \"wb\")" staging
// semantics from the original source.
func (f *Factory) Create(path string) (io.WriteCloser, error) {
	osf, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return NewFile(osf, f.Level, f.Rnd), nil
}
