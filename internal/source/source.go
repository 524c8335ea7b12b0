// Package source owns source buffers for the files being compiled, maps
// byte offsets to (line, column) pairs, and produces the snippets the
// Diagnostic Engine renders around an error.
package source

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/minio/highwayhash"
)

// fingerprintKey is a fixed 32-byte HighwayHash key. The fingerprint is an
// identity fact about a buffer's content, not a security boundary, so a
// constant key is fine - it only needs to be stable across a run.
var fingerprintKey = make([]byte, 32)

// ID stably identifies a File for the lifetime of a Session. It is not
// derived from content; two files with identical text get distinct IDs.
type ID string

// Span is a half-open byte range [Lo, Hi) within a single File. Every token,
// AST node, IR node, and diagnostic carries exactly one Span.
type Span struct {
	File ID
	Lo   int
	Hi   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.Hi - s.Lo
}

// Before reports whether s sorts before o under the file's total order:
// same file, compared by (Lo, Hi).
func (s Span) Before(o Span) bool {
	if s.File != o.File {
		return s.File < o.File
	}
	if s.Lo != o.Lo {
		return s.Lo < o.Lo
	}
	return s.Hi < o.Hi
}

// File is an immutable byte buffer with a stable ID and a line-offset index
// computed once at construction.
type File struct {
	id          ID
	name        string
	text        []byte
	fingerprint uint64
	lineOffsets []int // byte offset of the start of each line; lineOffsets[0] == 0
}

// newFile builds a File and its line index in one pass over text.
func newFile(name string, text []byte) *File {
	f := &File{
		id:          ID(uuid.NewString()),
		name:        name,
		text:        text,
		fingerprint: highwayhash.Sum64(text, fingerprintKey),
		lineOffsets: []int{0},
	}
	for i, b := range text {
		if b == '\n' {
			f.lineOffsets = append(f.lineOffsets, i+1)
		}
	}
	return f
}

// ID returns the file's stable identifier.
func (f *File) ID() ID { return f.id }

// Name returns the file's display name (typically its path).
func (f *File) Name() string { return f.name }

// Text returns the file's full byte buffer. Callers must not mutate it.
func (f *File) Text() []byte { return f.text }

// Fingerprint returns a HighwayHash content fingerprint of the buffer. It is
// an identity fact only - nothing in this package caches or reuses analysis
// results keyed on it.
func (f *File) Fingerprint() uint64 { return f.fingerprint }

// Slice returns the source text covered by span, which must belong to this
// file.
func (f *File) Slice(span Span) string {
	lo, hi := span.Lo, span.Hi
	if lo < 0 {
		lo = 0
	}
	if hi > len(f.text) {
		hi = len(f.text)
	}
	if lo > hi {
		return ""
	}
	return string(f.text[lo:hi])
}

// LineCol converts a byte offset to a 1-indexed (line, column) pair.
func (f *File) LineCol(offset int) (line, col int) {
	// lineOffsets is sorted; find the last line start <= offset.
	i := sort.Search(len(f.lineOffsets), func(i int) bool {
		return f.lineOffsets[i] > offset
	})
	line = i // i is 1-indexed line number already since lineOffsets[0] is line 1's start
	col = offset - f.lineOffsets[i-1] + 1
	return line, col
}

// Line returns the full text of the given 1-indexed line, without its
// trailing newline. Returns "" for an out-of-range line.
func (f *File) Line(n int) string {
	if n < 1 || n > len(f.lineOffsets) {
		return ""
	}
	start := f.lineOffsets[n-1]
	end := len(f.text)
	if n < len(f.lineOffsets) {
		end = f.lineOffsets[n] - 1 // exclude the newline
	}
	if end > len(f.text) {
		end = len(f.text)
	}
	if end < start {
		end = start
	}
	return string(f.text[start:end])
}

// LineCount returns the number of lines in the file.
func (f *File) LineCount() int {
	return len(f.lineOffsets)
}

// Manager owns every source buffer for a compilation run. A CompileAll run
// registers files from several goroutines at once (spec §5's anticipated
// per-file parallelism), so mu guards files/order.
type Manager struct {
	mu    sync.Mutex
	files map[ID]*File
	order []ID
}

// NewManager returns an empty Source Manager.
func NewManager() *Manager {
	return &Manager{files: make(map[ID]*File)}
}

// AddFile reads text into a new File, indexes it, and registers it with the
// manager. The Source Manager performs this I/O once, up front, per §5.
func (m *Manager) AddFile(name string, text []byte) *File {
	f := newFile(name, text)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[f.id] = f
	m.order = append(m.order, f.id)
	return f
}

// File looks up a previously added file by ID.
func (m *Manager) File(id ID) (*File, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	return f, ok
}

// MustFile looks up a file by ID and panics if it is not present; it is an
// internal-compiler-error for a Span to reference an unknown file.
func (m *Manager) MustFile(id ID) *File {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	if !ok {
		panic(fmt.Sprintf("source: unknown file id %q", id))
	}
	return f
}

// Files returns every registered file in the order it was added.
func (m *Manager) Files() []*File {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*File, len(m.order))
	for i, id := range m.order {
		out[i] = m.files[id]
	}
	return out
}

// Snippet returns the three-line source window the Diagnostic Engine renders
// around span: the line before, the offending line, and the line after,
// along with the 1-indexed line and column of span's start.
func (m *Manager) Snippet(span Span) (before, line, after string, lineNo, col int, ok bool) {
	f, present := m.File(span.File)
	if !present {
		return "", "", "", 0, 0, false
	}
	lineNo, col = f.LineCol(span.Lo)
	if lineNo > 1 {
		before = f.Line(lineNo - 1)
	}
	line = f.Line(lineNo)
	after = f.Line(lineNo + 1)
	return before, line, after, lineNo, col, true
}
