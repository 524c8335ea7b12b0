// Package stdmanifest loads the standard-library manifest of spec §6: a
// table mapping an imported name to its signature, declared permissions,
// and properties. The compiler never sees the standard library's
// implementations, only these declarations - exactly the "consumes only
// signatures and declared permissions" boundary spec §1 draws.
//
// The format is TOML, loaded with github.com/BurntSushi/toml the same way
// the teacher's internal/tqw loads its own `.tqw` world files: a compiled-in
// default covers the examples spec §6 names explicitly, and an optional
// override file (the CLI's `-m/--manifest` flag) replaces it entirely; the
// two are not merged.
package stdmanifest

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/BurntChromium/iona-lang/internal/perm"
)

// entryDoc is the on-disk TOML shape: a flat list of entries, one per
// imported symbol.
type entryDoc struct {
	Entries []entryRow `toml:"entry"`
}

type entryRow struct {
	Path        string   `toml:"path"`
	Params      []string `toml:"params"`
	Return      string   `toml:"return"`
	Permissions []string `toml:"permissions"`
	Pure        bool     `toml:"pure"`
}

// Signature is a standard-library symbol's type shape: ordered parameter
// types plus a return type, both given as the same bare type names the
// parser produces for a Type node.
type Signature struct {
	Params []string
	Return string
}

// Entry is one fully-decoded manifest row.
type Entry struct {
	Path        string
	Signature   Signature
	Permissions perm.Set
	Pure        bool
}

// Manifest is the decoded, queryable table. It implements perm.Manifest so
// internal/perm can resolve a stdlib call's intrinsic effect directly.
type Manifest struct {
	entries map[string]Entry
}

// Intrinsic implements perm.Manifest: the declared permission set of an
// imported standard-library symbol.
func (m *Manifest) Intrinsic(name string) (perm.Set, bool) {
	e, ok := m.entries[name]
	if !ok {
		return nil, false
	}
	return e.Permissions, true
}

// Signature returns the parameter/return types of an imported symbol.
func (m *Manifest) Signature(name string) (Signature, bool) {
	e, ok := m.entries[name]
	if !ok {
		return Signature{}, false
	}
	return e.Signature, true
}

// Lookup returns the full Entry for name.
func (m *Manifest) Lookup(name string) (Entry, bool) {
	e, ok := m.entries[name]
	return e, ok
}

// Has reports whether name is declared anywhere in the manifest.
func (m *Manifest) Has(name string) bool {
	_, ok := m.entries[name]
	return ok
}

func fromRows(rows []entryRow) *Manifest {
	m := &Manifest{entries: make(map[string]Entry, len(rows))}
	for _, r := range rows {
		permSet, _ := perm.ParseSet(r.Permissions) // unrecognized names are silently dropped here; a hand-authored override is trusted, validated only against what it declares
		m.entries[r.Path] = Entry{
			Path:        r.Path,
			Signature:   Signature{Params: r.Params, Return: r.Return},
			Permissions: permSet,
			Pure:        r.Pure,
		}
	}
	return m
}

// Decode parses a TOML manifest document from data.
func Decode(data []byte) (*Manifest, error) {
	var doc entryDoc
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, err
	}
	return fromRows(doc.Entries), nil
}

// Load reads and decodes the TOML manifest file at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Default returns the compiled-in manifest covering the standard-library
// surface spec §6 names explicitly.
func Default() *Manifest {
	return fromRows(defaultRows)
}

var defaultRows = []entryRow{
	{
		Path:        "read_file",
		Params:      []string{"str"},
		Return:      "str",
		Permissions: []string{"ReadFile"},
	},
	{
		Path:        "write_file",
		Params:      []string{"str", "str"},
		Return:      "void",
		Permissions: []string{"WriteFile"},
	},
	{
		Path:        "request",
		Params:      []string{"str", "str", "T"},
		Return:      "Response",
		Permissions: []string{"WriteNetwork", "ReadNetwork"},
	},
	{
		Path:   "sqrt",
		Params: []string{"float"},
		Return: "float",
		Pure:   true,
	},
}
