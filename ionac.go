// Package ionac is the orchestration root: it wires the Source Manager,
// Lexer, Parser, Scope Builder, Declaration Collector, Semantic Analyzer
// and IR Lowerer into the two entry points spec §5/§6 describe - a
// synchronous single-file Compile, and a CompileAll that compiles several
// files concurrently with the Declaration Collector as the sole
// cross-file synchronization boundary.
package ionac

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/BurntChromium/iona-lang/internal/ast"
	"github.com/BurntChromium/iona-lang/internal/decl"
	"github.com/BurntChromium/iona-lang/internal/diag"
	"github.com/BurntChromium/iona-lang/internal/ir"
	"github.com/BurntChromium/iona-lang/internal/lex"
	"github.com/BurntChromium/iona-lang/internal/parse"
	"github.com/BurntChromium/iona-lang/internal/scope"
	"github.com/BurntChromium/iona-lang/internal/sema"
	"github.com/BurntChromium/iona-lang/internal/source"
	"github.com/BurntChromium/iona-lang/internal/stdmanifest"
)

// Session bundles everything one compilation run shares: the Source
// Manager, the Diagnostic Engine diagnostics accumulate into across every
// stage of every unit, and the standard-library manifest. A Session is the
// compiler as a value - nothing about a compile lives outside of it.
type Session struct {
	Files    *source.Manager
	Diags    *diag.Engine
	Manifest *stdmanifest.Manifest
}

// New returns an empty Session. A nil manifest falls back to
// stdmanifest.Default().
func New(manifest *stdmanifest.Manifest) *Session {
	if manifest == nil {
		manifest = stdmanifest.Default()
	}
	files := source.NewManager()
	return &Session{
		Files:    files,
		Diags:    diag.NewEngine(files),
		Manifest: manifest,
	}
}

// Unit is every artifact produced while compiling one file: its tokens
// (kept only for a --dump-tokens report), its AST arena and module root,
// its declaration table, its semantic analysis result, and its lowered
// IR. Arenas are per-unit and are never shared or merged across files
// (spec §5): a Unit owns its own arena outright.
type Unit struct {
	File    *source.File
	Tokens  []lex.Token
	Arena   *ast.Arena
	ModID   ast.NodeID
	Table   *scope.Table
	Module  *decl.Module
	Result  *sema.Result
	IR      *ir.Module
}

// Compile runs one file through the full pipeline synchronously, per
// spec §5's "single-threaded and synchronous per compilation unit". Every
// stage's diagnostics land in s.Diags regardless of earlier stages'
// errors; recoverable errors (spec §7) never stop the pipeline short of
// running every later stage, but a function with a PermissionMissing or
// PurityViolated verdict, or one containing a call site with a
// statically-violated precondition, is left out of the resulting IR
// (spec §8) - a caller
// still inspects s.Diags.HasErrors() to learn why.
func (s *Session) Compile(name string, text []byte) *Unit {
	f := s.Files.AddFile(name, text)
	return s.compileFile(f)
}

func (s *Session) compileFile(f *source.File) *Unit {
	toks := lex.New(f, s.Diags).Lex()
	arena := ast.NewArena()
	modID := parse.New(toks, arena, s.Diags, f.ID()).ParseModule()
	root, table, pending := scope.NewBuilder(arena, s.Diags).Build(modID)
	module := decl.NewCollector(arena, s.Diags, table, root).Collect(modID)

	u := &Unit{File: f, Tokens: toks, Arena: arena, ModID: modID, Table: table, Module: module}
	s.finish(u, pending)
	return u
}

// finish runs the stages downstream of declaration collection: semantic
// analysis and IR lowering.
func (s *Session) finish(u *Unit, pending []scope.PendingRef) {
	u.Result = sema.NewAnalyzer(u.Arena, s.Diags, u.Module, u.Table, s.Manifest).Analyze(pending)
	u.IR = ir.NewLowerer(u.Arena, u.Module, u.Result).Lower()
}

// prepared is the frozen output of a unit's pre-declaration stages,
// waiting at the CompileAll synchronization barrier.
type prepared struct {
	unit    *Unit
	root    *scope.Scope
	pending []scope.PendingRef
}

// CompileAll compiles several files concurrently. Per spec §5, lexing,
// parsing and scope building are entirely self-contained per file and run
// in parallel; the Declaration Collector is the sole cross-file
// synchronization boundary, run once all files have reached it, so that a
// name collision between two files' top-level functions is caught before
// any file proceeds into semantic analysis. Each file still gets its own
// arena, table and decl.Module - this module's scope/sema packages
// resolve names within one file's table, so a true merged cross-file
// namespace is future work; CompileAll's barrier delivers the
// synchronization spec §5 anticipates without overreaching into
// resolution semantics this compiler does not yet implement.
func (s *Session) CompileAll(sources map[string][]byte) ([]*Unit, error) {
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}

	prep := make([]*prepared, len(names))

	g := new(errgroup.Group)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			f := s.Files.AddFile(name, sources[name])
			toks := lex.New(f, s.Diags).Lex()
			arena := ast.NewArena()
			modID := parse.New(toks, arena, s.Diags, f.ID()).ParseModule()
			root, table, pending := scope.NewBuilder(arena, s.Diags).Build(modID)
			prep[i] = &prepared{
				unit:    &Unit{File: f, Tokens: toks, Arena: arena, ModID: modID, Table: table},
				root:    root,
				pending: pending,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Synchronization boundary: collect every file's declarations before
	// any file proceeds, and reject cross-file name collisions here
	// rather than silently shadowing one file's function with another's.
	seen := make(map[string]string, len(prep))
	for _, p := range prep {
		p.unit.Module = decl.NewCollector(p.unit.Arena, s.Diags, p.unit.Table, p.root).Collect(p.unit.ModID)
		for _, fnName := range p.unit.Module.Order {
			fn := p.unit.Module.Functions[fnName]
			if other, dup := seen[fnName]; dup {
				s.Diags.Errorf(diag.CodeParse, fn.Span,
					"function '%s' is already declared in %s", fnName, other)
				continue
			}
			seen[fnName] = p.unit.File.Name()
		}
	}

	units := make([]*Unit, len(prep))
	g2 := new(errgroup.Group)
	for i, p := range prep {
		i, p := i, p
		g2.Go(func() error {
			s.finish(p.unit, p.pending)
			units[i] = p.unit
			return nil
		})
	}
	if err := g2.Wait(); err != nil {
		return nil, err
	}

	return units, nil
}

// Report renders every diagnostic collected so far with f, the same
// rendering a CLI wrapper would print to stderr.
func (s *Session) Report(f diag.Formatter) string {
	return s.Diags.Render(f)
}

// ExitCode maps the session's accumulated diagnostics to the CLI exit
// code contract of spec §6: 0 clean, 1 on any error diagnostic. Usage
// errors (exit 2) are the CLI wrapper's own concern, raised before a
// Session even exists.
func (s *Session) ExitCode() int {
	if s.Diags.HasErrors() {
		return 1
	}
	return 0
}

// DumpTokens renders u's token stream one per line, for the --dump-tokens
// debug report.
func DumpTokens(u *Unit) string {
	out := ""
	for _, t := range u.Tokens {
		out += fmt.Sprintf("%s\n", t)
	}
	return out
}
