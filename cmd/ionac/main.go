/*
Ionac compiles a single Iona source file through every stage described in
spec §4: lexing, parsing, scope building, declaration collection, semantic
analysis, and IR lowering.

Usage:

	ionac [flags] FILE

The flags are:

	-v, --version
		Give the current version of ionac and then exit.

	-m, --manifest FILE
		Load a TOML standard-library manifest overriding the compiled-in
		default (see internal/stdmanifest).

	--dump-tokens
		Print the token stream to stdout instead of the IR.

	--dump-ast
		Print the parsed AST to stdout instead of the IR.

	--permissions
		Print each function's declared and inferred permission sets to
		stdout instead of the IR.

Exit code 0 means the file compiled with no error diagnostics; 1 means at
least one error diagnostic was reported; 2 means a usage error (a missing
or unreadable file, a bad manifest). Stdout carries whichever report was
requested; stderr carries diagnostics.
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/BurntChromium/iona-lang"
	"github.com/BurntChromium/iona-lang/internal/diag"
	"github.com/BurntChromium/iona-lang/internal/ir"
	"github.com/BurntChromium/iona-lang/internal/perm"
	"github.com/BurntChromium/iona-lang/internal/stdmanifest"
	"github.com/BurntChromium/iona-lang/internal/version"
)

const (
	// ExitSuccess indicates a clean compile with no error diagnostics.
	ExitSuccess = iota

	// ExitCompileError indicates at least one error diagnostic was
	// reported during compilation.
	ExitCompileError

	// ExitUsageError indicates a problem with the invocation itself: a
	// missing file, an unreadable manifest.
	ExitUsageError
)

var (
	returnCode   int     = ExitSuccess
	flagVersion  *bool   = pflag.BoolP("version", "v", false, "Gives the version info")
	manifestPath *string = pflag.StringP("manifest", "m", "", "TOML standard-library manifest overriding the built-in default")
	dumpTokens   *bool   = pflag.Bool("dump-tokens", false, "Print the token stream instead of the IR")
	dumpAST      *bool   = pflag.Bool("dump-ast", false, "Print the parsed AST instead of the IR")
	showPerms    *bool   = pflag.Bool("permissions", false, "Print declared/inferred permission sets instead of the IR")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occured: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("ionac %s\n", version.Current)
		return
	}

	if pflag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "ERROR: expected exactly one source file argument\n")
		returnCode = ExitUsageError
		return
	}
	path := pflag.Arg(0)

	manifest := stdmanifest.Default()
	if *manifestPath != "" {
		loaded, err := stdmanifest.Load(*manifestPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitUsageError
			return
		}
		manifest = loaded
	}

	text, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitUsageError
		return
	}

	sess := ionac.New(manifest)
	unit := sess.Compile(path, text)

	switch {
	case *dumpTokens:
		fmt.Print(ionac.DumpTokens(unit))
	case *dumpAST:
		fmt.Print(ionac.DumpAST(unit))
	case *showPerms:
		fmt.Print(perm.Report(unit.Module, unit.Result.Permissions, 80))
	default:
		fmt.Print(ir.Dump(unit.IR))
	}

	if sess.Diags.HasErrors() {
		fmt.Fprint(os.Stderr, sess.Report(diag.TextFormatter{}))
		returnCode = ExitCompileError
		return
	}
	if len(sess.Diags.Diagnostics()) > 0 {
		fmt.Fprint(os.Stderr, sess.Report(diag.TextFormatter{}))
	}
}
