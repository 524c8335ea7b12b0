package ir

import (
	"fmt"
	"strings"

	"github.com/dekarrin/rezi"
)

// Dump renders mod as a readable text listing, one function per block, in
// the spirit of a textbook three-address-code printout.
func Dump(mod *Module) string {
	var sb strings.Builder
	for _, fn := range mod.Functions {
		dumpFn(&sb, fn)
		sb.WriteString("\n")
	}
	return sb.String()
}

func dumpFn(sb *strings.Builder, fn Function) {
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = fmt.Sprintf("%s %s", p.Name, p.Type)
	}
	pureTag := ""
	if fn.Pure {
		pureTag = " pure"
	}
	fmt.Fprintf(sb, "fn %s(%s) -> %s%s declared=%v inferred=%v\n",
		fn.Name, strings.Join(params, ", "), fn.ReturnType, pureTag, fn.Declared, fn.Inferred)
	for _, c := range fn.Contracts {
		fmt.Fprintf(sb, "  contract %s %q -> %s\n", c.Kind, c.Message, c.Outcome)
	}
	dumpBlock(sb, fn.Body, 1)
}

func dumpBlock(sb *strings.Builder, blk Block, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, in := range blk.Instrs {
		dumpInstr(sb, in, depth, indent)
	}
}

func dumpInstr(sb *strings.Builder, in Instr, depth int, indent string) {
	switch in.Op {
	case "if":
		fmt.Fprintf(sb, "%s%s = if %s\n", indent, in.Dst, in.Args[0])
		fmt.Fprintf(sb, "%sthen:\n", indent)
		dumpBlock(sb, *in.Then, depth+1)
		if in.Else != nil {
			fmt.Fprintf(sb, "%selse:\n", indent)
			dumpBlock(sb, *in.Else, depth+1)
		}
	case "match":
		fmt.Fprintf(sb, "%s%s = match %s\n", indent, in.Dst, in.Args[0])
		for _, arm := range in.Arms {
			guard := ""
			if arm.Guard != "" {
				guard = " if " + arm.Guard
			}
			fmt.Fprintf(sb, "%sarm %s%s:\n", indent, arm.Pattern, guard)
			dumpBlock(sb, arm.Body, depth+1)
		}
	default:
		if in.Dst != "" {
			fmt.Fprintf(sb, "%s%s = %s %s\n", indent, in.Dst, in.Op, strings.Join(in.Args, " "))
		} else {
			fmt.Fprintf(sb, "%s%s %s\n", indent, in.Op, strings.Join(in.Args, " "))
		}
	}
}

// binModule is the flat, pointer-free shape rezi actually encodes: Block's
// nested *Block/[]MatchArm are flattened into parallel plain fields so the
// whole tree round-trips through reflection-based binary encoding without
// needing custom (Un)MarshalBinary methods anywhere in this package.
type binModule struct {
	Functions []binFunction
}

type binFunction struct {
	Name       string
	Params     []Param
	ReturnType string
	Pure       bool
	Declared   []string
	Inferred   []string
	Contracts  []ContractRecord
	Body       []binInstr
}

type binInstr struct {
	Op      string
	Dst     string
	Type    string
	Args    []string
	Then    []binInstr
	Else    []binInstr
	HasElse bool
	Arms    []binArm
}

type binArm struct {
	Pattern string
	Guard   string
	Body    []binInstr
	Result  string
}

func toBinBlock(blk Block) []binInstr {
	out := make([]binInstr, len(blk.Instrs))
	for i, in := range blk.Instrs {
		bi := binInstr{Op: in.Op, Dst: in.Dst, Type: in.Type, Args: in.Args}
		if in.Then != nil {
			bi.Then = toBinBlock(*in.Then)
		}
		if in.Else != nil {
			bi.Else = toBinBlock(*in.Else)
			bi.HasElse = true
		}
		for _, arm := range in.Arms {
			bi.Arms = append(bi.Arms, binArm{Pattern: arm.Pattern, Guard: arm.Guard, Body: toBinBlock(arm.Body), Result: arm.Result})
		}
		out[i] = bi
	}
	return out
}

func fromBinBlock(instrs []binInstr) Block {
	out := make([]Instr, len(instrs))
	for i, bi := range instrs {
		in := Instr{Op: bi.Op, Dst: bi.Dst, Type: bi.Type, Args: bi.Args}
		if len(bi.Then) > 0 || (bi.Op == "if") {
			thenBlk := fromBinBlock(bi.Then)
			in.Then = &thenBlk
		}
		if bi.HasElse {
			elseBlk := fromBinBlock(bi.Else)
			in.Else = &elseBlk
		}
		for _, arm := range bi.Arms {
			in.Arms = append(in.Arms, MatchArm{Pattern: arm.Pattern, Guard: arm.Guard, Body: fromBinBlock(arm.Body), Result: arm.Result})
		}
		out[i] = in
	}
	return Block{Instrs: out}
}

func toBin(mod *Module) binModule {
	bm := binModule{Functions: make([]binFunction, len(mod.Functions))}
	for i, fn := range mod.Functions {
		bm.Functions[i] = binFunction{
			Name: fn.Name, Params: fn.Params, ReturnType: fn.ReturnType, Pure: fn.Pure,
			Declared: fn.Declared, Inferred: fn.Inferred, Contracts: fn.Contracts,
			Body: toBinBlock(fn.Body),
		}
	}
	return bm
}

func fromBin(bm binModule) *Module {
	mod := &Module{Functions: make([]Function, len(bm.Functions))}
	for i, bf := range bm.Functions {
		mod.Functions[i] = Function{
			Name: bf.Name, Params: bf.Params, ReturnType: bf.ReturnType, Pure: bf.Pure,
			Declared: bf.Declared, Inferred: bf.Inferred, Contracts: bf.Contracts,
			Body: fromBinBlock(bf.Body),
		}
	}
	return mod
}

// EncodeBinary serializes mod with REZI, the same wire format the teacher
// uses for its own save-file payloads (server/dao/sqlite/sessions.go's
// rezi.EncBinary(s.State)).
func EncodeBinary(mod *Module) []byte {
	return rezi.EncBinary(toBin(mod))
}

// DecodeBinary parses a REZI-encoded module previously produced by
// EncodeBinary.
func DecodeBinary(data []byte) (*Module, error) {
	var bm binModule
	n, err := rezi.DecBinary(data, &bm)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, fmt.Errorf("rezi decode: consumed %d/%d bytes", n, len(data))
	}
	return fromBin(bm), nil
}
