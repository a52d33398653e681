// Package cst parses preprocessed MIPS assembly text into a concrete
// syntax tree: an ordered top-level Sequence of Label, Instruction, and
// Directive nodes, each retaining the original argument text verbatim so
// the encoder can re-interpret register mnemonics and the imm(rs)
// memory-address form.
package cst

// NodeKind tags the variant of a CST Node.
type NodeKind int

const (
	KindLabel NodeKind = iota
	KindInstruction
	KindDirective
	KindSequence
)

// Node is a tagged CST node. Only the fields relevant to Kind are
// populated.
type Node struct {
	Kind NodeKind
	Pos  Position

	// KindLabel
	Name string

	// KindInstruction
	Mnemonic string
	Args     []string // raw argument text, in source order

	// KindDirective
	DirectiveName string
	DirectiveArgs []string

	// KindSequence
	Children []*Node
}

// Label builds a KindLabel node.
func Label(name string, pos Position) *Node {
	return &Node{Kind: KindLabel, Name: name, Pos: pos}
}

// Instruction builds a KindInstruction node.
func Instruction(mnemonic string, args []string, pos Position) *Node {
	return &Node{Kind: KindInstruction, Mnemonic: mnemonic, Args: args, Pos: pos}
}

// Directive builds a KindDirective node.
func Directive(name string, args []string, pos Position) *Node {
	return &Node{Kind: KindDirective, DirectiveName: name, DirectiveArgs: args, Pos: pos}
}

// Sequence builds a top-level KindSequence node.
func Sequence(children []*Node) *Node {
	return &Node{Kind: KindSequence, Children: children}
}
