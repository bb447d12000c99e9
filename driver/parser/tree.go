package parser

import (
	"fmt"
	"io"
	"strconv"
)

// Node is a node of a concrete syntax tree. A terminal node has its lexeme and position, and a non-terminal
// node has one child per symbol of the production that made it.
type Node struct {
	Kind     string  `json:"kind"`
	Terminal bool    `json:"terminal,omitempty"`
	Text     string  `json:"text,omitempty"`
	Row      int     `json:"row,omitempty"`
	Col      int     `json:"col,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

// TreeBuilder is a Listener building a concrete syntax tree.
type TreeBuilder struct {
	tab   *Tables
	nodes []*Node
	root  *Node
}

func NewTreeBuilder(tab *Tables) *TreeBuilder {
	return &TreeBuilder{
		tab: tab,
	}
}

func (b *TreeBuilder) Shift(tok *Token) {
	b.nodes = append(b.nodes, &Node{
		Kind:     b.tab.TerminalName(tok.Terminal),
		Terminal: true,
		Text:     string(tok.Lexeme),
		Row:      tok.Row,
		Col:      tok.Col,
	})
}

func (b *TreeBuilder) Reduce(prod int) {
	lhs, n := b.tab.LHS(prod)
	rest := len(b.nodes) - n
	node := &Node{
		Kind: b.tab.NonTerminalName(lhs),
	}
	if n > 0 {
		node.Children = append([]*Node(nil), b.nodes[rest:]...)
	}
	b.nodes = append(b.nodes[:rest], node)
}

func (b *TreeBuilder) Accept() {
	b.root = b.nodes[len(b.nodes)-1]
}

// Tree returns nil until the parser accepts its input.
func (b *TreeBuilder) Tree() *Node {
	return b.root
}

// PrintTree writes a tree with one node per line, drawing the edges with box-drawing characters.
func PrintTree(w io.Writer, root *Node) error {
	var walk func(n *Node, head, indent string) error
	walk = func(n *Node, head, indent string) error {
		label := n.Kind
		if n.Terminal {
			label += " " + strconv.Quote(n.Text)
		}
		if _, err := fmt.Fprintf(w, "%v%v\n", head, label); err != nil {
			return err
		}
		for i, c := range n.Children {
			branch, next := "├─ ", "│  "
			if i == len(n.Children)-1 {
				branch, next = "└─ ", "   "
			}
			if err := walk(c, indent+branch, indent+next); err != nil {
				return err
			}
		}
		return nil
	}
	if root == nil {
		return nil
	}
	return walk(root, "", "")
}
