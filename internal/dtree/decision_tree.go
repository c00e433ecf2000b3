// Package dtree compiles match expressions into decision trees. It is the
// external collaborator the Match inference rule invokes once a match's
// patterns are known to be well typed.
package dtree

import (
	"fmt"

	"github.com/JohnathanFL/ante/internal/ast"
	"github.com/JohnathanFL/ante/internal/cache"
	"github.com/JohnathanFL/ante/internal/token"
	"github.com/JohnathanFL/ante/internal/types"
)

// DecisionTree is a compiled pattern match.
type DecisionTree interface {
	isDecisionTree()
	String() string
}

// LeafNode selects one match arm.
type LeafNode struct {
	ArmIndex int
	Bindings []cache.DefinitionInfoId // variables the arm's pattern binds
}

func (l *LeafNode) isDecisionTree() {}
func (l *LeafNode) String() string  { return fmt.Sprintf("Leaf(arm=%d)", l.ArmIndex) }

// FailNode marks a reachable missing case.
type FailNode struct{}

func (f *FailNode) isDecisionTree() {}
func (f *FailNode) String() string  { return "Fail" }

// caseKey discriminates switch cases: a literal value or the pair
// constructor.
type caseKey struct {
	kind    ast.LiteralKind
	intVal  int64
	boolVal bool
	charVal rune
	strVal  string
	isPair  bool
}

// SwitchNode tests the value at Path against each case.
type SwitchNode struct {
	Path    []int
	Cases   map[caseKey]DecisionTree
	Default DecisionTree
}

func (s *SwitchNode) isDecisionTree() {}
func (s *SwitchNode) String() string {
	return fmt.Sprintf("Switch(path=%v, cases=%d, default=%v)", s.Path, len(s.Cases), s.Default != nil)
}

// Checker is the slice of the inference engine the tree needs while typing
// the values its switches destructure.
type Checker interface {
	Unify(actual, expected types.Type, pos token.Pos, errorKind cache.TypeErrorKind)
	Fresh() types.Type
}

// Tree is a compiled match: the root node plus the source branches.
type Tree struct {
	Root     DecisionTree
	branches []ast.MatchBranch
}

// Compile builds a decision tree for a match whose patterns type checked.
func Compile(match *ast.Match, c *cache.ModuleCache) *Tree {
	var matrix []matchRow
	for i, branch := range match.Branches {
		matrix = append(matrix, matchRow{
			patterns: []ast.Node{branch.Pattern},
			armIndex: i,
		})
	}
	tree := &Tree{branches: match.Branches}
	tree.Root = compileMatrix(matrix, nil, c)

	if containsFail(tree.Root) {
		c.PushDiagnostic(match.Locate(), cache.DiagMissingMatchCase, describeMissing(tree.Root))
	}
	return tree
}

type matchRow struct {
	patterns []ast.Node
	armIndex int
	bindings []cache.DefinitionInfoId
}

func compileMatrix(matrix []matchRow, path []int, c *cache.ModuleCache) DecisionTree {
	if len(matrix) == 0 {
		return &FailNode{}
	}

	// A row whose every column is irrefutable wins immediately.
	first := matrix[0]
	column := -1
	for i, pattern := range first.patterns {
		if !isIrrefutable(pattern) {
			column = i
			break
		}
	}
	if column < 0 {
		bindings := first.bindings
		for _, pattern := range first.patterns {
			bindings = append(bindings, patternBindings(pattern)...)
		}
		return &LeafNode{ArmIndex: first.armIndex, Bindings: bindings}
	}

	columnPath := append(append([]int{}, path...), column)
	node := &SwitchNode{Path: columnPath, Cases: make(map[caseKey]DecisionTree)}

	keys := make([]caseKey, 0)
	for _, row := range matrix {
		if key, ok := keyOf(row.patterns[column]); ok {
			if _, seen := node.Cases[key]; !seen {
				node.Cases[key] = nil
				keys = append(keys, key)
			}
		}
	}

	for _, key := range keys {
		node.Cases[key] = compileMatrix(specializeRows(matrix, column, key), columnPath, c)
	}

	node.Default = compileMatrix(defaultRows(matrix, column), columnPath, c)

	// Bool switches with both constructors and pair switches (a single
	// constructor product) are exhaustive without a default.
	exhaustive := (len(keys) == 2 && keys[0].kind == ast.BoolLit && keys[1].kind == ast.BoolLit) ||
		(len(keys) == 1 && keys[0].isPair)
	if exhaustive {
		if _, isFail := node.Default.(*FailNode); isFail {
			node.Default = nil
		}
	}

	return node
}

// specializeRows keeps the rows compatible with the chosen case, expanding
// pair sub-patterns into new columns.
func specializeRows(matrix []matchRow, column int, key caseKey) []matchRow {
	var rows []matchRow
	for _, row := range matrix {
		pattern := row.patterns[column]
		rowKey, refutable := keyOf(pattern)
		switch {
		case !refutable:
			// Irrefutable patterns match every case.
			replaced := replaceColumn(row, column, irrefutableExpansion(pattern, key))
			rows = append(rows, replaced)
		case rowKey == key:
			if key.isPair {
				call := unwrapPattern(pattern).(*ast.FunctionCall)
				rows = append(rows, replaceColumn(row, column, call.Args))
			} else {
				rows = append(rows, replaceColumn(row, column, nil))
			}
		}
	}
	return rows
}

func defaultRows(matrix []matchRow, column int) []matchRow {
	var rows []matchRow
	for _, row := range matrix {
		if _, refutable := keyOf(row.patterns[column]); !refutable {
			rows = append(rows, replaceColumn(row, column, nil))
		}
	}
	return rows
}

func replaceColumn(row matchRow, column int, expansion []ast.Node) matchRow {
	pattern := row.patterns[column]
	patterns := make([]ast.Node, 0, len(row.patterns)-1+len(expansion))
	patterns = append(patterns, row.patterns[:column]...)
	patterns = append(patterns, expansion...)
	patterns = append(patterns, row.patterns[column+1:]...)

	bindings := append([]cache.DefinitionInfoId{}, row.bindings...)
	if isIrrefutable(pattern) || len(expansion) == 0 {
		bindings = append(bindings, patternBindings(pattern)...)
	}
	return matchRow{patterns: patterns, armIndex: row.armIndex, bindings: bindings}
}

// irrefutableExpansion pads an irrefutable pattern to the width the case
// key expands to (two columns for pairs, none otherwise).
func irrefutableExpansion(pattern ast.Node, key caseKey) []ast.Node {
	if !key.isPair {
		return nil
	}
	pos := pattern.Locate()
	return []ast.Node{anyPattern(pos), anyPattern(pos)}
}

// anyPattern is a wildcard placeholder introduced while expanding columns.
func anyPattern(pos token.Pos) ast.Node {
	return &ast.Literal{NodeBase: ast.NodeBase{Loc: pos}, Kind: UnitWildcard}
}

// UnitWildcard marks placeholder wildcards; it never appears in source.
const UnitWildcard ast.LiteralKind = -1

func isIrrefutable(pattern ast.Node) bool {
	switch p := unwrapPattern(pattern).(type) {
	case *ast.Variable:
		return true
	case *ast.Literal:
		return p.Kind == UnitWildcard || p.Kind == ast.UnitLit
	default:
		return false
	}
}

func unwrapPattern(pattern ast.Node) ast.Node {
	for {
		annotation, ok := pattern.(*ast.TypeAnnotation)
		if !ok {
			return pattern
		}
		pattern = annotation.Lhs
	}
}

func keyOf(pattern ast.Node) (caseKey, bool) {
	switch p := unwrapPattern(pattern).(type) {
	case *ast.Literal:
		switch p.Kind {
		case ast.IntegerLit:
			return caseKey{kind: ast.IntegerLit, intVal: p.Int}, true
		case ast.BoolLit:
			return caseKey{kind: ast.BoolLit, boolVal: p.Bool}, true
		case ast.CharLit:
			return caseKey{kind: ast.CharLit, charVal: p.Char}, true
		case ast.StringLit:
			return caseKey{kind: ast.StringLit, strVal: p.Str}, true
		default:
			return caseKey{}, false
		}
	case *ast.FunctionCall:
		if p.IsPairCtor {
			return caseKey{isPair: true}, true
		}
		return caseKey{}, false
	default:
		return caseKey{}, false
	}
}

func patternBindings(pattern ast.Node) []cache.DefinitionInfoId {
	var bindings []cache.DefinitionInfoId
	ast.Walk(pattern, func(n ast.Node) bool {
		if v, ok := n.(*ast.Variable); ok {
			bindings = append(bindings, v.Definition)
		}
		return true
	})
	return bindings
}

func containsFail(tree DecisionTree) bool {
	switch t := tree.(type) {
	case *FailNode:
		return true
	case *SwitchNode:
		for _, subtree := range t.Cases {
			if containsFail(subtree) {
				return true
			}
		}
		return t.Default != nil && containsFail(t.Default)
	default:
		return false
	}
}

func describeMissing(tree DecisionTree) string {
	switch t := tree.(type) {
	case *FailNode:
		return "a remaining value"
	case *SwitchNode:
		if t.Default != nil {
			if _, ok := t.Default.(*FailNode); ok {
				return "values not covered by any literal case"
			}
		}
		for _, subtree := range t.Cases {
			if containsFail(subtree) {
				return describeMissing(subtree)
			}
		}
		if t.Default != nil {
			return describeMissing(t.Default)
		}
	}
	return "a remaining value"
}

// Infer types the intermediate values a tree's switches destructure: each
// pair switch splits its scrutinee into two fresh element types.
func (t *Tree) Infer(scrutinee types.Type, pos token.Pos, checker Checker, c *cache.ModuleCache) {
	t.inferNode(t.Root, scrutinee, pos, checker, c)
}

func (t *Tree) inferNode(node DecisionTree, scrutinee types.Type, pos token.Pos,
	checker Checker, c *cache.ModuleCache) {

	sw, ok := node.(*SwitchNode)
	if !ok {
		return
	}
	for key, subtree := range sw.Cases {
		if key.isPair {
			first := checker.Fresh()
			second := checker.Fresh()
			pairType := types.Pair(c.PairTypeId(), first, second)
			checker.Unify(pairType, scrutinee, pos, cache.MatchPatternTypeDiffers)
		}
		t.inferNode(subtree, scrutinee, pos, checker, c)
	}
	if sw.Default != nil {
		t.inferNode(sw.Default, scrutinee, pos, checker, c)
	}
}
