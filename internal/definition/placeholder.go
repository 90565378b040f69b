package definition

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"

	errors "github.com/deploymenttheory/go-workflow-composer/internal/errors"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// pathPattern matches a bare identifier or dotted member path
var pathPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// Placeholder is one {{...}} occurrence inside a block field
type Placeholder struct {
	// Raw is the placeholder as written, braces included
	Raw string

	// Expr is the trimmed text between the braces
	Expr string

	// Field is where the placeholder was found, e.g. "data.url" or "condition"
	Field string
}

// Reference is a name a placeholder expression depends on, with the member
// path selected from it. "{{scan_output.items}}" yields
// Reference{Root: "scan_output", Path: ["items"]}.
type Reference struct {
	Root string
	Path []string
}

// String returns the dotted form of the reference
func (r Reference) String() string {
	return strings.Join(append([]string{r.Root}, r.Path...), ".")
}

// ScanString returns every placeholder in s in order of appearance.
// Unterminated, nested or empty placeholders fail with a ReferenceError.
func ScanString(s string) ([]Placeholder, error) {
	var found []Placeholder
	rest := s
	for {
		start := strings.Index(rest, openDelim)
		if start < 0 {
			return found, nil
		}
		body := rest[start+len(openDelim):]
		end := strings.Index(body, closeDelim)
		if end < 0 {
			return nil, &errors.ReferenceError{
				Placeholder: rest[start:],
				Message:     "unterminated placeholder",
			}
		}
		inner := body[:end]
		raw := openDelim + inner + closeDelim
		if strings.Contains(inner, openDelim) {
			return nil, &errors.ReferenceError{Placeholder: raw, Message: "nested placeholder"}
		}
		if strings.TrimSpace(inner) == "" {
			return nil, &errors.ReferenceError{Placeholder: raw, Message: "empty placeholder"}
		}
		found = append(found, Placeholder{Raw: raw, Expr: strings.TrimSpace(inner)})
		rest = body[end+len(closeDelim):]
	}
}

// ScanBlock returns the placeholders found in a block's data payload and
// condition. Loop bodies are not included.
func ScanBlock(b Block) ([]Placeholder, error) {
	generic, err := toGeneric(b.payload())
	if err != nil {
		return nil, &errors.SchemaError{
			Block:   b.Meta().Name,
			Field:   "data",
			Message: fmt.Sprintf("payload is not representable as JSON: %v", err),
		}
	}

	var found []Placeholder
	if err := scanValue("data", generic, &found); err != nil {
		return nil, err
	}
	if cond := b.Meta().Condition; cond != "" {
		if err := scanValue("condition", cond, &found); err != nil {
			return nil, err
		}
	}
	return found, nil
}

func scanValue(field string, v interface{}, found *[]Placeholder) error {
	switch val := v.(type) {
	case string:
		tokens, err := ScanString(val)
		if err != nil {
			return err
		}
		for _, t := range tokens {
			t.Field = field
			*found = append(*found, t)
		}
	case map[string]interface{}:
		for _, k := range sortedKeys(val) {
			if err := scanValue(field+"."+k, k, found); err != nil {
				return err
			}
			if err := scanValue(field+"."+k, val[k], found); err != nil {
				return err
			}
		}
	case []interface{}:
		for i, item := range val {
			if err := scanValue(fmt.Sprintf("%s[%d]", field, i), item, found); err != nil {
				return err
			}
		}
	}
	return nil
}

// References returns the names the placeholder depends on. A plain dotted
// path such as "scan_output.items" is taken literally, so parameter keys
// that happen to be expression keywords still resolve. Anything else is
// parsed as an expression; function names are not references. A
// syntactically invalid expression, or one that references nothing, fails
// with a ReferenceError.
func (p Placeholder) References() ([]Reference, error) {
	if pathPattern.MatchString(p.Expr) {
		parts := strings.Split(p.Expr, ".")
		return []Reference{{Root: parts[0], Path: parts[1:]}}, nil
	}

	tree, err := parser.Parse(p.Expr)
	if err != nil {
		return nil, &errors.ReferenceError{
			Placeholder: p.Raw,
			Message:     fmt.Sprintf("malformed expression: %v", err),
		}
	}

	c := &referenceCollector{
		chains:  make(map[ast.Node]Reference),
		rooted:  make(map[*ast.IdentifierNode]bool),
		callees: make(map[*ast.IdentifierNode]bool),
	}
	ast.Walk(&tree.Node, c)

	refs := c.references()
	if len(refs) == 0 {
		return nil, &errors.ReferenceError{
			Placeholder: p.Raw,
			Message:     "placeholder does not reference a parameter, loop variable or block output",
		}
	}
	return refs, nil
}

// referenceCollector gathers identifier roots and member chains. ast.Walk
// visits children before parents, so inner chains are replaced by the
// enclosing chain when it is visited.
type referenceCollector struct {
	idents  []*ast.IdentifierNode
	order   []ast.Node
	chains  map[ast.Node]Reference
	rooted  map[*ast.IdentifierNode]bool
	callees map[*ast.IdentifierNode]bool
}

func (c *referenceCollector) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IdentifierNode:
		c.idents = append(c.idents, n)
	case *ast.CallNode:
		if id, ok := n.Callee.(*ast.IdentifierNode); ok {
			c.callees[id] = true
		}
	case *ast.MemberNode:
		if inner, ok := n.Node.(*ast.MemberNode); ok {
			delete(c.chains, inner)
		}
		root, path, ok := memberChain(n)
		if !ok {
			return
		}
		c.rooted[root] = true
		c.chains[n] = Reference{Root: root.Value, Path: path}
		c.order = append(c.order, n)
	}
}

func (c *referenceCollector) references() []Reference {
	var refs []Reference
	for _, n := range c.order {
		if ref, ok := c.chains[n]; ok {
			refs = append(refs, ref)
		}
	}
	for _, id := range c.idents {
		if c.rooted[id] || c.callees[id] {
			continue
		}
		refs = append(refs, Reference{Root: id.Value})
	}
	return refs
}

// memberChain unwinds a.b.c into its root identifier and path
func memberChain(n *ast.MemberNode) (*ast.IdentifierNode, []string, bool) {
	var path []string
	var cur ast.Node = n
	for {
		switch m := cur.(type) {
		case *ast.MemberNode:
			path = append([]string{propertyName(m.Property)}, path...)
			cur = m.Node
		case *ast.IdentifierNode:
			return m, path, true
		default:
			return nil, nil, false
		}
	}
}

func propertyName(n ast.Node) string {
	switch p := n.(type) {
	case *ast.StringNode:
		return p.Value
	case *ast.IntegerNode:
		return fmt.Sprintf("[%d]", p.Value)
	default:
		return "*"
	}
}

// toGeneric converts a payload struct into plain JSON values
func toGeneric(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
