package definition

import (
	"fmt"
	"strings"
)

// outputSuffix marks a reference to a prior block's output, {{<name>_output.<field>}}
const outputSuffix = "_output"

// scope is the symbol table used while walking a document in order.
// Blocks are marked complete after they (and their loop bodies) have been
// checked, so a block can never see its own output or a later block's.
type scope struct {
	params    map[string]bool
	declared  map[string]bool
	completed map[string]bool
	loopVars  []string
}

func newScope(doc *Document) *scope {
	s := &scope{
		params:    make(map[string]bool),
		declared:  make(map[string]bool),
		completed: make(map[string]bool),
	}
	for _, p := range doc.Parameters {
		s.params[p.Key] = true
	}
	for _, b := range Flatten(doc.Blocks) {
		s.declared[b.Meta().Name] = true
	}
	return s
}

func (s *scope) pushLoopVar(name string) {
	s.loopVars = append(s.loopVars, name)
}

func (s *scope) popLoopVar() {
	s.loopVars = s.loopVars[:len(s.loopVars)-1]
}

func (s *scope) isLoopVar(name string) bool {
	for _, v := range s.loopVars {
		if v == name {
			return true
		}
	}
	return false
}

func (s *scope) complete(name string) {
	s.completed[name] = true
}

// resolve returns an empty string when ref resolves, otherwise the reason
func (s *scope) resolve(ref Reference) string {
	if s.params[ref.Root] || s.isLoopVar(ref.Root) {
		return ""
	}

	if strings.HasSuffix(ref.Root, outputSuffix) {
		name := strings.TrimSuffix(ref.Root, outputSuffix)
		switch {
		case s.completed[name] && len(ref.Path) == 0:
			return fmt.Sprintf("output reference %q must select a field, e.g. %s.<field>", ref.Root, ref.Root)
		case s.completed[name]:
			return ""
		case s.declared[name]:
			return fmt.Sprintf("block %q does not complete before this point; only outputs of earlier blocks can be referenced", name)
		}
	}

	return fmt.Sprintf("%q is not a declared parameter, a loop variable in scope, or the output of an earlier block", ref.Root)
}
