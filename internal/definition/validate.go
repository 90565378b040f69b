package definition

import (
	"fmt"
	"regexp"
	"strings"

	errors "github.com/deploymenttheory/go-workflow-composer/internal/errors"
)

// identifierPattern constrains parameter keys, block names and loop variables
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateDocument validates the document structure, names and placeholder
// references. It returns every problem found; an empty result means the
// document is valid.
func ValidateDocument(doc *Document) []error {
	if doc == nil {
		return []error{&errors.SchemaError{Message: "document is nil"}}
	}

	var errs []error

	// Validate required fields
	if strings.TrimSpace(doc.Title) == "" {
		errs = append(errs, &errors.SchemaError{Field: "title", Message: "workflow title is required"})
	}
	if len(doc.Blocks) == 0 {
		errs = append(errs, &errors.SchemaError{Field: "blocks", Message: "workflow must contain at least one block"})
	}

	errs = append(errs, validateParameters(doc.Parameters)...)

	structural := validateBlockStructure(doc.Blocks)
	errs = append(errs, structural...)

	// Reference checks assume well-formed blocks
	if len(structural) == 0 {
		errs = append(errs, validateNames(doc.Blocks)...)
		s := newScope(doc)
		errs = append(errs, validateReferences(doc.Blocks, s)...)
	}

	return errs
}

func validateParameters(params []Parameter) []error {
	var errs []error
	seen := make(map[string]bool)
	for i, p := range params {
		if !identifierPattern.MatchString(p.Key) {
			errs = append(errs, &errors.SchemaError{
				Field:   fmt.Sprintf("parameters[%d].key", i),
				Message: fmt.Sprintf("parameter key %q must match %s", p.Key, identifierPattern.String()),
			})
			continue
		}
		if seen[p.Key] {
			errs = append(errs, &errors.ReferenceError{
				Message: fmt.Sprintf("duplicate parameter key %q", p.Key),
			})
			continue
		}
		seen[p.Key] = true
	}
	return errs
}

// validateBlockStructure checks names and per-kind payloads, recursing into loop bodies
func validateBlockStructure(blocks []Block) []error {
	var errs []error
	for i, b := range blocks {
		if isNil(b) {
			errs = append(errs, &errors.SchemaError{
				Field:   fmt.Sprintf("blocks[%d]", i),
				Message: "block is nil",
			})
			continue
		}

		meta := b.Meta()
		if !identifierPattern.MatchString(meta.Name) {
			errs = append(errs, &errors.SchemaError{
				Block:   meta.Name,
				Field:   "name",
				Message: fmt.Sprintf("block name %q must match %s", meta.Name, identifierPattern.String()),
			})
		}
		if !b.Type().Valid() {
			errs = append(errs, &errors.SchemaError{
				Block:   meta.Name,
				Field:   "block_type",
				Message: fmt.Sprintf("unrecognized block type %q", b.Type()),
			})
			continue
		}
		if meta.Condition != "" && strings.TrimSpace(meta.Condition) == "" {
			errs = append(errs, &errors.SchemaError{
				Block:   meta.Name,
				Field:   "condition",
				Message: "condition must not be blank",
			})
		}

		errs = append(errs, b.checkPayload()...)

		if loop, ok := b.(*ForLoopBlock); ok {
			if len(loop.Blocks) == 0 {
				errs = append(errs, &errors.SchemaError{
					Block:   meta.Name,
					Field:   "blocks",
					Message: "for_loop must contain at least one child block",
				})
			}
			errs = append(errs, validateBlockStructure(loop.Blocks)...)
		}
	}
	return errs
}

// validateNames enforces one namespace for every block in the document
func validateNames(blocks []Block) []error {
	var errs []error
	seen := make(map[string]bool)
	for _, b := range Flatten(blocks) {
		name := b.Meta().Name
		if seen[name] {
			errs = append(errs, &errors.ReferenceError{
				Block:   name,
				Message: fmt.Sprintf("duplicate block name %q", name),
			})
			continue
		}
		seen[name] = true
	}
	return errs
}

// validateReferences walks blocks in execution order, resolving each
// placeholder against the names visible at that point
func validateReferences(blocks []Block, s *scope) []error {
	var errs []error
	for _, b := range blocks {
		name := b.Meta().Name
		errs = append(errs, checkPlaceholders(b, s)...)

		if loop, ok := b.(*ForLoopBlock); ok {
			v := loop.Data.LoopVariable
			switch {
			case s.params[v]:
				errs = append(errs, &errors.ReferenceError{
					Block:   name,
					Message: fmt.Sprintf("loop variable %q shadows a parameter", v),
				})
			case s.isLoopVar(v):
				errs = append(errs, &errors.ReferenceError{
					Block:   name,
					Message: fmt.Sprintf("loop variable %q shadows an enclosing loop variable", v),
				})
			}
			s.pushLoopVar(v)
			errs = append(errs, validateReferences(loop.Blocks, s)...)
			s.popLoopVar()
		}

		s.complete(name)
	}
	return errs
}

func checkPlaceholders(b Block, s *scope) []error {
	name := b.Meta().Name

	placeholders, err := ScanBlock(b)
	if err != nil {
		return []error{withBlock(err, name)}
	}

	var errs []error
	for _, p := range placeholders {
		refs, err := p.References()
		if err != nil {
			errs = append(errs, withBlock(err, name))
			continue
		}
		for _, ref := range refs {
			if reason := s.resolve(ref); reason != "" {
				errs = append(errs, &errors.ReferenceError{
					Block:       name,
					Placeholder: p.Raw,
					Message:     fmt.Sprintf("%s (in %s)", reason, p.Field),
				})
			}
		}
	}
	return errs
}

// withBlock attaches the block name to scanner errors
func withBlock(err error, block string) error {
	var refErr *errors.ReferenceError
	if errors.As(err, &refErr) && refErr.Block == "" {
		refErr.Block = block
	}
	var schemaErr *errors.SchemaError
	if errors.As(err, &schemaErr) && schemaErr.Block == "" {
		schemaErr.Block = block
	}
	return err
}
