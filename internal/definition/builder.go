package definition

import (
	"fmt"

	errors "github.com/deploymenttheory/go-workflow-composer/internal/errors"
)

// Builder assembles a workflow document. Problems are collected as blocks
// are added and reported together by Build.
type Builder struct {
	doc  Document
	errs []error
}

// NewBuilder returns a builder for a document with the given title
func NewBuilder(title, description string) *Builder {
	return &Builder{doc: Document{Title: title, Description: description}}
}

// Parameter declares a defaulted input
func (b *Builder) Parameter(key, description, defaultValue string) *Builder {
	b.doc.Parameters = append(b.doc.Parameters, Parameter{
		Key:          key,
		Description:  description,
		DefaultValue: defaultValue,
	})
	return b
}

// Parameters declares several inputs in order
func (b *Builder) Parameters(params ...Parameter) *Builder {
	b.doc.Parameters = append(b.doc.Parameters, params...)
	return b
}

// Block appends top-level blocks in execution order
func (b *Builder) Block(blocks ...Block) *Builder {
	b.doc.Blocks = append(b.doc.Blocks, blocks...)
	return b
}

// Descriptor appends top-level blocks given in loosely typed form
func (b *Builder) Descriptor(descs ...Descriptor) *Builder {
	for i, d := range descs {
		block, err := d.Block()
		if err != nil {
			b.errs = append(b.errs, fmt.Errorf("descriptor %d: %w", i, err))
			continue
		}
		b.doc.Blocks = append(b.doc.Blocks, block)
	}
	return b
}

// Build validates and returns the document. All problems are returned as
// one joined error; use errors.As to reach individual SchemaError and
// ReferenceError values.
//
// Schemas in the returned document hold plain JSON values (float64,
// []interface{}, map[string]interface{}) and an empty extraction schema is
// nil, so the document equals its own serialized and parsed form. The
// blocks passed to the builder are not modified.
func (b *Builder) Build() (*Document, error) {
	errs := append([]error{}, b.errs...)
	errs = append(errs, ValidateDocument(&b.doc)...)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	blocks, err := normalizeBlocks(b.doc.Blocks)
	if err != nil {
		return nil, err
	}

	doc := b.doc
	doc.Parameters = append([]Parameter(nil), b.doc.Parameters...)
	doc.Blocks = blocks
	return &doc, nil
}

// normalizeBlocks copies blocks whose schemas need converting to plain JSON
// values. Other blocks are shared.
func normalizeBlocks(blocks []Block) ([]Block, error) {
	out := make([]Block, 0, len(blocks))
	for _, blk := range blocks {
		switch v := blk.(type) {
		case *TaskBlock:
			task := *v
			schema, err := normalizeSchema(task.Data.DataExtractionSchema)
			if err != nil {
				return nil, &errors.SchemaError{Block: v.Name, Field: "data.data_extraction_schema", Message: err.Error()}
			}
			task.Data.DataExtractionSchema = schema
			out = append(out, &task)
		case *ValidationBlock:
			validation := *v
			schema, err := normalizeSchema(validation.Data.ValidationSchema)
			if err != nil {
				return nil, &errors.SchemaError{Block: v.Name, Field: "data.validation_schema", Message: err.Error()}
			}
			validation.Data.ValidationSchema = schema
			out = append(out, &validation)
		case *ForLoopBlock:
			loop := *v
			children, err := normalizeBlocks(v.Blocks)
			if err != nil {
				return nil, err
			}
			loop.Blocks = children
			out = append(out, &loop)
		default:
			out = append(out, blk)
		}
	}
	return out, nil
}

// normalizeSchema returns schema as decoded JSON, nil when it is empty
func normalizeSchema(schema map[string]interface{}) (map[string]interface{}, error) {
	if len(schema) == 0 {
		return nil, nil
	}
	generic, err := toGeneric(schema)
	if err != nil {
		return nil, fmt.Errorf("schema is not representable as JSON: %v", err)
	}
	return generic.(map[string]interface{}), nil
}
