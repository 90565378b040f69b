package definition

import (
	"bytes"
	"encoding/json"
	"fmt"

	errors "github.com/deploymenttheory/go-workflow-composer/internal/errors"
)

// Parameter is a named, defaulted input referenced as {{key}} inside blocks
type Parameter struct {
	Key          string `json:"key"`
	Description  string `json:"description"`
	DefaultValue string `json:"default_value"`
}

// Document is the workflow definition submitted to the workflow service
type Document struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
	Blocks      []Block     `json:"blocks"`
}

// Parameter returns the parameter with the given key
func (d *Document) Parameter(key string) (Parameter, bool) {
	for _, p := range d.Parameters {
		if p.Key == key {
			return p, true
		}
	}
	return Parameter{}, false
}

// Find returns the block with the given name, searching loop bodies too
func (d *Document) Find(name string) (Block, bool) {
	for _, b := range Flatten(d.Blocks) {
		if b.Meta().Name == name {
			return b, true
		}
	}
	return nil, false
}

// MarshalJSON keeps empty parameter and block lists as [] rather than null
func (d Document) MarshalJSON() ([]byte, error) {
	type plain Document
	out := plain(d)
	if out.Parameters == nil {
		out.Parameters = []Parameter{}
	}
	if out.Blocks == nil {
		out.Blocks = []Block{}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a document, constructing a typed block per entry
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title       string            `json:"title"`
		Description string            `json:"description"`
		Parameters  []Parameter       `json:"parameters"`
		Blocks      []json.RawMessage `json:"blocks"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	blocks, err := decodeBlocks(raw.Blocks)
	if err != nil {
		return err
	}

	*d = Document{
		Title:       raw.Title,
		Description: raw.Description,
		Parameters:  raw.Parameters,
		Blocks:      blocks,
	}
	return nil
}

func decodeBlocks(raws []json.RawMessage) ([]Block, error) {
	if raws == nil {
		return nil, nil
	}
	blocks := make([]Block, 0, len(raws))
	for _, raw := range raws {
		b, err := DecodeBlock(raw)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

// DecodeBlock constructs a typed block from its wire form. Unknown kinds,
// unknown payload fields, and child blocks on anything but a for_loop fail
// with a SchemaError.
func DecodeBlock(data []byte) (Block, error) {
	var env struct {
		BlockType BlockType `json:"block_type"`
		BlockMeta
		Data   json.RawMessage   `json:"data"`
		Blocks []json.RawMessage `json:"blocks"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &errors.SchemaError{Message: fmt.Sprintf("malformed block: %v", err)}
	}

	if !env.BlockType.Valid() {
		return nil, &errors.SchemaError{
			Block:   env.Name,
			Field:   "block_type",
			Message: fmt.Sprintf("unrecognized block type %q", env.BlockType),
		}
	}

	if env.BlockType != BlockTypeForLoop && len(env.Blocks) > 0 {
		return nil, &errors.SchemaError{
			Block:   env.Name,
			Field:   "blocks",
			Message: fmt.Sprintf("%s blocks cannot contain child blocks", env.BlockType),
		}
	}

	var (
		block  Block
		target interface{}
	)
	switch env.BlockType {
	case BlockTypeNavigation:
		b := &NavigationBlock{BlockMeta: env.BlockMeta}
		block, target = b, &b.Data
	case BlockTypeLogin:
		b := &LoginBlock{BlockMeta: env.BlockMeta}
		block, target = b, &b.Data
	case BlockTypeTask:
		b := &TaskBlock{BlockMeta: env.BlockMeta}
		block, target = b, &b.Data
	case BlockTypeValidation:
		b := &ValidationBlock{BlockMeta: env.BlockMeta}
		block, target = b, &b.Data
	case BlockTypeForLoop:
		b := &ForLoopBlock{BlockMeta: env.BlockMeta}
		children, err := decodeBlocks(env.Blocks)
		if err != nil {
			return nil, err
		}
		b.Blocks = children
		block, target = b, &b.Data
	case BlockTypeWait:
		b := &WaitBlock{BlockMeta: env.BlockMeta}
		block, target = b, &b.Data
	}

	if len(env.Data) == 0 || bytes.Equal(bytes.TrimSpace(env.Data), []byte("null")) {
		return nil, &errors.SchemaError{Block: env.Name, Field: "data", Message: "data payload is required"}
	}

	dec := json.NewDecoder(bytes.NewReader(env.Data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return nil, &errors.SchemaError{
			Block:   env.Name,
			Field:   "data",
			Message: fmt.Sprintf("invalid %s payload: %v", env.BlockType, err),
		}
	}

	return block, nil
}
