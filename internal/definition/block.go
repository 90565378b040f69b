package definition

import (
	"encoding/json"
)

// BlockType identifies the kind of a block
type BlockType string

const (
	BlockTypeNavigation BlockType = "navigation"
	BlockTypeLogin      BlockType = "login"
	BlockTypeTask       BlockType = "task"
	BlockTypeValidation BlockType = "validation"
	BlockTypeForLoop    BlockType = "for_loop"
	BlockTypeWait       BlockType = "wait"
)

// BlockTypes lists every recognized block kind
var BlockTypes = []BlockType{
	BlockTypeNavigation,
	BlockTypeLogin,
	BlockTypeTask,
	BlockTypeValidation,
	BlockTypeForLoop,
	BlockTypeWait,
}

// Valid reports whether t is a recognized block kind
func (t BlockType) Valid() bool {
	for _, known := range BlockTypes {
		if t == known {
			return true
		}
	}
	return false
}

// BlockMeta holds the fields every block kind shares
type BlockMeta struct {
	// Unique name across the whole document; later blocks address this
	// block's output as {{<name>_output.<field>}}
	Name string `json:"name"`

	// Display name
	Label string `json:"label,omitempty"`

	// Optional human-readable description
	Description string `json:"description,omitempty"`

	// Optional guard evaluated by the execution engine; the block is
	// skipped when it is false
	Condition string `json:"condition,omitempty"`
}

// Block is one step of a workflow document. The set of implementations is
// closed: NavigationBlock, LoginBlock, TaskBlock, ValidationBlock,
// ForLoopBlock and WaitBlock. Only ForLoopBlock carries child blocks.
type Block interface {
	Type() BlockType
	Meta() BlockMeta

	// payload returns the kind-specific data object
	payload() interface{}

	// checkPayload returns the structural problems of the payload
	checkPayload() []error
}

// NavigationBlock loads a URL and judges success by its criteria
type NavigationBlock struct {
	BlockMeta
	Data NavigationData
}

// LoginBlock signs in with credential placeholders
type LoginBlock struct {
	BlockMeta
	Data LoginData
}

// TaskBlock performs an open-ended instructed action with optional extraction
type TaskBlock struct {
	BlockMeta
	Data TaskData
}

// ValidationBlock inspects page state and emits a value matching its schema
type ValidationBlock struct {
	BlockMeta
	Data ValidationData
}

// ForLoopBlock runs its child blocks once per element of LoopOver
type ForLoopBlock struct {
	BlockMeta
	Data   ForLoopData
	Blocks []Block
}

// WaitBlock pauses execution
type WaitBlock struct {
	BlockMeta
	Data WaitData
}

func (b *NavigationBlock) Type() BlockType { return BlockTypeNavigation }
func (b *LoginBlock) Type() BlockType      { return BlockTypeLogin }
func (b *TaskBlock) Type() BlockType       { return BlockTypeTask }
func (b *ValidationBlock) Type() BlockType { return BlockTypeValidation }
func (b *ForLoopBlock) Type() BlockType    { return BlockTypeForLoop }
func (b *WaitBlock) Type() BlockType       { return BlockTypeWait }

func (b *NavigationBlock) Meta() BlockMeta { return b.BlockMeta }
func (b *LoginBlock) Meta() BlockMeta      { return b.BlockMeta }
func (b *TaskBlock) Meta() BlockMeta       { return b.BlockMeta }
func (b *ValidationBlock) Meta() BlockMeta { return b.BlockMeta }
func (b *ForLoopBlock) Meta() BlockMeta    { return b.BlockMeta }
func (b *WaitBlock) Meta() BlockMeta       { return b.BlockMeta }

func (b *NavigationBlock) payload() interface{} { return b.Data }
func (b *LoginBlock) payload() interface{}      { return b.Data }
func (b *TaskBlock) payload() interface{}       { return b.Data }
func (b *ValidationBlock) payload() interface{} { return b.Data }
func (b *ForLoopBlock) payload() interface{}    { return b.Data }
func (b *WaitBlock) payload() interface{}       { return b.Data }

// wireBlock is the JSON shape the workflow service expects for every block
type wireBlock struct {
	BlockType BlockType `json:"block_type"`
	BlockMeta
	Data   interface{} `json:"data"`
	Blocks []Block     `json:"blocks,omitempty"`
}

func marshalBlock(b Block, children []Block) ([]byte, error) {
	return json.Marshal(wireBlock{
		BlockType: b.Type(),
		BlockMeta: b.Meta(),
		Data:      b.payload(),
		Blocks:    children,
	})
}

// MarshalJSON encodes the block in the service wire format
func (b *NavigationBlock) MarshalJSON() ([]byte, error) { return marshalBlock(b, nil) }

// MarshalJSON encodes the block in the service wire format
func (b *LoginBlock) MarshalJSON() ([]byte, error) { return marshalBlock(b, nil) }

// MarshalJSON encodes the block in the service wire format
func (b *TaskBlock) MarshalJSON() ([]byte, error) { return marshalBlock(b, nil) }

// MarshalJSON encodes the block in the service wire format
func (b *ValidationBlock) MarshalJSON() ([]byte, error) { return marshalBlock(b, nil) }

// MarshalJSON encodes the loop and its child blocks in the service wire format
func (b *ForLoopBlock) MarshalJSON() ([]byte, error) {
	children := b.Blocks
	if children == nil {
		children = []Block{}
	}
	return json.Marshal(struct {
		BlockType BlockType `json:"block_type"`
		BlockMeta
		Data   ForLoopData `json:"data"`
		Blocks []Block     `json:"blocks"`
	}{
		BlockType: b.Type(),
		BlockMeta: b.BlockMeta,
		Data:      b.Data,
		Blocks:    children,
	})
}

// MarshalJSON encodes the block in the service wire format
func (b *WaitBlock) MarshalJSON() ([]byte, error) { return marshalBlock(b, nil) }

// Children returns the child blocks of b, nil for every kind but for_loop
func Children(b Block) []Block {
	if loop, ok := b.(*ForLoopBlock); ok && loop != nil {
		return loop.Blocks
	}
	return nil
}

// isNil reports whether b is nil or a nil pointer of one of the block kinds
func isNil(b Block) bool {
	switch v := b.(type) {
	case nil:
		return true
	case *NavigationBlock:
		return v == nil
	case *LoginBlock:
		return v == nil
	case *TaskBlock:
		return v == nil
	case *ValidationBlock:
		return v == nil
	case *ForLoopBlock:
		return v == nil
	case *WaitBlock:
		return v == nil
	}
	return false
}

// Flatten returns blocks and all nested loop bodies in document order.
// Loop bodies appear once, as templates, directly after their loop block.
// Nil blocks are skipped.
func Flatten(blocks []Block) []Block {
	var flat []Block
	for _, b := range blocks {
		if isNil(b) {
			continue
		}
		flat = append(flat, b)
		flat = append(flat, Flatten(Children(b))...)
	}
	return flat
}
