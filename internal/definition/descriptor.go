package definition

import (
	"encoding/json"
	"fmt"

	errors "github.com/deploymenttheory/go-workflow-composer/internal/errors"
)

// Descriptor is a loosely typed block description, as a caller or a
// definition file supplies it. Block converts it into a typed block.
type Descriptor struct {
	BlockType   BlockType              `json:"block_type"`
	Name        string                 `json:"name"`
	Label       string                 `json:"label,omitempty"`
	Description string                 `json:"description,omitempty"`
	Condition   string                 `json:"condition,omitempty"`
	Data        map[string]interface{} `json:"data"`
	Blocks      []Descriptor           `json:"blocks,omitempty"`
}

// Block constructs the typed block the descriptor describes
func (d Descriptor) Block() (Block, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, &errors.SchemaError{
			Block:   d.Name,
			Field:   "data",
			Message: fmt.Sprintf("payload is not representable as JSON: %v", err),
		}
	}
	return DecodeBlock(raw)
}
