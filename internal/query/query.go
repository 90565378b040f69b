// Package query filters JSON documents with jq expressions.
package query

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"

	"github.com/deploymenttheory/go-workflow-composer/internal/errors"
)

// Compile parses and compiles a jq expression
func Compile(expression string) (*gojq.Code, error) {
	q, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid jq expression: %v", errors.ErrInvalidArgument, err)
	}
	code, err := gojq.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("%w: jq compilation failed: %v", errors.ErrInvalidArgument, err)
	}
	return code, nil
}

// Apply runs expression against v and returns every result. v is
// normalised through JSON first, so structs and typed maps are accepted.
func Apply(ctx context.Context, expression string, v interface{}) ([]interface{}, error) {
	code, err := Compile(expression)
	if err != nil {
		return nil, err
	}

	input, err := normalise(v)
	if err != nil {
		return nil, err
	}

	var results []interface{}
	iter := code.RunWithContext(ctx, input)
	for {
		out, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := out.(error); isErr {
			if haltErr, ok := err.(*gojq.HaltError); ok && haltErr.Value() == nil {
				break
			}
			return nil, fmt.Errorf("jq: %w", err)
		}
		results = append(results, out)
	}
	return results, nil
}

// Marshal renders query results one per line, strings unquoted as jq -r does
func Marshal(results []interface{}, raw bool) ([]byte, error) {
	var out []byte
	for _, r := range results {
		if s, ok := r.(string); ok && raw {
			out = append(out, s...)
			out = append(out, '\n')
			continue
		}
		b, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
		out = append(out, '\n')
	}
	return out, nil
}

func normalise(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidArgument, err)
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidArgument, err)
	}
	return out, nil
}
