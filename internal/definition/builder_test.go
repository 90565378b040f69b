package definition

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errors "github.com/deploymenttheory/go-workflow-composer/internal/errors"
)

func criteria() Criteria {
	return Criteria{CompleteCriterion: "done", TerminateCriterion: "broken"}
}

// loopBuilder returns a builder for a small scan-then-loop workflow
func loopBuilder() *Builder {
	return NewBuilder("Loop", "scan then visit each item").
		Parameter("start_url", "entry page", "https://example.com").
		Parameter("max_items", "loop bound", "5").
		Parameter("delay", "pause between items", "10").
		Block(
			&NavigationBlock{
				BlockMeta: BlockMeta{Name: "open"},
				Data:      NavigationData{NavigationGoal: "open the site", URL: "{{start_url}}", Criteria: criteria()},
			},
			&TaskBlock{
				BlockMeta: BlockMeta{Name: "scan"},
				Data: TaskData{
					NavigationGoal: "list items",
					DataExtractionSchema: map[string]interface{}{
						"items": map[string]interface{}{"type": "array"},
					},
					Criteria: criteria(),
				},
			},
			&ForLoopBlock{
				BlockMeta: BlockMeta{Name: "each_item"},
				Data: ForLoopData{
					LoopOver:      "{{scan_output.items}}",
					LoopVariable:  "item",
					MaxIterations: Ref("max_items"),
				},
				Blocks: []Block{
					&NavigationBlock{
						BlockMeta: BlockMeta{Name: "visit"},
						Data:      NavigationData{NavigationGoal: "visit {{item.url}}", URL: "{{item.url}}", Criteria: criteria()},
					},
					&ValidationBlock{
						BlockMeta: BlockMeta{Name: "check"},
						Data: ValidationData{
							ValidationGoal:   "is it ok",
							ValidationSchema: map[string]interface{}{"ok": map[string]interface{}{"type": "boolean"}},
							Criteria:         criteria(),
						},
					},
					&TaskBlock{
						BlockMeta: BlockMeta{Name: "act", Condition: "{{check_output.ok == true}}"},
						Data:      TaskData{NavigationGoal: "act on {{item.title}}", Criteria: criteria()},
					},
					&WaitBlock{
						BlockMeta: BlockMeta{Name: "pause"},
						Data:      WaitData{WaitSeconds: Ref("delay")},
					},
				},
			},
		)
}

func requireKind(t *testing.T, err error, kind string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, errors.Kind(err), "error: %v", err)
}

func TestBuild_ValidDocument(t *testing.T) {
	doc, err := loopBuilder().Build()
	require.NoError(t, err)

	assert.Equal(t, "Loop", doc.Title)
	assert.Len(t, doc.Parameters, 3)
	assert.Len(t, doc.Blocks, 3)

	loop, ok := doc.Find("each_item")
	require.True(t, ok)
	assert.Len(t, Children(loop), 4)

	p, ok := doc.Parameter("max_items")
	require.True(t, ok)
	assert.Equal(t, "5", p.DefaultValue)
}

func TestBuild_DuplicateParameterKey(t *testing.T) {
	_, err := loopBuilder().Parameter("delay", "again", "1").Build()
	requireKind(t, err, "ReferenceError")
	assert.Contains(t, err.Error(), `duplicate parameter key "delay"`)
}

func TestBuild_DuplicateBlockNameAcrossLoopBody(t *testing.T) {
	_, err := loopBuilder().Block(&WaitBlock{
		BlockMeta: BlockMeta{Name: "visit"},
		Data:      WaitData{WaitSeconds: Literal(1)},
	}).Build()
	requireKind(t, err, "ReferenceError")
	assert.Contains(t, err.Error(), `duplicate block name "visit"`)
}

func TestBuild_InvalidParameterKey(t *testing.T) {
	_, err := loopBuilder().Parameter("1bad-key", "", "").Build()
	requireKind(t, err, "SchemaError")
	assert.Contains(t, err.Error(), "1bad-key")
}

func TestBuild_UnknownBlockTypeFromDescriptor(t *testing.T) {
	_, err := loopBuilder().Descriptor(Descriptor{
		BlockType: "teleport",
		Name:      "beam_up",
		Data:      map[string]interface{}{"destination": "orbit"},
	}).Build()
	requireKind(t, err, "SchemaError")
	assert.Contains(t, err.Error(), `unrecognized block type "teleport"`)
}

func TestBuild_DescriptorAppendsTypedBlock(t *testing.T) {
	doc, err := loopBuilder().Descriptor(Descriptor{
		BlockType: BlockTypeTask,
		Name:      "summary",
		Data: map[string]interface{}{
			"navigation_goal":     "summarise {{scan_output.items}}",
			"complete_criterion":  "done",
			"terminate_criterion": "stuck",
		},
	}).Build()
	require.NoError(t, err)

	b, ok := doc.Find("summary")
	require.True(t, ok)
	task, ok := b.(*TaskBlock)
	require.True(t, ok)
	assert.Equal(t, "summarise {{scan_output.items}}", task.Data.NavigationGoal)
}

func TestBuild_References(t *testing.T) {
	tests := []struct {
		name        string
		block       Block
		wantKind    string
		wantMessage string
	}{
		{
			name: "undeclared parameter",
			block: &NavigationBlock{
				BlockMeta: BlockMeta{Name: "late"},
				Data:      NavigationData{NavigationGoal: "go", URL: "{{missing_url}}", Criteria: criteria()},
			},
			wantKind:    "ReferenceError",
			wantMessage: "{{missing_url}}",
		},
		{
			name: "loop variable out of scope",
			block: &TaskBlock{
				BlockMeta: BlockMeta{Name: "late"},
				Data:      TaskData{NavigationGoal: "use {{item.url}}", Criteria: criteria()},
			},
			wantKind:    "ReferenceError",
			wantMessage: "{{item.url}}",
		},
		{
			name: "output without field",
			block: &TaskBlock{
				BlockMeta: BlockMeta{Name: "late"},
				Data:      TaskData{NavigationGoal: "use {{scan_output}}", Criteria: criteria()},
			},
			wantKind:    "ReferenceError",
			wantMessage: "must select a field",
		},
		{
			name: "own output",
			block: &TaskBlock{
				BlockMeta: BlockMeta{Name: "late"},
				Data:      TaskData{NavigationGoal: "use {{late_output.x}}", Criteria: criteria()},
			},
			wantKind:    "ReferenceError",
			wantMessage: `block "late" does not complete`,
		},
		{
			name: "malformed expression",
			block: &TaskBlock{
				BlockMeta: BlockMeta{Name: "late", Condition: "{{scan_output.items ==}}"},
				Data:      TaskData{NavigationGoal: "go", Criteria: criteria()},
			},
			wantKind:    "ReferenceError",
			wantMessage: "malformed expression",
		},
		{
			name: "unterminated placeholder",
			block: &TaskBlock{
				BlockMeta: BlockMeta{Name: "late"},
				Data:      TaskData{NavigationGoal: "go to {{start_url", Criteria: criteria()},
			},
			wantKind:    "ReferenceError",
			wantMessage: "unterminated placeholder",
		},
		{
			name: "output of finished loop child",
			block: &TaskBlock{
				BlockMeta: BlockMeta{Name: "late", Condition: "{{check_output.ok}}"},
				Data:      TaskData{NavigationGoal: "report", Criteria: criteria()},
			},
		},
		{
			name: "function calls are not references",
			block: &TaskBlock{
				BlockMeta: BlockMeta{Name: "late", Condition: "{{len(scan_output.items) > 0}}"},
				Data:      TaskData{NavigationGoal: "report", Criteria: criteria()},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loopBuilder().Block(tt.block).Build()
			if tt.wantKind == "" {
				assert.NoError(t, err)
				return
			}
			requireKind(t, err, tt.wantKind)
			assert.Contains(t, err.Error(), `block "late"`)
			assert.Contains(t, err.Error(), tt.wantMessage)
		})
	}
}

func TestBuild_ForwardReference(t *testing.T) {
	_, err := NewBuilder("Forward", "").
		Block(
			&TaskBlock{
				BlockMeta: BlockMeta{Name: "first"},
				Data:      TaskData{NavigationGoal: "use {{second_output.value}}", Criteria: criteria()},
			},
			&TaskBlock{
				BlockMeta: BlockMeta{Name: "second"},
				Data:      TaskData{NavigationGoal: "produce", Criteria: criteria()},
			},
		).Build()
	requireKind(t, err, "ReferenceError")
	assert.Contains(t, err.Error(), "{{second_output.value}}")
}

func TestBuild_LoopChildCannotReferenceOwnLoop(t *testing.T) {
	b := loopBuilder()
	loop := b.doc.Blocks[2].(*ForLoopBlock)
	loop.Blocks = append(loop.Blocks, &TaskBlock{
		BlockMeta: BlockMeta{Name: "peek"},
		Data:      TaskData{NavigationGoal: "{{each_item_output.count}}", Criteria: criteria()},
	})

	_, err := b.Build()
	requireKind(t, err, "ReferenceError")
	assert.Contains(t, err.Error(), "{{each_item_output.count}}")
}

func TestBuild_LoopVariableShadowing(t *testing.T) {
	b := loopBuilder()
	loop := b.doc.Blocks[2].(*ForLoopBlock)
	loop.Data.LoopVariable = "delay"

	_, err := b.Build()
	requireKind(t, err, "ReferenceError")
	assert.Contains(t, err.Error(), `loop variable "delay" shadows a parameter`)
}

func TestBuild_Structure(t *testing.T) {
	tests := []struct {
		name        string
		build       func() *Builder
		wantMessage string
	}{
		{
			name:        "missing title",
			build:       func() *Builder { return NewBuilder("", "").Block(loopBuilder().doc.Blocks...) },
			wantMessage: "workflow title is required",
		},
		{
			name:        "no blocks",
			build:       func() *Builder { return NewBuilder("Empty", "") },
			wantMessage: "at least one block",
		},
		{
			name: "blank required field",
			build: func() *Builder {
				return NewBuilder("Blank", "").Block(&LoginBlock{
					BlockMeta: BlockMeta{Name: "login"},
					Data:      LoginData{NavigationGoal: "log in", Username: "u", Criteria: criteria()},
				})
			},
			wantMessage: "data.password",
		},
		{
			name: "empty loop body",
			build: func() *Builder {
				return NewBuilder("Loop", "").Block(&ForLoopBlock{
					BlockMeta: BlockMeta{Name: "loop"},
					Data:      ForLoopData{LoopOver: "x", LoopVariable: "v", MaxIterations: Literal(2)},
				})
			},
			wantMessage: "at least one child block",
		},
		{
			name: "non-positive wait",
			build: func() *Builder {
				return NewBuilder("Wait", "").Block(&WaitBlock{
					BlockMeta: BlockMeta{Name: "pause"},
					Data:      WaitData{WaitSeconds: Literal(0)},
				})
			},
			wantMessage: "data.wait_seconds",
		},
		{
			name: "quantity with surrounding text",
			build: func() *Builder {
				return NewBuilder("Wait", "").
					Parameter("delay", "", "1").
					Block(&WaitBlock{
						BlockMeta: BlockMeta{Name: "pause"},
						Data:      WaitData{WaitSeconds: Quantity{Ref: "{{delay}} seconds"}},
					})
			},
			wantMessage: "exactly one placeholder",
		},
		{
			name: "invalid block name",
			build: func() *Builder {
				return NewBuilder("Name", "").Block(&WaitBlock{
					BlockMeta: BlockMeta{Name: "wait-a-bit"},
					Data:      WaitData{WaitSeconds: Literal(1)},
				})
			},
			wantMessage: `block name "wait-a-bit"`,
		},
		{
			name: "empty validation schema",
			build: func() *Builder {
				return NewBuilder("Validate", "").Block(&ValidationBlock{
					BlockMeta: BlockMeta{Name: "check"},
					Data:      ValidationData{ValidationGoal: "check", Criteria: criteria()},
				})
			},
			wantMessage: "validation schema must be a non-empty object",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build().Build()
			requireKind(t, err, "SchemaError")
			assert.Contains(t, err.Error(), tt.wantMessage)
		})
	}
}

func TestBuild_ReportsEveryProblem(t *testing.T) {
	_, err := loopBuilder().
		Parameter("delay", "", "").
		Block(&TaskBlock{
			BlockMeta: BlockMeta{Name: "late"},
			Data:      TaskData{NavigationGoal: "{{nowhere}}", Criteria: criteria()},
		}).
		Build()
	require.Error(t, err)

	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok)
	assert.Len(t, joined.Unwrap(), 2)
}

func TestDocument_RoundTrip(t *testing.T) {
	doc, err := loopBuilder().Build()
	require.NoError(t, err)

	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	var decoded Document
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, *doc, decoded)
}

func TestDocument_RoundTripNativeSchemaValues(t *testing.T) {
	tests := []struct {
		name   string
		schema map[string]interface{}
	}{
		{name: "integer", schema: map[string]interface{}{"maxItems": 5}},
		{name: "string slice", schema: map[string]interface{}{"enum": []string{"a", "b"}}},
		{name: "nested typed map", schema: map[string]interface{}{"items": map[string]int{"minimum": 1}}},
		{name: "empty", schema: map[string]interface{}{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &TaskBlock{
				BlockMeta: BlockMeta{Name: "extract"},
				Data:      TaskData{NavigationGoal: "extract", DataExtractionSchema: tt.schema, Criteria: criteria()},
			}
			doc, err := NewBuilder("Extract", "").Block(task).Build()
			require.NoError(t, err)

			raw, err := json.Marshal(doc)
			require.NoError(t, err)

			var decoded Document
			require.NoError(t, json.Unmarshal(raw, &decoded))
			assert.Equal(t, *doc, decoded)
		})
	}
}

func TestBuild_DoesNotModifyInputBlocks(t *testing.T) {
	schema := map[string]interface{}{"maxItems": 5}
	task := &TaskBlock{
		BlockMeta: BlockMeta{Name: "extract"},
		Data:      TaskData{NavigationGoal: "extract", DataExtractionSchema: schema, Criteria: criteria()},
	}

	doc, err := NewBuilder("Extract", "").Block(task).Build()
	require.NoError(t, err)

	assert.Equal(t, 5, task.Data.DataExtractionSchema["maxItems"])
	built := doc.Blocks[0].(*TaskBlock)
	assert.Equal(t, float64(5), built.Data.DataExtractionSchema["maxItems"])
}

func TestBuild_KeywordNamedReferences(t *testing.T) {
	for _, key := range []string{"not", "in", "and", "or", "matches", "contains", "let", "nil", "true"} {
		t.Run(key, func(t *testing.T) {
			_, err := NewBuilder("Keywords", "").
				Parameter(key, "", "x").
				Block(&NavigationBlock{
					BlockMeta: BlockMeta{Name: "open"},
					Data:      NavigationData{NavigationGoal: "open {{" + key + "}}", URL: "https://example.com", Criteria: criteria()},
				}).
				Build()
			assert.NoError(t, err)
		})
	}
}

func TestBuild_UndeclaredLiteralNames(t *testing.T) {
	for _, text := range []string{"{{nil}}", "{{true}}", "{{ not }}", "{{1 + 2}}"} {
		t.Run(text, func(t *testing.T) {
			_, err := NewBuilder("Literals", "").
				Block(&NavigationBlock{
					BlockMeta: BlockMeta{Name: "open"},
					Data:      NavigationData{NavigationGoal: "open " + text, URL: "https://example.com", Criteria: criteria()},
				}).
				Build()
			requireKind(t, err, "ReferenceError")
			assert.Contains(t, err.Error(), text)
		})
	}
}

func TestBuild_PlaceholderInSchemaKey(t *testing.T) {
	_, err := NewBuilder("Keys", "").
		Block(&TaskBlock{
			BlockMeta: BlockMeta{Name: "extract"},
			Data: TaskData{
				NavigationGoal:       "extract",
				DataExtractionSchema: map[string]interface{}{"{{undeclared}}": map[string]interface{}{"type": "string"}},
				Criteria:             criteria(),
			},
		}).
		Build()
	requireKind(t, err, "ReferenceError")
	assert.Contains(t, err.Error(), "{{undeclared}}")
}

func TestBuild_TypedNilBlock(t *testing.T) {
	var task *TaskBlock
	var loop *ForLoopBlock

	assert.NotPanics(t, func() {
		_, err := NewBuilder("Nil", "").Block(task).Build()
		requireKind(t, err, "SchemaError")
		assert.Contains(t, err.Error(), "block is nil")
	})
	assert.NotPanics(t, func() {
		_, err := loopBuilder().Block(&ForLoopBlock{
			BlockMeta: BlockMeta{Name: "outer"},
			Data:      ForLoopData{LoopOver: "{{scan_output.items}}", LoopVariable: "other", MaxIterations: Literal(1)},
			Blocks:    []Block{loop},
		}).Build()
		requireKind(t, err, "SchemaError")
	})
	assert.Empty(t, Flatten([]Block{task, loop}))
}

func TestDocument_WireShape(t *testing.T) {
	doc, err := loopBuilder().Build()
	require.NoError(t, err)

	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	var wire map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &wire))

	blocks := wire["blocks"].([]interface{})
	loop := blocks[2].(map[string]interface{})
	assert.Equal(t, "for_loop", loop["block_type"])
	assert.Equal(t, "each_item", loop["name"])
	assert.Equal(t, "{{max_items}}", loop["data"].(map[string]interface{})["max_iterations"])
	assert.Len(t, loop["blocks"], 4)

	open := blocks[0].(map[string]interface{})
	assert.NotContains(t, open, "blocks")
	assert.NotContains(t, open, "condition")
	assert.Equal(t, "{{start_url}}", open["data"].(map[string]interface{})["url"])
}

func TestFlatten_LoopTemplatesOnce(t *testing.T) {
	doc, err := loopBuilder().Build()
	require.NoError(t, err)

	var names []string
	for _, b := range Flatten(doc.Blocks) {
		names = append(names, b.Meta().Name)
	}
	assert.Equal(t, []string{"open", "scan", "each_item", "visit", "check", "act", "pause"}, names)
}
