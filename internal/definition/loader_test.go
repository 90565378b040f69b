package definition

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errors "github.com/deploymenttheory/go-workflow-composer/internal/errors"
)

const yamlDefinition = `
title: Visit
description: visit one page
parameters:
  - key: start_url
    description: entry page
    default_value: https://example.com
  - key: delay
    description: pause
    default_value: "3"
blocks:
  - block_type: navigation
    name: open
    label: Open
    data:
      navigation_goal: open the page
      url: "{{start_url}}"
      complete_criterion: page loaded
      terminate_criterion: page failed
  - block_type: wait
    name: pause
    data:
      wait_seconds: "{{delay}}"
  - block_type: wait
    name: settle
    data:
      wait_seconds: 2
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile_YAML(t *testing.T) {
	doc, err := LoadFile(writeFile(t, "visit.yaml", yamlDefinition))
	require.NoError(t, err)
	assert.Empty(t, ValidateDocument(doc))

	assert.Equal(t, "Visit", doc.Title)
	require.Len(t, doc.Blocks, 3)

	nav, ok := doc.Blocks[0].(*NavigationBlock)
	require.True(t, ok)
	assert.Equal(t, "{{start_url}}", nav.Data.URL)
	assert.Equal(t, "Open", nav.Label)

	wait := doc.Blocks[1].(*WaitBlock)
	assert.True(t, wait.Data.WaitSeconds.IsRef())
	assert.Equal(t, "{{delay}}", wait.Data.WaitSeconds.String())

	settle := doc.Blocks[2].(*WaitBlock)
	assert.Equal(t, Literal(2), settle.Data.WaitSeconds)
}

func TestLoadFile_JSONMatchesRender(t *testing.T) {
	doc, err := loopBuilder().Build()
	require.NoError(t, err)

	rendered, err := Render(doc, FormatJSON)
	require.NoError(t, err)

	loaded, err := LoadFile(writeFile(t, "loop.json", string(rendered)))
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantKind string
		wantText string
	}{
		{
			name:     "unknown block type",
			content:  "title: x\nblocks:\n  - block_type: teleport\n    name: a\n    data: {}\n",
			wantKind: "SchemaError",
			wantText: "teleport",
		},
		{
			name:     "unknown payload field",
			content:  "title: x\nblocks:\n  - block_type: wait\n    name: a\n    data:\n      wait_seconds: 1\n      wait_minutes: 2\n",
			wantKind: "SchemaError",
			wantText: "wait_minutes",
		},
		{
			name:     "children on a task",
			content:  "title: x\nblocks:\n  - block_type: task\n    name: a\n    data: {}\n    blocks:\n      - block_type: wait\n        name: b\n        data: {wait_seconds: 1}\n",
			wantKind: "SchemaError",
			wantText: "cannot contain child blocks",
		},
		{
			name:     "not a mapping",
			content:  "- just\n- a list\n",
			wantKind: "SchemaError",
			wantText: "must be a mapping",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeFile(t, "bad.yaml", tt.content))
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, errors.Kind(err))
			assert.Contains(t, err.Error(), tt.wantText)
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.True(t, errors.Is(err, errors.ErrFileNotFound))
}

func TestRender_YAML(t *testing.T) {
	doc, err := loopBuilder().Build()
	require.NoError(t, err)

	out, err := Render(doc, FormatYAML)
	require.NoError(t, err)

	parsed, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, doc, parsed)
}

func TestRender_UnsupportedFormat(t *testing.T) {
	doc, err := loopBuilder().Build()
	require.NoError(t, err)

	_, err = Render(doc, "toml")
	assert.True(t, errors.Is(err, errors.ErrUnsupportedFormat))
}
