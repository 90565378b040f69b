package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrinter_PlainWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.OK("workflow %s created", "wf_123")
	p.Warn("record not written")
	p.Error("validation failed")
	p.Field("Workflow ID", "wf_123")

	assert.Equal(t,
		"✓ workflow wf_123 created\n"+
			"⚠ record not written\n"+
			"✗ validation failed\n"+
			"  Workflow ID: wf_123\n",
		buf.String())
}

func TestIsTerminal_Buffer(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
