package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithContext(t *testing.T) {
	root := New("boom")
	wrapped := WithContext(WithContext(root, "inner"), "outer")

	assert.Equal(t, "outer: inner: boom", wrapped.Error())
	assert.Equal(t, root, RootCause(wrapped))
	assert.Equal(t, root, RootCause(root))
}

func TestGetPrintableMessage(t *testing.T) {
	friendly := NewFriendlyError("Please run `runvault %s` first.", "mount")
	assert.Equal(t, "Please run `runvault mount` first.",
		GetPrintableMessage(WithContext(friendly, "load config")))

	plain := WithContext(New("boom"), "load config")
	assert.Equal(t, "load config: boom", GetPrintableMessage(plain))
}

func TestTypedErrors(t *testing.T) {
	assert.Equal(t, `"/data" does not exist`, FileNotFound{Path: "/data"}.Error())
	assert.Equal(t, `"/data" is not a directory`, NotADirectory{Path: "/data"}.Error())

	// NoMatchingRuns is shown to operators verbatim.
	assert.Implements(t, (*FriendlyError)(nil), NoMatchingRuns{Root: "/data"})
}
