package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_TruncateString(t *testing.T) {
	assert.Equal(t, "+91...210", TruncateString("+919876543210", 3))
	assert.Equal(t, "abc", TruncateString("abc", 3))
	assert.Equal(t, "...", TruncateString("abc", 0))
}

func Test_TrimAndUpper(t *testing.T) {
	assert.Equal(t, "HDFC0000001", TrimAndUpper("  hdfc0000001 "))
	assert.Equal(t, "", TrimAndUpper("   "))
}
