package debug

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogWritesCategory(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer Disable()

	Log("timeline", "dropped note pitch=%d", 99)
	assert.Contains(t, buf.String(), "timeline")
	assert.Contains(t, buf.String(), "dropped note pitch=99")
}

func TestLogDisabledIsSilent(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	Disable()

	Log("x", "nothing")
	assert.Empty(t, buf.String())
}

func TestLogEvery(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer Disable()

	for i := 0; i < 6; i++ {
		LogEvery(3, "sample", "tick")
	}
	assert.Equal(t, 2, strings.Count(buf.String(), "tick (every 3"))
}

func TestWarnIsMarked(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer Disable()

	Warn("timeline", "note on while held pitch=%d", 40)
	assert.Contains(t, buf.String(), "WARNING note on while held pitch=40")
}
