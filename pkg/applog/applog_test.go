package applog

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMilestone_WritesAtInfoLevel(t *testing.T) {
	var buf bytes.Buffer
	log := ForComponentWithWriter("engine", &buf)
	log.Milestone("cloned %s", "acme/widgets")

	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "cloned acme/widgets")
	assert.Contains(t, out, "component=engine")
}

func TestRecoverable_WritesAtWarnLevel(t *testing.T) {
	var buf bytes.Buffer
	log := ForComponentWithWriter("engine", &buf)
	log.Recoverable("agent commit failed, falling back")

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
}

func TestFatal_IncludesOriginatingError(t *testing.T) {
	var buf bytes.Buffer
	log := ForComponentWithWriter("engine", &buf)
	log.Fatal(errors.New("boom"), "workflow %q failed", "touch")

	out := buf.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "error=boom")
}

func TestForComponent_HTTPIsPinnedToWarn(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger("http", &buf)
	log.Milestone("this should be suppressed")
	assert.False(t, strings.Contains(buf.String(), "suppressed"))

	log.Recoverable("this should appear")
	assert.True(t, strings.Contains(buf.String(), "appear"))
}
