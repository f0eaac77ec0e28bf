package logging_test

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"nastygram/internal/logging"
)

func TestGradingLineIsBareMessage(t *testing.T) {
	var buf bytes.Buffer
	g := logging.NewGrading(&buf)

	g.Line("File: %s, beginning transmission, attempt %d", "hello.txt", 1)

	assert.Equal(t, "File: hello.txt, beginning transmission, attempt 1\n", buf.String())
}

func TestGradingBlankLine(t *testing.T) {
	var buf bytes.Buffer
	g := logging.NewGrading(&buf)

	g.Blank()

	assert.Equal(t, "\n", buf.String())
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := logging.NewLogger(&buf, logrus.WarnLevel, "test")

	l.Info("this should be suppressed")
	assert.Empty(t, buf.String())

	l.Warn("this should appear")
	assert.Contains(t, buf.String(), "this should appear")
}

func TestLoggerWithFieldDoesNotMutateReceiver(t *testing.T) {
	var buf bytes.Buffer
	base := logging.NewLogger(&buf, logrus.InfoLevel, "test")
	derived := base.WithField("file", "a.txt")

	derived.Info("derived message")
	assert.Contains(t, buf.String(), "derived message")
	assert.Contains(t, buf.String(), "file=a.txt")

	buf.Reset()
	base.Info("base message")
	assert.Contains(t, buf.String(), "base message")
	assert.NotContains(t, buf.String(), "file=a.txt")
}
