package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	subs map[string][]func(old, new any)
}

func (f *fakeNotifier) OnChange(key string, fn func(old, new any)) {
	if f.subs == nil {
		f.subs = map[string][]func(old, new any){}
	}
	f.subs[key] = append(f.subs[key], fn)
}

func (f *fakeNotifier) fire(key string, v any) {
	for _, fn := range f.subs[key] {
		fn(nil, v)
	}
}

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	t.Cleanup(func() {
		require.NoError(t, Configure(DefaultLevel, false, DefaultLogPath))
		SetOutput(os.Stderr)
	})
	return buf
}

func TestLogger(t *testing.T) {
	t.Run("Should prefix child logger lines", func(t *testing.T) {
		buf := captureOutput(t)
		require.NoError(t, SetLevel("info"))
		WithPrefix("Summarizer").Infof("pass %d", 1)
		assert.Contains(t, buf.String(), "[Summarizer] pass 1")
	})
	t.Run("Should drop lines below the level", func(t *testing.T) {
		buf := captureOutput(t)
		require.NoError(t, SetLevel("warn"))
		Infof("hidden")
		Warnf("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})
	t.Run("Should reject unknown levels", func(t *testing.T) {
		captureOutput(t)
		assert.Error(t, SetLevel("loud"))
	})
	t.Run("Should also write to the log file when enabled", func(t *testing.T) {
		buf := captureOutput(t)
		path := filepath.Join(t.TempDir(), "logs", "zero_sum.log")
		require.NoError(t, Configure("info", true, path))
		Infof("to file")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "to file")
		assert.Contains(t, buf.String(), "to file")
	})
}

func TestBind(t *testing.T) {
	t.Run("Should follow log level changes", func(t *testing.T) {
		buf := captureOutput(t)
		n := &fakeNotifier{}
		Bind(n)

		n.fire(KeyLogLevel, "debug")
		Debugf("now visible")
		assert.Contains(t, buf.String(), "now visible")

		n.fire(KeyLogLevel, "error")
		Warnf("now hidden")
		assert.NotContains(t, buf.String(), "now hidden")
	})
	t.Run("Should toggle the file sink", func(t *testing.T) {
		captureOutput(t)
		n := &fakeNotifier{}
		Bind(n)
		path := filepath.Join(t.TempDir(), "app.log")

		n.fire(KeyLogPath, path)
		n.fire(KeyUseFileLogging, true)
		Errorf("into file")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "into file")
	})
}

func TestMetrics(t *testing.T) {
	t.Run("Should skip without a client", func(t *testing.T) {
		var m *Metrics
		assert.NotPanics(t, func() { m.Emit(MetricsEvent{Phase: PhaseReduce}) })
		assert.NotPanics(t, func() { NewMetrics(nil, "").Emit(MetricsEvent{Phase: PhasePass}) })
	})
	t.Run("Should not create a client without addresses", func(t *testing.T) {
		c, err := NewESClient(nil, "", "")
		require.NoError(t, err)
		assert.Nil(t, c)
	})
}
