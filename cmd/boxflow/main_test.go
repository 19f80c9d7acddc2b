// File: cmd/boxflow/main_test.go
package main

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/boxflow/cmd"
)

// resetMocks restores the original function implementations.
func resetMocks() {
	osWriteFile = os.WriteFile
	osExit = os.Exit
	execute = cmd.Execute
}

func TestRun_ExitCodes(t *testing.T) {
	defer resetMocks()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", want: 0},
		{name: "failure", err: errors.New("boom"), want: 1},
		{name: "interrupted", err: context.Canceled, want: 130},
		{name: "wrapped interrupt", err: errors.Join(errors.New("layout"), context.Canceled), want: 130},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			execute = func(context.Context) error { return tt.err }
			assert.Equal(t, tt.want, run(context.Background()))
		})
	}
}

func TestHandlePanic(t *testing.T) {
	defer resetMocks()

	var code int
	osExit = func(c int) { code = c }

	t.Run("writes the panic log", func(t *testing.T) {
		var written []byte
		var name string
		osWriteFile = func(n string, data []byte, _ os.FileMode) error {
			name, written = n, data
			return nil
		}
		func() {
			defer handlePanic()
			panic("layout exploded")
		}()
		assert.Equal(t, panicLogFile, name)
		assert.Contains(t, string(written), "panic: layout exploded")
		assert.Contains(t, string(written), "goroutine")
		assert.Equal(t, 2, code)
	})

	t.Run("falls back to stderr", func(t *testing.T) {
		code = 0
		osWriteFile = func(string, []byte, os.FileMode) error { return errors.New("read-only") }
		func() {
			defer handlePanic()
			panic("again")
		}()
		assert.Equal(t, 2, code)
	})

	t.Run("no panic", func(t *testing.T) {
		code = -1
		require.NotPanics(t, func() {
			defer handlePanic()
		})
		assert.Equal(t, -1, code)
	})
}
