package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestRunRecoversPanic(t *testing.T) {
	cmd := &cobra.Command{
		Use:           "boom",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(*cobra.Command, []string) error {
			panic("kaboom")
		},
	}
	cmd.SetArgs([]string{})

	err := run(cmd)
	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	require.Equal(t, "kaboom", panicErr.Value)
	require.Equal(t, "internal error: kaboom", err.Error())
	require.NotEmpty(t, panicErr.Stack)
}

func TestReportWritesErrorLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.log")
	a := &app{errorFile: path}

	var stdout, stderr bytes.Buffer
	a.report([]string{"ops"}, &PanicError{Value: "kaboom", Stack: []byte("goroutine 1")}, &stdout, &stderr)

	require.Equal(t, "Error: internal error: kaboom\n", stderr.String())
	require.Empty(t, stdout.String())

	logged, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(logged), `"error":"internal error: kaboom"`)
	require.Contains(t, string(logged), `"stack":"goroutine 1"`)
}

func TestReportWithoutErrorLog(t *testing.T) {
	a := &app{errorFile: filepath.Join(t.TempDir(), "missing", "errors.log")}

	var stdout, stderr bytes.Buffer
	a.report(nil, os.ErrNotExist, &stdout, &stderr)
	require.Contains(t, stderr.String(), "Error: file does not exist")
	require.Contains(t, stderr.String(), "Warning: open error log")
}
