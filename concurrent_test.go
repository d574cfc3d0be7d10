package respline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func Test_concurrentScanner(t *testing.T) {
	ctx := context.Background()
	files := map[string]string{}
	var sources []string
	for i := 0; i < 10; i++ {
		var sb strings.Builder
		for j := 0; j < 500; j++ {
			fmt.Fprintf(&sb, ":%d\r\n", j)
		}
		name := fmt.Sprintf("%d.aof", i)
		if i%2 == 0 {
			name += ".gz"
		}
		files[name] = sb.String()
		sources = append(sources, name)
	}
	dir := writeTestSources(t, files)
	for i := range sources {
		sources[i] = filepath.Join(dir, sources[i])
	}

	t.Run("all lines", func(t *testing.T) {
		scanner, err := New(ctx, sources, &Options{Concurrency: 3})
		require.NoError(t, err)
		require.IsType(t, &concurrentScanner{}, scanner.src)
		t.Cleanup(func() {
			require.NoError(t, scanner.Close())
		})
		lines, err := readAll(ctx, t, scanner)
		require.Equal(t, io.EOF, err)
		require.Len(t, lines, 5000)
		next := map[string]int{}
		for _, line := range lines {
			require.Equal(t, fmt.Sprintf(":%d", next[line.Source]), string(line.Bytes))
			next[line.Source]++
		}
		require.Len(t, next, 10)
	})

	t.Run("error", func(t *testing.T) {
		bad := filepath.Join(writeTestSources(t, map[string]string{"bad.aof": "+OK\r\n+NO"}), "bad.aof")
		scanner, err := New(ctx, append([]string{bad}, sources...), &Options{Concurrency: 4})
		require.NoError(t, err)
		lines, err := readAll(ctx, t, scanner)
		require.True(t, errors.Is(err, ErrTruncatedLine))
		require.Len(t, lines, 5001)
		require.NoError(t, scanner.Close())
	})

	t.Run("close early", func(t *testing.T) {
		scanner, err := New(ctx, sources, &Options{Concurrency: 2})
		require.NoError(t, err)
		_, err = scanner.Next(ctx)
		require.NoError(t, err)
		require.NoError(t, scanner.Close())
	})
}
