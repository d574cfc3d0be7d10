package respline

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func requireOutOfBounds(t *testing.T, err error, offset int) {
	t.Helper()
	require.True(t, errors.Is(err, ErrOutOfBounds), "expected out of bounds, got %v", err)
	var oob *OutOfBoundsError
	require.True(t, errors.As(err, &oob))
	require.Equal(t, offset, oob.Offset)
}

func TestExtractLine(t *testing.T) {
	for _, td := range []struct {
		name       string
		buf        string
		cursor     int
		wantLine   string
		wantCursor int
		wantErr    bool
	}{
		{name: "empty buffer", buf: "", wantCursor: 0, wantErr: true},
		{name: "single character", buf: "0", wantCursor: 1, wantErr: true},
		{name: "cursor mid buffer without separator", buf: "OK", cursor: 1, wantCursor: 2, wantErr: true},
		{name: "no separator", buf: "OK", wantCursor: 2, wantErr: true},
		{name: "half separator", buf: "OK\r", wantCursor: 3, wantErr: true},
		{name: "lone LF", buf: "OK\n", wantCursor: 3, wantErr: true},
		{name: "LF before CR", buf: "OK\n\r", wantCursor: 4, wantErr: true},
		{name: "line", buf: "OK\r\n", wantLine: "OK", wantCursor: 4},
		{name: "empty line", buf: "\r\n", wantLine: "", wantCursor: 2},
		{name: "first match wins", buf: "+a\r\n+b\r\n", wantLine: "+a", wantCursor: 4},
		{name: "lone CR inside line", buf: "a\rb\r\n", wantLine: "a\rb", wantCursor: 5},
		{name: "lone LF inside line", buf: "a\nb\r\n", wantLine: "a\nb", wantCursor: 5},
		{name: "CR CR LF", buf: "a\r\r\n", wantLine: "a\r", wantCursor: 4},
		{name: "embedded NUL", buf: "a\x00b\r\n", wantLine: "a\x00b", wantCursor: 5},
		{name: "cursor on LF after CR", buf: "a\r\nb", cursor: 2, wantCursor: 4, wantErr: true},
		{name: "cursor at CRLF", buf: "a\r\n", cursor: 1, wantLine: "", wantCursor: 3},
		{name: "cursor at end", buf: "OK\r\n", cursor: 4, wantCursor: 4, wantErr: true},
		{name: "cursor past end", buf: "OK\r\n", cursor: 9, wantCursor: 9, wantErr: true},
		{name: "negative cursor", buf: "OK\r\n", cursor: -1, wantCursor: -1, wantErr: true},
	} {
		td := td
		t.Run(td.name, func(t *testing.T) {
			cursor := td.cursor
			line, err := ExtractLine([]byte(td.buf), &cursor)
			require.Equal(t, td.wantCursor, cursor)
			if td.wantErr {
				requireOutOfBounds(t, err, td.wantCursor)
				require.Nil(t, line)
				return
			}
			require.NoError(t, err)
			require.Equal(t, td.wantLine, string(line))
		})
	}
}

func TestExtractLine_multiLine(t *testing.T) {
	buf := []byte("*2\r\n$3\r\nGET\r\n$4\r\nkey1\r\n+OK\r\n-ERR no\r\n:1000\r\n$-1\r\npartial")
	want := []string{"*2", "$3", "GET", "$4", "key1", "+OK", "-ERR no", ":1000", "$-1"}
	var cursor int
	var got []string
	for {
		prev := cursor
		line, err := ExtractLine(buf, &cursor)
		if err != nil {
			requireOutOfBounds(t, err, len(buf))
			require.Equal(t, len(buf), cursor)
			break
		}
		require.Greater(t, cursor, prev)
		got = append(got, string(line))
	}
	require.Equal(t, want, got)

	t.Run("retry after more data", func(t *testing.T) {
		buf := []byte("+OK")
		var cursor int
		_, err := ExtractLine(buf, &cursor)
		requireOutOfBounds(t, err, 3)
		buf = append(buf, "\r\n"...)
		start := 0
		line, err := ExtractLine(buf, &start)
		require.NoError(t, err)
		require.Equal(t, "+OK", string(line))
		require.Equal(t, 5, start)
	})
}

func TestExtractLine_ownsLine(t *testing.T) {
	buf := []byte("+OK\r\n")
	var cursor int
	line, err := ExtractLine(buf, &cursor)
	require.NoError(t, err)
	buf[1] = 'X'
	require.Equal(t, "+OK", string(line))
	line[0] = '-'
	require.Equal(t, "+XK\r\n", string(buf))
}

func TestOutOfBoundsError(t *testing.T) {
	err := error(&OutOfBoundsError{Offset: 7})
	require.EqualError(t, err, "out of bounds at offset 7")
	require.True(t, errors.Is(errors.Wrap(err, "scanning"), ErrOutOfBounds))
	require.False(t, errors.Is(ErrLineTooLong, ErrOutOfBounds))
}
