package client

import (
	"bytes"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapBackend map[string]string

func (m mapBackend) Put(key, value []byte) error {
	m[string(key)] = string(value)
	return nil
}

func (m mapBackend) Get(key []byte) ([]byte, error) {
	v, ok := m[string(key)]
	if !ok {
		return nil, ErrBadRequest
	}
	return []byte(v), nil
}

func (m mapBackend) Delete(key []byte) error {
	delete(m, string(key))
	return nil
}

func (m mapBackend) List() ([][]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([][]byte, 0, len(keys))
	for _, k := range keys {
		out = append(out, []byte(k))
	}
	return out, nil
}

func (m mapBackend) Count() (uint32, error) {
	return uint32(len(m)), nil
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"", Command{}},
		{"   ", Command{}},
		{"put key1=value1", Command{Name: CmdPut, Key: []byte("key1"), Value: []byte("value1")}},
		{"put k=", Command{Name: CmdPut, Key: []byte("k"), Value: []byte("")}},
		{"put k=a=b", Command{Name: CmdPut, Key: []byte("k"), Value: []byte("a=b")}},
		{"  get   key1 ", Command{Name: CmdGet, Key: []byte("key1")}},
		{"del key1", Command{Name: CmdDel, Key: []byte("key1")}},
		{"list-keys", Command{Name: CmdList}},
		{"count", Command{Name: CmdCount}},
		{"quit", Command{Name: CmdQuit}},
	}
	for _, tt := range tests {
		got, err := ParseLine(tt.line)
		require.NoError(t, err, tt.line)
		assert.Equal(t, tt.want, got, tt.line)
	}
}

func TestParseLineErrors(t *testing.T) {
	tests := []struct {
		line string
		want error
	}{
		{"put", ErrSyntax},
		{"put key1", ErrSyntax},
		{"put =v", ErrSyntax},
		{"get", ErrSyntax},
		{"del", ErrSyntax},
		{"count 1", ErrSyntax},
		{"list-keys x", ErrSyntax},
		{"fetch key1", ErrUnknownCommand},
	}
	for _, tt := range tests {
		_, err := ParseLine(tt.line)
		assert.True(t, errors.Is(err, tt.want), "%q: %v", tt.line, err)
	}
}

func TestConsoleRun(t *testing.T) {
	var out bytes.Buffer
	con := NewConsole(mapBackend{}, &out)

	in := strings.Join([]string{
		"put key1=value1",
		"put key2=value2",
		"get key1",
		"count",
		"list-keys",
		"del key1",
		"get key1",
		"bogus",
		"",
		"quit",
		"count",
	}, "\n")
	require.NoError(t, con.Run(strings.NewReader(in), false))

	assert.Equal(t, strings.Join([]string{
		"OK",
		"OK",
		"value1",
		"2",
		"key1",
		"key2",
		"OK",
		"error: bad request",
		`error: unknown command: "bogus"`,
		"",
	}, "\n"), out.String())
}

func TestConsolePrompt(t *testing.T) {
	var out bytes.Buffer
	con := NewConsole(mapBackend{}, &out)

	require.NoError(t, con.Run(strings.NewReader("count\n"), true))
	assert.Equal(t, prompt+"0\n"+prompt, out.String())
}
