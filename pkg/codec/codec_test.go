package codec

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	putKey1Value1 = []byte{
		1,
		4, 0, 0, 0,
		6, 0, 0, 0,
		'k', 'e', 'y', '1',
		'v', 'a', 'l', 'u', 'e', '1',
	}
	getKey1 = []byte{
		2,
		4, 0, 0, 0,
		'k', 'e', 'y', '1',
	}
)

func TestDecodeRequest(t *testing.T) {
	assert := assert.New(t)

	req, err := DecodeRequest(putKey1Value1)
	assert.NoError(err)
	assert.Equal(OpPut, req.Op)
	assert.Equal([]byte("key1"), req.Key)
	assert.Equal([]byte("value1"), req.Value)

	req, err = DecodeRequest(getKey1)
	assert.NoError(err)
	assert.Equal(OpGet, req.Op)
	assert.Equal([]byte("key1"), req.Key)

	del := append([]byte{3}, getKey1[1:]...)
	req, err = DecodeRequest(del)
	assert.NoError(err)
	assert.Equal(OpDelete, req.Op)

	req, err = DecodeRequest([]byte{4})
	assert.NoError(err)
	assert.Equal(OpList, req.Op)

	req, err = DecodeRequest([]byte{5})
	assert.NoError(err)
	assert.Equal(OpCount, req.Op)
}

func TestDecodeRequestFailsClosed(t *testing.T) {
	tests := []struct {
		name string
		body []byte
		want error
	}{
		{"empty", nil, ErrEmptyRequest},
		{"noop", []byte{0}, ErrUnknownOp},
		{"unknown id", []byte{99}, ErrUnknownOp},
		{"put short by one", putKey1Value1[:len(putKey1Value1)-1], ErrTruncated},
		{"put missing value len", putKey1Value1[:5], ErrTruncated},
		{"get short by one", getKey1[:len(getKey1)-1], ErrTruncated},
		{"get no len", []byte{2, 1, 0}, ErrTruncated},
		{"huge key len", []byte{2, 0xff, 0xff, 0xff, 0xff, 'a'}, ErrTruncated},
		{"put lengths overflow together", []byte{1, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 'a'}, ErrTruncated},
		{"trailing after get", append(append([]byte{}, getKey1...), 'x'), ErrTrailingBytes},
		{"trailing after count", []byte{5, 0}, ErrTrailingBytes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRequest(tt.body)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestRequestEncodeDecode(t *testing.T) {
	reqs := []Request{
		{Op: OpPut, Key: []byte("k"), Value: []byte("v")},
		{Op: OpPut, Key: []byte{}, Value: []byte{}},
		{Op: OpPut, Key: []byte{0, 0, 0}, Value: []byte{0, 0}},
		{Op: OpGet, Key: []byte("key1")},
		{Op: OpDelete, Key: []byte("key1")},
		{Op: OpList},
		{Op: OpCount},
	}
	for _, want := range reqs {
		body, err := want.Encode()
		require.NoError(t, err)
		got, err := DecodeRequest(body)
		require.NoError(t, err)
		assert.Equal(t, want.Op, got.Op)
		assert.True(t, bytes.Equal(want.Key, got.Key))
		assert.True(t, bytes.Equal(want.Value, got.Value))
	}

	body, err := Request{Op: OpPut, Key: []byte("key1"), Value: []byte("value1")}.Encode()
	require.NoError(t, err)
	assert.Equal(t, putKey1Value1, body)
}

func TestEncodeReply(t *testing.T) {
	assert := assert.New(t)

	b, err := EncodeReply(Ok())
	assert.NoError(err)
	assert.Equal([]byte{0}, b)

	b, err = EncodeReply(BadRequest())
	assert.NoError(err)
	assert.Equal([]byte{1}, b)

	b, err = EncodeReply(OkValue([]byte("value1")))
	assert.NoError(err)
	assert.Equal([]byte{0, 6, 0, 0, 0, 'v', 'a', 'l', 'u', 'e', '1'}, b)

	b, err = EncodeReply(OkCount(2))
	assert.NoError(err)
	assert.Equal([]byte{0, 2, 0, 0, 0}, b)

	b, err = EncodeReply(OkKeys([][]byte{[]byte("a"), []byte("bc")}))
	assert.NoError(err)
	assert.Equal([]byte{0, 2, 0, 0, 0, 1, 0, 0, 0, 'a', 2, 0, 0, 0, 'b', 'c'}, b)

	b, err = EncodeReply(OkKeys(nil))
	assert.NoError(err)
	assert.Equal([]byte{0, 0, 0, 0, 0}, b)
}

func TestDecodeReply(t *testing.T) {
	assert := assert.New(t)

	r, err := DecodeReply(OpGet, []byte{0, 3, 0, 0, 0, 'a', 'b', 'c'})
	assert.NoError(err)
	assert.Equal(StatusOK, r.Status)
	assert.Equal([]byte("abc"), r.Value)

	r, err = DecodeReply(OpGet, []byte{1})
	assert.NoError(err)
	assert.Equal(StatusBadRequest, r.Status)

	r, err = DecodeReply(OpList, []byte{0, 2, 0, 0, 0, 1, 0, 0, 0, 'a', 2, 0, 0, 0, 'b', 'c'})
	assert.NoError(err)
	assert.Equal([][]byte{[]byte("a"), []byte("bc")}, r.Keys)

	r, err = DecodeReply(OpCount, []byte{0, 7, 0, 0, 0})
	assert.NoError(err)
	assert.Equal(uint32(7), r.Count)

	r, err = DecodeReply(OpPut, []byte{0})
	assert.NoError(err)
	assert.Equal(KindEmpty, r.Kind)

	// a lying key count must not allocate or read past the body
	_, err = DecodeReply(OpList, []byte{0, 0xff, 0xff, 0xff, 0xff})
	assert.ErrorIs(err, ErrTruncated)

	_, err = DecodeReply(OpGet, []byte{0, 9, 0, 0, 0, 'a'})
	assert.ErrorIs(err, ErrTruncated)

	_, err = DecodeReply(OpGet, []byte{7})
	assert.ErrorIs(err, ErrBadStatus)

	_, err = DecodeReply(OpGet, nil)
	assert.ErrorIs(err, ErrTruncated)
}

func TestFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, getKey1))
	require.NoError(t, WriteFrame(&buf, nil))
	assert.Equal(t, HeaderSize*2+len(getKey1), buf.Len())

	body, err := ReadFrame(&buf, 0)
	require.NoError(t, err)
	assert.Equal(t, getKey1, body)

	body, err = ReadFrame(&buf, 0)
	require.NoError(t, err)
	assert.Empty(t, body)

	_, err = ReadFrame(&buf, 0)
	assert.Equal(t, io.EOF, err)
}

func TestReadFrameRejects(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{0xff, 0xff, 0xff, 0x7f}), 1024)
	assert.ErrorIs(t, err, ErrFrameTooLarge)

	_, err = ReadFrame(bytes.NewReader([]byte{8, 0, 0, 0, 1, 2}), 1024)
	assert.Equal(t, io.ErrUnexpectedEOF, err)

	_, err = ReadFrame(bytes.NewReader([]byte{8, 0}), 1024)
	assert.Equal(t, io.ErrUnexpectedEOF, err)
}
