package httpclient

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBodyDiagnosticDocument(t *testing.T) {
	doc := "<Error><Code>InvalidAccessKeyId</Code></Error>"
	got, err := ReadBody(strings.NewReader(doc), 64<<10)
	require.NoError(t, err)
	assert.Equal(t, doc, string(got))
}

func TestReadBodyExactLimit(t *testing.T) {
	got, err := ReadBody(strings.NewReader("abcd"), 4)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(got))
}

func TestReadBodyOverrun(t *testing.T) {
	_, err := ReadBody(strings.NewReader(strings.Repeat("x", 100)), 64)
	require.Error(t, err)

	var tooLarge BodyTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.EqualValues(t, 64, tooLarge.Limit)
	assert.Contains(t, err.Error(), "64")
}

func TestReadBodyUnbounded(t *testing.T) {
	got, err := ReadBody(strings.NewReader("anything"), 0)
	require.NoError(t, err)
	assert.Equal(t, "anything", string(got))
}
