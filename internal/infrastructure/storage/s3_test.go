package storage

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicURLRoundTrip(t *testing.T) {
	base := "https://cdn.inmuebles.co/"
	key := "propiedades/APT-204/1718000000000-ab12cd34-sala comedor.jpg"

	u := PublicURL(base, key)
	assert.Equal(t, "https://cdn.inmuebles.co/propiedades/APT-204/1718000000000-ab12cd34-sala%20comedor.jpg", u)

	got, err := KeyFromURL(base, u)
	require.NoError(t, err)
	assert.Equal(t, key, got)
}

func TestKeyFromURL_Foreign(t *testing.T) {
	_, err := KeyFromURL("https://cdn.inmuebles.co", "https://otro.com/propiedades/x.jpg")
	assert.ErrorIs(t, err, ErrForeignURL)

	_, err = KeyFromURL("", "https://cdn.inmuebles.co/x.jpg")
	assert.ErrorIs(t, err, ErrForeignURL)

	_, err = KeyFromURL("https://cdn.inmuebles.co", "https://cdn.inmuebles.co/")
	assert.ErrorIs(t, err, ErrForeignURL)
}

func TestKeyFromURL_StripsQuery(t *testing.T) {
	got, err := KeyFromURL("https://cdn.inmuebles.co", "https://cdn.inmuebles.co/propiedades/A/1.jpg?v=2")
	require.NoError(t, err)
	assert.Equal(t, "propiedades/A/1.jpg", got)
}

func TestProgressReader(t *testing.T) {
	body := bytes.Repeat([]byte("x"), 100)
	var last int64
	pr := &progressReader{r: bytes.NewReader(body), total: 100, fn: func(sent, total int64) {
		assert.Equal(t, int64(100), total)
		last = sent
	}}

	buf := make([]byte, 30)
	_, err := pr.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, int64(30), last)

	_, err = pr.Seek(0, io.SeekStart)
	require.NoError(t, err)
	_, err = io.ReadAll(pr)
	require.NoError(t, err)
	assert.Equal(t, int64(100), last)
}
