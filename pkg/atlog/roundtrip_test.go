package atlog

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func writeAndRead(t *testing.T, compress CompressMode, encrypt EncryptMode, records []string, streaming bool) [][]byte {
	t.Helper()

	var server *KeyMaterial
	var err error
	if encrypt == EncryptAES {
		server, err = RandomKeyMaterial()
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	var w *Writer
	if streaming {
		w = NewStreamingWriter(&buf)
	} else {
		w = NewWriter(&buf)
	}
	require.NoError(t, w.WriteHeader())

	var serverPubHex string
	if server != nil {
		serverPubHex = server.PublicKey
	}
	for _, rec := range records {
		require.NoError(t, w.WriteRecord(compress, encrypt, serverPubHex, []byte(rec)))
	}

	var r *Reader
	if streaming {
		r, err = NewStreamingReader(&buf, server)
	} else {
		r, err = NewReader(&buf, server)
	}
	require.NoError(t, err)
	require.NoError(t, r.ReadHeader())

	var out [][]byte
	require.NoError(t, r.ReadAll(func(rec []byte) error {
		out = append(out, rec)
		return nil
	}))
	return out
}

func TestRoundTripPlain(t *testing.T) {
	records := []string{"alpha", "beta", "gamma"}
	out := writeAndRead(t, CompressNone, EncryptNone, records, false)
	require.Len(t, out, len(records))
	for i, rec := range records {
		require.Equal(t, rec, string(out[i]))
	}
}

func TestRoundTripZlib(t *testing.T) {
	records := []string{
		"the quick brown fox jumps over the lazy dog, repeated for compressibility",
		"the quick brown fox jumps over the lazy dog, repeated for compressibility",
	}
	out := writeAndRead(t, CompressZlib, EncryptNone, records, false)
	require.Len(t, out, len(records))
	for i, rec := range records {
		require.Equal(t, rec, string(out[i]))
	}
}

func TestRoundTripAES(t *testing.T) {
	records := []string{"confidential line one", "confidential line two"}
	out := writeAndRead(t, CompressNone, EncryptAES, records, false)
	require.Len(t, out, len(records))
	for i, rec := range records {
		require.Equal(t, rec, string(out[i]))
	}
}

func TestRoundTripZlibAndAES(t *testing.T) {
	records := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		records = append(records, "record payload content repeated many times for determinism check")
	}
	out := writeAndRead(t, CompressZlib, EncryptAES, records, false)
	require.Len(t, out, len(records))
	for i, rec := range records {
		require.Equal(t, rec, string(out[i]))
	}
}

func TestRoundTripStreamingZlib(t *testing.T) {
	records := []string{"one", "two", "three", "four"}
	out := writeAndRead(t, CompressZlib, EncryptNone, records, true)
	require.Len(t, out, len(records))
	for i, rec := range records {
		require.Equal(t, rec, string(out[i]))
	}
}

func TestRoundTripStreamingZlibAndAES(t *testing.T) {
	records := []string{"line a", "line b", "line c"}
	out := writeAndRead(t, CompressZlib, EncryptAES, records, true)
	require.Len(t, out, len(records))
	for i, rec := range records {
		require.Equal(t, rec, string(out[i]))
	}
}

func TestPlainModeIsDeterministic(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	w1 := NewWriter(&buf1)
	w2 := NewWriter(&buf2)
	require.NoError(t, w1.WriteHeader())
	require.NoError(t, w2.WriteHeader())
	require.NoError(t, w1.WriteRecord(CompressNone, EncryptNone, "", []byte("deterministic content")))
	require.NoError(t, w2.WriteRecord(CompressNone, EncryptNone, "", []byte("deterministic content")))

	require.Equal(t, buf1.Bytes(), buf2.Bytes())
}

func TestAESModeIsNonDeterministic(t *testing.T) {
	server, err := RandomKeyMaterial()
	require.NoError(t, err)

	var buf1, buf2 bytes.Buffer
	w1 := NewWriter(&buf1)
	w2 := NewWriter(&buf2)
	require.NoError(t, w1.WriteRecord(CompressNone, EncryptAES, server.PublicKey, []byte("same content")))
	require.NoError(t, w2.WriteRecord(CompressNone, EncryptAES, server.PublicKey, []byte("same content")))

	require.NotEqual(t, buf1.Bytes(), buf2.Bytes())
}

func TestConcurrentIndependentWritersReadBack(t *testing.T) {
	g, _ := errgroup.WithContext(context.Background())
	results := make([][][]byte, 4)

	for i := 0; i < 4; i++ {
		i := i
		g.Go(func() error {
			results[i] = writeAndRead(t, CompressZlib, EncryptAES, []string{"payload from worker"}, false)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for _, res := range results {
		require.Equal(t, [][]byte{[]byte("payload from worker")}, res)
	}
}

func TestWrongKeyDecryptDoesNotPanic(t *testing.T) {
	server, err := RandomKeyMaterial()
	require.NoError(t, err)
	wrong, err := RandomKeyMaterial()
	require.NoError(t, err)

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteRecord(CompressNone, EncryptAES, server.PublicKey, []byte("top secret")))

	r, err := NewReader(&buf, wrong)
	require.NoError(t, err)
	require.NoError(t, r.ReadHeader())

	require.NotPanics(t, func() {
		_, _ = r.ReadRecord()
	})
}

func TestMagicMismatchRejected(t *testing.T) {
	raw := bytes.NewBuffer([]byte{0xDE, 0xAD, 0xBE, 0xEF, 4, 0, 0})
	r, err := NewReader(raw, nil)
	require.NoError(t, err)
	require.ErrorIs(t, r.ReadHeader(), ErrInvalidMagic)
}
