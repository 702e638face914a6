package signature

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeResult(t *testing.T, raw string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	require.NoError(t, dec.Decode(&m))
	return m
}

func TestSignFlattensInSortedKeyOrder(t *testing.T) {
	result := decodeResult(t, `{"status":"OK","amount":10,"payId":"abc"}`)

	// amount, payId, status, then the key appended last.
	sum := sha256.Sum256([]byte("10:abc:OK:secret"))
	expected := base64.StdEncoding.EncodeToString(sum[:])

	assert.Equal(t, expected, Sign(result, "secret"))
}

func TestSignIndependentOfWireKeyOrder(t *testing.T) {
	a := decodeResult(t, `{"payId":"p1","orderId":"42","status":"OK","amount":100.50}`)
	b := decodeResult(t, `{"amount":100.50,"status":"OK","orderId":"42","payId":"p1"}`)

	assert.Equal(t, Sign(a, "key"), Sign(b, "key"))
}

func TestSignSortsNestedMapsButKeepsListOrder(t *testing.T) {
	nestedA := decodeResult(t, `{"items":[{"name":"a"},{"name":"b"}],"meta":{"z":"1","a":"2"}}`)
	nestedB := decodeResult(t, `{"meta":{"a":"2","z":"1"},"items":[{"name":"a"},{"name":"b"}]}`)
	swappedList := decodeResult(t, `{"items":[{"name":"b"},{"name":"a"}],"meta":{"a":"2","z":"1"}}`)

	assert.Equal(t, Sign(nestedA, "key"), Sign(nestedB, "key"))
	assert.NotEqual(t, Sign(nestedA, "key"), Sign(swappedList, "key"))
}

func TestScalarRendering(t *testing.T) {
	assert.Equal(t, "100", renderScalar(json.Number("100.00")))
	assert.Equal(t, "100.5", renderScalar(json.Number("100.50")))
	assert.Equal(t, "100", renderScalar(json.Number("100")))
	assert.Equal(t, "0.1", renderScalar(json.Number("0.10")))
	assert.Equal(t, "1", renderScalar(true))
	assert.Equal(t, "", renderScalar(false))
	assert.Equal(t, "", renderScalar(nil))
	assert.Equal(t, "text", renderScalar("text"))
}

func TestVerify(t *testing.T) {
	result := decodeResult(t, `{"payId":"p1","status":"OK"}`)
	sig := Sign(result, "key")

	assert.True(t, Verify(result, "key", sig))
	assert.False(t, Verify(result, "key", sig+"x"))
	assert.False(t, Verify(result, "other-key", sig))

	tampered := decodeResult(t, `{"payId":"p1","status":"FAILED"}`)
	assert.False(t, Verify(tampered, "key", sig))
}

func TestDecodeBody(t *testing.T) {
	result, sig, ok := DecodeBody([]byte(`{"result":{"payId":"p1","amount":10.25},"signature":"abc"}`))
	require.True(t, ok)
	assert.Equal(t, "abc", sig)
	assert.Equal(t, "p1", result["payId"])
	assert.Equal(t, json.Number("10.25"), result["amount"])

	_, _, ok = DecodeBody([]byte(`{"result":{"payId":"p1"}}`))
	assert.False(t, ok, "missing signature")

	_, _, ok = DecodeBody([]byte(`{"signature":"abc"}`))
	assert.False(t, ok, "missing result")

	_, _, ok = DecodeBody([]byte(`not json`))
	assert.False(t, ok)
}
