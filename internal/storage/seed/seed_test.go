package seed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpstreef/screencloud-challenge/internal/domain/warehouse"
)

func TestDefault(t *testing.T) {
	ws, err := Default()
	require.NoError(t, err)
	require.Len(t, ws, 6)

	assert.Equal(t, "wh-la", ws[0].ID)
	assert.Equal(t, "Los Angeles", ws[0].Name)
	assert.InDelta(t, 33.9425, ws[0].Location.Latitude(), 1e-9)
	assert.InDelta(t, -118.408056, ws[0].Location.Longitude(), 1e-9)
	assert.Equal(t, 2556, warehouse.TotalStock(ws))
}

func TestDecode_Minimal(t *testing.T) {
	ws, err := Decode(strings.NewReader(`[{"id":"a","name":"A","latitude":1.5,"longitude":-2.25,"stock":3}]`))
	require.NoError(t, err)
	require.Len(t, ws, 1)
	assert.Equal(t, "a", ws[0].ID)
	assert.Equal(t, "A", ws[0].Name)
	assert.InDelta(t, 1.5, ws[0].Location.Latitude(), 1e-9)
	assert.InDelta(t, -2.25, ws[0].Location.Longitude(), 1e-9)
	assert.Equal(t, 3, ws[0].Stock)
}

func TestDecode_Empty(t *testing.T) {
	ws, err := Decode(strings.NewReader(`[]`))
	require.NoError(t, err)
	assert.Empty(t, ws)
}

func TestDecode_FieldErrorNamesKey(t *testing.T) {
	_, err := Decode(strings.NewReader(`[{"id":"a","latitude":"north","longitude":2,"stock":1}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "latitude")
}

func TestDecode_SkipsUnknownFields(t *testing.T) {
	ws, err := Decode(strings.NewReader(`[{"id":"a","name":"A","latitude":1,"longitude":2,"stock":3,"extra":{"x":[1,2]}}]`))
	require.NoError(t, err)
	require.Len(t, ws, 1)
	assert.Equal(t, 3, ws[0].Stock)
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "not an array", input: `{"id":"a"}`},
		{name: "negative stock", input: `[{"id":"a","latitude":1,"longitude":2,"stock":-1}]`},
		{name: "latitude out of range", input: `[{"id":"a","latitude":100,"longitude":2,"stock":1}]`},
		{name: "missing coordinates", input: `[{"id":"a","stock":1}]`},
		{name: "missing id", input: `[{"latitude":1,"longitude":2,"stock":1}]`},
		{name: "duplicate id", input: `[{"id":"a","latitude":1,"longitude":2,"stock":1},{"id":"a","latitude":1,"longitude":2,"stock":1}]`},
		{name: "fractional stock", input: `[{"id":"a","latitude":1,"longitude":2,"stock":1.5}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			require.Error(t, err)
		})
	}
}

func TestOpen_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warehouses.json.gz")
	f, err := os.Create(path)
	require.NoError(t, err)

	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(`[{"id":"wh-x","name":"X","latitude":-10.5,"longitude":20.25,"stock":7}]`))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	ws, err := Open(path)
	require.NoError(t, err)
	require.Len(t, ws, 1)
	assert.Equal(t, "wh-x", ws[0].ID)
	assert.Equal(t, 7, ws[0].Stock)
}

func TestOpen_PlainJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warehouses.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"wh-y","latitude":0,"longitude":0,"stock":0}]`), 0o600))

	ws, err := Open(path)
	require.NoError(t, err)
	require.Len(t, ws, 1)
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
