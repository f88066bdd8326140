// Package seed loads warehouse data sets.
package seed

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/klauspost/pgzip"

	"github.com/rpstreef/screencloud-challenge/db"
	"github.com/rpstreef/screencloud-challenge/internal/domain/geo"
	"github.com/rpstreef/screencloud-challenge/internal/domain/warehouse"
)

// Default returns the embedded warehouse data set.
func Default() ([]warehouse.Warehouse, error) {
	return Decode(bytes.NewReader(db.Warehouses))
}

// Open reads a warehouse data set from a JSON file. Files ending in .gz are
// decompressed.
func Open(path string) ([]warehouse.Warehouse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open seed file")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "create gzip reader")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	ws, err := Decode(r)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return ws, nil
}

// Decode parses a JSON array of warehouses and validates every entry.
func Decode(r io.Reader) ([]warehouse.Warehouse, error) {
	d := jx.Decode(r, 4096)

	var (
		ws   []warehouse.Warehouse
		seen = make(map[string]struct{})
	)
	if err := d.Arr(func(d *jx.Decoder) error {
		w, err := decodeWarehouse(d)
		if err != nil {
			return errors.Wrapf(err, "warehouse #%d", len(ws))
		}
		if _, ok := seen[w.ID]; ok {
			return errors.Errorf("duplicate warehouse %q", w.ID)
		}
		seen[w.ID] = struct{}{}
		ws = append(ws, w)
		return nil
	}); err != nil {
		return nil, err
	}
	return ws, nil
}

func decodeWarehouse(d *jx.Decoder) (warehouse.Warehouse, error) {
	var (
		id, name string
		lat, lon float64
		stock    int
		hasLat   bool
		hasLon   bool
	)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			id, err = d.Str()
		case "name":
			name, err = d.Str()
		case "latitude":
			lat, err = d.Float64()
			hasLat = true
		case "longitude":
			lon, err = d.Float64()
			hasLon = true
		case "stock":
			stock, err = d.Int()
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	}); err != nil {
		return warehouse.Warehouse{}, err
	}

	if !hasLat || !hasLon {
		return warehouse.Warehouse{}, errors.New("latitude and longitude required")
	}
	loc, err := geo.NewCoordinates(lat, lon)
	if err != nil {
		return warehouse.Warehouse{}, err
	}
	return warehouse.New(id, name, loc, stock)
}
