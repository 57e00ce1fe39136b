package palette

import (
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// cacheData is the on-wire msgpack representation of a Palette, used to
// persist a built palette across runs instead of recomputing k-means
// reduction from scratch every time (spec §4.3's reduction algorithm is
// the expensive part worth caching).
type cacheData struct {
	Version int      `msgpack:"version"`
	Colors  []uint32 `msgpack:"colors"`
}

const cacheVersion = 1

// ExportCache serializes the palette's insertion-ordered color table to
// w in msgpack format.
func (p *Palette) ExportCache(w io.Writer) error {
	data := cacheData{
		Version: cacheVersion,
		Colors:  p.Build(),
	}
	encoder := msgpack.NewEncoder(w)
	return encoder.Encode(&data)
}

// ImportCache reads a palette previously written by ExportCache from r.
func ImportCache(r io.Reader) (*Palette, error) {
	var data cacheData
	decoder := msgpack.NewDecoder(r)
	if err := decoder.Decode(&data); err != nil {
		return nil, err
	}
	p := New()
	for _, argb := range data.Colors {
		p.indexOf[argb] = uint32(len(p.colors))
		p.colors = append(p.colors, argb)
	}
	return p, nil
}
