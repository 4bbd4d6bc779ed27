package spacetime

import (
	"cmp"
	"encoding/binary"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// Digest fingerprints the cube contents. Equal cubes yield equal digests regardless of
// insertion history; entity names are not part of the fingerprint.
func (c *Cube) Digest() uint64 {
	h := xxhash.New()
	var buf []byte
	buf = appendInts(buf, c.width, c.height, c.depth)
	for _, s := range c.slices {
		buf = appendInts(buf, s.t, s.EntityCount())
		for _, e := range s.AllEntities() {
			buf = AppendEntity(buf, e)
		}
		_, _ = h.Write(buf)
		buf = buf[:0]
	}
	return h.Sum64()
}

// AppendEntity appends a canonical encoding of e to buf for hashing. Components are encoded
// by kind, so the order they were attached in does not matter.
func AppendEntity(buf []byte, e Entity) []byte {
	buf = append(buf, e.id[:]...)
	buf = AppendPosition(buf, e.pos)
	buf = appendInts(buf, len(e.components))
	components := slices.SortedStableFunc(slices.Values(e.components), func(a, b Component) int {
		return cmp.Compare(a.Kind(), b.Kind())
	})
	for _, comp := range components {
		buf = append(buf, byte(comp.Kind()))
		switch v := comp.(type) {
		case Patrol:
			buf = appendBool(buf, v.loops)
			buf = appendInts(buf, len(v.path))
			for _, p := range v.path {
				buf = appendInts(buf, p.X, p.Y)
			}
		case VisionCone:
			buf = appendInts(buf, v.LightSpeed, int(v.Facing), v.FOVDegrees)
		case Rift:
			buf = AppendPosition(buf, v.Target)
			buf = appendBool(buf, v.Bidirectional)
		}
	}
	return buf
}

// AppendPosition appends a fixed-width encoding of pos to buf.
func AppendPosition(buf []byte, pos Position) []byte {
	return appendInts(buf, pos.X, pos.Y, pos.T)
}

func appendInts(buf []byte, vs ...int) []byte {
	for _, v := range vs {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(int64(v)))
	}
	return buf
}

func appendBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 1)
	}
	return append(buf, 0)
}
