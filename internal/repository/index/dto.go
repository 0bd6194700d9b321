package index

import (
	"encoding/binary"
	"encoding/json"
	"math"
)

// Hash field names. Metadata tag fields are stored next to them under their own names.
const (
	fieldContent  = "__content"
	fieldVector   = "__vector"
	fieldMetadata = "__metadata"
)

// buildHashFields flattens one passage for HSET.
// The full metadata map is kept as JSON; tagFields are also copied out so FT can filter on them.
func buildHashFields(text string, vector []float32, metadata map[string]string, tagFields []string) (map[string]string, error) {
	meta, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}

	m := make(map[string]string, 3+len(tagFields))
	m[fieldContent] = text
	m[fieldVector] = vectorToBytes(vector)
	m[fieldMetadata] = string(meta)
	for _, f := range tagFields {
		if v, ok := metadata[f]; ok && v != "" {
			m[f] = v
		}
	}
	return m, nil
}

// parseMetadata decodes the stored metadata JSON. Falls back to the tag fields
// when the JSON is absent.
func parseMetadata(fields map[string]string, tagFields []string) map[string]string {
	if raw, ok := fields[fieldMetadata]; ok && raw != "" {
		decoded := map[string]string{}
		if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
			return decoded
		}
	}
	meta := map[string]string{}
	for _, f := range tagFields {
		if v, ok := fields[f]; ok {
			meta[f] = v
		}
	}
	return meta
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
