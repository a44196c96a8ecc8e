// Package codec centralizes metadata encoding for persisted formats.
//
// Snapshot files store the codec name in their header and select the
// decoder by name on load, so the default can change without stranding
// existing files.
package codec

// Codec encodes and decodes values. Implementations must be safe for
// concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default is the codec used for newly written files.
var Default Codec = GoJSON{}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}
