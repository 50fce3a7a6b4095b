// Package backend holds the static table of upstream services the proxy
// can forward to.
package backend

// ID is the symbolic name of an upstream service.
type ID string

const (
	API ID = "api"
	SDK ID = "sdk"
)

// hosts maps each backend to the hostname sent upstream in the Host header.
// Initialized once and never mutated.
var hosts = map[ID]string{
	API: "api.privacy-center.org",
	SDK: "sdk.privacy-center.org",
}

// ids lists the backends in a stable order for status output and validation.
var ids = []ID{API, SDK}

// Host returns the hostname for id. The boolean is false when id is not a
// known backend.
func Host(id ID) (string, bool) {
	h, ok := hosts[id]
	return h, ok
}

// Known reports whether id is present in the hostname table.
func Known(id ID) bool {
	_, ok := hosts[id]
	return ok
}

// IDs returns all known backends.
func IDs() []ID {
	out := make([]ID, len(ids))
	copy(out, ids)
	return out
}
