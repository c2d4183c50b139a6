// Package builtin ships a small set of capabilities whose best strategy
// depends on the toolchain release, plus the Kit facade that wires them.
package builtin

import (
	"slices"

	"github.com/zjrosen/capwire/internal/capability"
)

// BytesCloner copies byte slices.
type BytesCloner interface {
	Clone(b []byte) []byte
}

// MapClearer empties a map in place.
type MapClearer interface {
	Clear(m map[string][]byte)
}

// StringBytes converts between strings and byte slices. Privileged
// strategies share memory with their input; callers must not mutate the
// result of Bytes.
type StringBytes interface {
	Bytes(s string) []byte
	String(b []byte) string
}

// Snapshotter copies a map of byte slices into a reusable destination.
type Snapshotter interface {
	Snapshot(dst, src map[string][]byte)
}

// Capability tokens.
var (
	CapBytesCloner           = capability.NewType[BytesCloner]("BytesCloner")
	CapMapClearer            = capability.NewType[MapClearer]("MapClearer")
	CapStringBytes           = capability.NewType[StringBytes]("StringBytes")
	CapPrivilegedStringBytes = capability.NewType[StringBytes]("PrivilegedStringBytes")
	CapSnapshotter           = capability.NewType[Snapshotter]("Snapshotter")
)

var keys = []capability.Key{
	CapBytesCloner,
	CapMapClearer,
	CapStringBytes,
	CapPrivilegedStringBytes,
	CapSnapshotter,
}

// Keys returns every builtin capability, sorted by name.
func Keys() []capability.Key {
	out := slices.Clone(keys)
	slices.SortFunc(out, func(a, b capability.Key) int {
		switch {
		case a.Name() < b.Name():
			return -1
		case a.Name() > b.Name():
			return 1
		}
		return 0
	})
	return out
}

// Lookup finds a builtin capability by name.
func Lookup(name string) (capability.Key, bool) {
	for _, k := range keys {
		if k.Name() == name {
			return k, true
		}
	}
	return nil, false
}

// PrivilegedRoutes maps each capability with a privileged sibling to it.
func PrivilegedRoutes() map[capability.Key]capability.Key {
	return map[capability.Key]capability.Key{
		CapStringBytes: CapPrivilegedStringBytes,
	}
}

// Primary returns the capabilities callers ask for directly: every key that
// is not only reachable as a privileged sibling.
func Primary() []capability.Key {
	siblings := map[capability.Key]bool{}
	for _, to := range PrivilegedRoutes() {
		siblings[to] = true
	}
	var out []capability.Key
	for _, k := range Keys() {
		if !siblings[k] {
			out = append(out, k)
		}
	}
	return out
}
