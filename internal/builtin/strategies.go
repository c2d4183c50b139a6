package builtin

import (
	"bytes"
	"maps"
	"unsafe"

	"github.com/zjrosen/capwire/internal/capability"
)

var catalog = capability.NewCatalog()

// Catalog returns the catalog holding every builtin strategy.
func Catalog() *capability.Catalog {
	return catalog
}

func init() {
	capability.Provide(catalog, "BytesCloner$Tier20", func(*capability.Context) (BytesCloner, error) {
		return stdCloner{}, nil
	})
	capability.Provide(catalog, "BytesCloner", func(*capability.Context) (BytesCloner, error) {
		return appendCloner{}, nil
	})

	capability.Provide(catalog, "MapClearer$Tier21", func(*capability.Context) (MapClearer, error) {
		return builtinClearer{}, nil
	})
	capability.Provide(catalog, "MapClearer", func(*capability.Context) (MapClearer, error) {
		return deleteClearer{}, nil
	})

	capability.Provide(catalog, "StringBytes", func(*capability.Context) (StringBytes, error) {
		return copyingConverter{}, nil
	})
	capability.Provide(catalog, "PrivilegedStringBytes$Tier20", func(*capability.Context) (StringBytes, error) {
		return unsafeConverter{}, nil
	})
	capability.Provide(catalog, "PrivilegedStringBytes", func(*capability.Context) (StringBytes, error) {
		return headerConverter{}, nil
	})

	capability.Provide(catalog, "Snapshotter", newSnapshotter)
}

// stdCloner uses bytes.Clone.
type stdCloner struct{}

func (stdCloner) Clone(b []byte) []byte { return bytes.Clone(b) }

type appendCloner struct{}

func (appendCloner) Clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}

// builtinClearer uses the clear builtin.
type builtinClearer struct{}

func (builtinClearer) Clear(m map[string][]byte) { clear(m) }

type deleteClearer struct{}

func (deleteClearer) Clear(m map[string][]byte) {
	for k := range m {
		delete(m, k)
	}
}

type copyingConverter struct{}

func (copyingConverter) Bytes(s string) []byte  { return []byte(s) }
func (copyingConverter) String(b []byte) string { return string(b) }

// unsafeConverter shares memory through unsafe.StringData and unsafe.String.
type unsafeConverter struct{}

func (unsafeConverter) Bytes(s string) []byte {
	if s == "" {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

func (unsafeConverter) String(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// headerConverter reinterprets the string and slice headers directly.
type headerConverter struct{}

func (headerConverter) Bytes(s string) []byte {
	if s == "" {
		return nil
	}
	return *(*[]byte)(unsafe.Pointer(&struct {
		string
		int
	}{s, len(s)}))
}

func (headerConverter) String(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return *(*string)(unsafe.Pointer(&b))
}

type snapshotter struct {
	cloner  BytesCloner
	clearer MapClearer
}

func newSnapshotter(cc *capability.Context) (Snapshotter, error) {
	cloner, err := capability.Require(cc, CapBytesCloner)
	if err != nil {
		return nil, err
	}
	clearer, err := capability.Require(cc, CapMapClearer)
	if err != nil {
		return nil, err
	}
	return &snapshotter{cloner: cloner, clearer: clearer}, nil
}

func (s *snapshotter) Snapshot(dst, src map[string][]byte) {
	s.clearer.Clear(dst)
	for k, v := range maps.All(src) {
		dst[k] = s.cloner.Clone(v)
	}
}
