package modules

import "github.com/ChainSafe/gossamer/lib/common"

// Storage keys follow the substrate scheme: twox128(module) ++ twox128(item),
// optionally followed by the encoded map key. Every module therefore owns a
// disjoint slice of the key space by construction.

// ModulePrefix returns the 16 byte prefix owning a module's key space.
func ModulePrefix(module string) []byte {
	prefix, err := common.Twox128Hash([]byte(module))
	if err != nil {
		panic(err)
	}
	return prefix
}

// StorageKey returns the key of a plain storage item.
func StorageKey(module, item string) []byte {
	itemHash, err := common.Twox128Hash([]byte(item))
	if err != nil {
		panic(err)
	}
	return append(ModulePrefix(module), itemHash...)
}

// StorageMapKey returns the key of one entry of a storage map.
func StorageMapKey(module, item string, mapKey []byte) []byte {
	return append(StorageKey(module, item), mapKey...)
}
