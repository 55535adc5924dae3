package state

import "sort"

// Overlay buffers the writes of a single extrinsic on top of the block
// state. A failed call reverts by discarding the overlay, so module state
// changes are all or nothing per extrinsic.
type Overlay struct {
	base   Writer
	writes map[string][]byte // nil value marks a deletion
}

func NewOverlay(base Writer) *Overlay {
	return &Overlay{
		base:   base,
		writes: make(map[string][]byte),
	}
}

func (o *Overlay) Get(key []byte) []byte {
	if value, ok := o.writes[string(key)]; ok {
		return value
	}
	return o.base.Get(key)
}

func (o *Overlay) Set(key, value []byte) {
	buffered := make([]byte, len(value))
	copy(buffered, value)
	o.writes[string(key)] = buffered
}

func (o *Overlay) Delete(key []byte) {
	o.writes[string(key)] = nil
}

func (o *Overlay) KeysWithPrefix(prefix []byte) [][]byte {
	merged := make(map[string]bool)
	for _, key := range o.base.KeysWithPrefix(prefix) {
		merged[string(key)] = true
	}
	for key, value := range o.writes {
		if len(key) < len(prefix) || key[:len(prefix)] != string(prefix) {
			continue
		}
		merged[key] = value != nil
	}

	keys := make([][]byte, 0, len(merged))
	for key, present := range merged {
		if present {
			keys = append(keys, []byte(key))
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return string(keys[i]) < string(keys[j])
	})
	return keys
}

// Commit applies the buffered writes to the base store in ascending key
// order.
func (o *Overlay) Commit() {
	keys := make([]string, 0, len(o.writes))
	for key := range o.writes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if value := o.writes[key]; value == nil {
			o.base.Delete([]byte(key))
		} else {
			o.base.Set([]byte(key), value)
		}
	}
	o.writes = make(map[string][]byte)
}

// Discard drops all buffered writes.
func (o *Overlay) Discard() {
	o.writes = make(map[string][]byte)
}
