package tree

// orderedIndex is an insert-if-absent map that remembers first-seen key
// order. Both the record pass and the include-empty pass go through upsert,
// so a later pass can fill gaps but never overwrite.
type orderedIndex[K comparable, V any] struct {
	order []K
	items map[K]V
}

func newOrderedIndex[K comparable, V any](capacity int) *orderedIndex[K, V] {
	return &orderedIndex[K, V]{
		order: make([]K, 0, capacity),
		items: make(map[K]V, capacity),
	}
}

// upsert stores v under k unless k is already present. It reports whether
// the key was inserted.
func (ix *orderedIndex[K, V]) upsert(k K, v V) bool {
	if _, ok := ix.items[k]; ok {
		return false
	}
	ix.items[k] = v
	ix.order = append(ix.order, k)
	return true
}

func (ix *orderedIndex[K, V]) get(k K) (V, bool) {
	v, ok := ix.items[k]
	return v, ok
}

func (ix *orderedIndex[K, V]) keys() []K {
	return ix.order
}

func (ix *orderedIndex[K, V]) len() int {
	return len(ix.order)
}
