package binser

// ObjectCache maps absolute pointers to the first instance constructed at
// that address, for deduplication and cycle breaking across an object graph.
type ObjectCache struct {
	m map[pointerKey]Serializable
}

func newObjectCache() *ObjectCache {
	return &ObjectCache{m: make(map[pointerKey]Serializable)}
}

// Add stores obj under its serialized offset. The instance must have been
// initialized with its placement pointer first.
func (c *ObjectCache) Add(obj Serializable) {
	p := obj.SerializedOffset()
	if p.IsNull() {
		return
	}
	c.m[p.key()] = obj
}

// FromOffset returns the instance cached at p, if any.
func (c *ObjectCache) FromOffset(p Pointer) (Serializable, bool) {
	if p.IsNull() {
		return nil, false
	}
	obj, ok := c.m[p.key()]
	return obj, ok
}

// Remove drops the instance cached at p.
func (c *ObjectCache) Remove(p Pointer) {
	delete(c.m, p.key())
}

// Len returns the number of cached instances.
func (c *ObjectCache) Len() int { return len(c.m) }

// CachedAt returns the instance cached at p if it has the requested type.
func CachedAt[T any, PT SerializablePtr[T]](ctx *Context, p Pointer) (PT, bool) {
	var zero PT
	obj, ok := ctx.Cache().FromOffset(p)
	if !ok {
		return zero, false
	}
	typed, ok := obj.(PT)
	return typed, ok
}
