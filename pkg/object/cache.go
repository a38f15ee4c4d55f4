package object

// CacheState is the classic megamorphic-dispatch lattice: an inline
// cache starts empty, specializes to one shape, widens to a handful,
// then gives up and always falls back to a full shape walk.
type CacheState uint8

const (
	CacheUninitialized CacheState = iota
	CacheMonomorphic
	CachePolymorphic
	CacheMegamorphic
)

const polymorphicWidth = 4

type cacheEntry struct {
	shape  *Shape
	offset int
}

// InlineCache is the per-call-site record a GET_PROP/SET_PROP bytecode
// instruction owns. Lookup is the hot path: given the shape of the
// object actually seen at this site, it either returns the remembered
// offset or reports a miss so the interpreter falls back to a full
// Shape.Lookup and then records what it found.
type InlineCache struct {
	state   CacheState
	entries [polymorphicWidth]cacheEntry
	count   int
	Hits    uint32
	Misses  uint32
}

// Lookup returns (offset, true) if shape is already cached at this site.
func (ic *InlineCache) Lookup(shape *Shape) (int, bool) {
	switch ic.state {
	case CacheMonomorphic:
		if ic.entries[0].shape == shape {
			ic.Hits++
			return ic.entries[0].offset, true
		}
	case CachePolymorphic:
		for i := 0; i < ic.count; i++ {
			if ic.entries[i].shape == shape {
				ic.Hits++
				if i > 0 {
					e := ic.entries[i]
					copy(ic.entries[1:i+1], ic.entries[:i])
					ic.entries[0] = e
				}
				return ic.entries[0].offset, true
			}
		}
	}
	ic.Misses++
	return -1, false
}

// Record updates the cache after a miss resolved to (shape, offset),
// widening monomorphic -> polymorphic -> megamorphic as new shapes
// appear at this site.
func (ic *InlineCache) Record(shape *Shape, offset int) {
	switch ic.state {
	case CacheUninitialized:
		ic.state = CacheMonomorphic
		ic.entries[0] = cacheEntry{shape, offset}
		ic.count = 1
	case CacheMonomorphic:
		if ic.entries[0].shape == shape {
			ic.entries[0].offset = offset
			return
		}
		ic.state = CachePolymorphic
		ic.entries[1] = cacheEntry{shape, offset}
		ic.count = 2
	case CachePolymorphic:
		for i := 0; i < ic.count; i++ {
			if ic.entries[i].shape == shape {
				ic.entries[i].offset = offset
				return
			}
		}
		if ic.count < polymorphicWidth {
			ic.entries[ic.count] = cacheEntry{shape, offset}
			ic.count++
		} else {
			ic.state = CacheMegamorphic
			ic.count = 0
		}
	case CacheMegamorphic:
		// no further caching: every site that gets here stays generic.
	}
}

// Invalidate resets the site back to empty.
func (ic *InlineCache) Invalidate() {
	ic.state = CacheUninitialized
	ic.count = 0
}
