package vm

// A detachedString is a manually reference-counted byte buffer backing
// string values that exist before (or without) any engine instance.
//
// Every newDetachedString/retain must be paired with exactly one release.
// retain shares the buffer, it never copies bytes.
type detachedString struct {
	refs  uint32
	bytes []byte
}

func newDetachedString(s string) *detachedString {
	return &detachedString{refs: 1, bytes: []byte(s)}
}

// retain increments the reference count and returns the same handle.
func (d *detachedString) retain() *detachedString {
	if d.freed() {
		panic("retain of a freed detached string")
	}
	d.refs++
	return d
}

// release decrements the reference count, freeing the buffer at zero.
// Reports whether this call freed the buffer.
func (d *detachedString) release() bool {
	if d.freed() {
		panic("release of a freed detached string")
	}
	d.refs--
	if d.refs == 0 {
		d.bytes = nil
		return true
	}
	return false
}

// refcount recovers the current reference count of the handle.
func (d *detachedString) refcount() uint32 {
	return d.refs
}

func (d *detachedString) freed() bool {
	return d.refs == 0
}

func (d *detachedString) value() string {
	if d.freed() {
		return ""
	}
	return string(d.bytes)
}

func (d *detachedString) length() int64 {
	return int64(len(d.bytes))
}
