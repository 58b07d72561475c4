package box

import "sync"

// bufPool recycles the byte slices UnknownAtom uses for its buffered
// payload mode, grounded on the teacher's utils.GetBuffer/PutBuffer
// sync.Pool idiom. Parsing a tree with many small buffered atoms (free,
// udta children, unknown leaf boxes) would otherwise put steady allocation
// pressure on the GC; pooling those slices amortizes it.
var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 256)
		return &b
	},
}

// getPooledBuffer returns a zeroed slice of exactly size bytes, backed by a
// pool-recycled array when one of sufficient capacity is available.
func getPooledBuffer(size int) []byte {
	p := bufPool.Get().(*[]byte)
	buf := *p
	if cap(buf) < size {
		buf = make([]byte, size)
	} else {
		buf = buf[:size]
		clear(buf)
	}
	*p = buf
	return buf
}

// putPooledBuffer returns buf to the pool. Callers must not use buf, or any
// slice derived from it, after calling this.
func putPooledBuffer(buf []byte) {
	bufPool.Put(&buf)
}
