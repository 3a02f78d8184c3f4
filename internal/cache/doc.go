// Package cache provides bounded in-memory stores for binary media payloads.
// It contains two variants: ByteCache, which bounds total memory by byte size,
// and MediaCache, which bounds memory by entry count. Both expire entries by
// age and evict in insertion order. Eviction is deliberately FIFO, not LRU:
// reads never promote an entry, so downstream callers can rely on insertion
// order being the only thing that determines eviction.
package cache
