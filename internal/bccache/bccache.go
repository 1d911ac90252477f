// Package bccache persists compiled template programs between processes.
// The engine hands each backend a Bucket — the fingerprint-keyed carrier
// of one compiled program — and the backend fills it on load or writes
// it out on dump. A backend that cannot serve a key simply leaves the
// bucket empty; an empty bucket is a cache miss, never an error.
package bccache

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"

	"tmplpress/internal/compiler"
)

// magic is the serialization frame header. The trailing byte is the
// program format version; bumping compiler.FormatVersion invalidates
// every existing cache entry at the frame level as well.
var magic = []byte{'T', 'P', 'B', 'C', compiler.FormatVersion}

// Cache stores and retrieves serialized compiled programs.
type Cache interface {
	// LoadBytecode fills the bucket from the backend if it holds the
	// bucket's key. A miss leaves the bucket empty and returns nil.
	LoadBytecode(b *Bucket) error

	// DumpBytecode writes the bucket's program to the backend.
	DumpBytecode(b *Bucket) error
}

// ContextCache is implemented by backends whose I/O can honor a
// context. The engine's context-aware surface prefers these forms and
// falls back to calling the plain forms inline when they are absent.
type ContextCache interface {
	LoadBytecodeContext(ctx context.Context, b *Bucket) error
	DumpBytecodeContext(ctx context.Context, b *Bucket) error
}

// Bucket carries one compiled program between the engine and a cache
// backend, keyed by the engine's fingerprint.
type Bucket struct {
	key     string
	program *compiler.Program
}

// NewBucket creates an empty bucket for the given fingerprint key.
func NewBucket(key string) *Bucket {
	return &Bucket{key: key}
}

// Key returns the bucket's fingerprint key.
func (b *Bucket) Key() string { return b.key }

// Program returns the held program, or nil when the bucket is empty.
func (b *Bucket) Program() *compiler.Program { return b.program }

// SetProgram stores a freshly compiled program in the bucket.
func (b *Bucket) SetProgram(p *compiler.Program) { b.program = p }

// Reset empties the bucket.
func (b *Bucket) Reset() { b.program = nil }

// Bytes serializes the bucket's program with a magic frame header.
func (b *Bucket) Bytes() ([]byte, error) {
	if b.program == nil {
		return nil, fmt.Errorf("bucket %q holds no program", b.key)
	}

	var buf bytes.Buffer
	buf.Write(magic)
	if err := gob.NewEncoder(&buf).Encode(b.program); err != nil {
		return nil, fmt.Errorf("encode bytecode: %w", err)
	}
	return buf.Bytes(), nil
}

// FromBytes deserializes payload into the bucket. Payloads with a wrong
// header or undecodable body leave the bucket empty — a stale or corrupt
// entry degrades to a miss instead of failing the resolution.
func (b *Bucket) FromBytes(payload []byte) error {
	b.Reset()

	if len(payload) < len(magic) || !bytes.Equal(payload[:len(magic)], magic) {
		return nil
	}

	var p compiler.Program
	if err := gob.NewDecoder(bytes.NewReader(payload[len(magic):])).Decode(&p); err != nil {
		return nil
	}
	b.program = &p
	return nil
}
