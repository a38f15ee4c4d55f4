package bytecode

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"unsafe"

	"github.com/vmihailenco/msgpack/v5"

	"suzaku/pkg/jsstring"
	"suzaku/pkg/value"
)

// cacheMagic and cacheVersion identify a persisted bytecode cache file,
// per §6/§10.3's header contract.
const (
	cacheMagic   uint32 = 0x53555A4B // "SUZK"
	cacheVersion uint32 = 1
)

// cacheHeader is the fixed-size, little-endian prefix of a cache file.
type cacheHeader struct {
	Magic      uint32
	Version    uint32
	EntryPC    uint32
	ConstCount uint32
	RegCount   uint32
	CacheCount uint32
}

// constEntry is the wire representation of one constant-pool slot.
// Only primitive constants (undefined, null, bool, int32, double) and
// strings survive a round trip through disk; function prototypes and
// heap object references in the constant pool have no wire form.
type constEntry struct {
	Kind   byte    `msgpack:"k"` // 0=undefined 1=null 2=bool 3=int32 4=double 5=string
	Bool   bool    `msgpack:"b,omitempty"`
	Int32  int32   `msgpack:"i,omitempty"`
	Double float64 `msgpack:"d,omitempty"`
	Str    string  `msgpack:"s,omitempty"`
}

// CacheFile is the persisted form of a single FunctionProto, per §6's
// "bytecode format for persisted caches" contract, supplemented per
// SPEC_FULL.md §10.3 with a content hash for staleness detection.
type CacheFile struct {
	SourceHash [sha256.Size]byte
	EntryPC    uint32
	RegCount   uint32
	CacheCount uint32 // number of OpGetProp/OpSetProp cache sites the code references
	Code       []Word
	Consts     []constEntry
}

// Encode writes the fixed binary header (magic/version/entry_pc/
// const_count/reg_count, little-endian per §6) followed by the source
// hash, then the code words and msgpack-encoded constant pool.
func (c *CacheFile) Encode() ([]byte, error) {
	var buf bytes.Buffer
	hdr := cacheHeader{
		Magic:      cacheMagic,
		Version:    cacheVersion,
		EntryPC:    c.EntryPC,
		ConstCount: uint32(len(c.Consts)),
		RegCount:   c.RegCount,
		CacheCount: c.CacheCount,
	}
	if err := binary.Write(&buf, binary.LittleEndian, hdr); err != nil {
		return nil, err
	}
	if _, err := buf.Write(c.SourceHash[:]); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(c.Code))); err != nil {
		return nil, err
	}
	for _, w := range c.Code {
		if err := binary.Write(&buf, binary.LittleEndian, uint32(w)); err != nil {
			return nil, err
		}
	}
	packed, err := msgpack.Marshal(c.Consts)
	if err != nil {
		return nil, err
	}
	buf.Write(packed)
	return buf.Bytes(), nil
}

// DecodeCacheFile parses bytes previously produced by Encode, validating
// the magic and version before trusting anything else in the file.
func DecodeCacheFile(data []byte) (*CacheFile, error) {
	r := bytes.NewReader(data)
	var hdr cacheHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("bytecode: reading cache header: %w", err)
	}
	if hdr.Magic != cacheMagic {
		return nil, fmt.Errorf("bytecode: bad cache magic %#x", hdr.Magic)
	}
	if hdr.Version != cacheVersion {
		return nil, fmt.Errorf("bytecode: unsupported cache version %d", hdr.Version)
	}
	c := &CacheFile{EntryPC: hdr.EntryPC, RegCount: hdr.RegCount, CacheCount: hdr.CacheCount}
	if _, err := io.ReadFull(r, c.SourceHash[:]); err != nil {
		return nil, fmt.Errorf("bytecode: reading source hash: %w", err)
	}
	var codeLen uint32
	if err := binary.Read(r, binary.LittleEndian, &codeLen); err != nil {
		return nil, fmt.Errorf("bytecode: reading code length: %w", err)
	}
	c.Code = make([]Word, codeLen)
	for i := range c.Code {
		var w uint32
		if err := binary.Read(r, binary.LittleEndian, &w); err != nil {
			return nil, fmt.Errorf("bytecode: reading instruction %d: %w", i, err)
		}
		c.Code[i] = Word(w)
	}
	rest := make([]byte, r.Len())
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, fmt.Errorf("bytecode: reading constant pool: %w", err)
	}
	if err := msgpack.Unmarshal(rest, &c.Consts); err != nil {
		return nil, fmt.Errorf("bytecode: decoding constant pool: %w", err)
	}
	if int(hdr.ConstCount) != len(c.Consts) {
		return nil, fmt.Errorf("bytecode: const_count mismatch: header says %d, decoded %d", hdr.ConstCount, len(c.Consts))
	}
	return c, nil
}

// DecodeConsts materializes the wire constant pool as runtime Values,
// the step pkg/engine takes after DecodeCacheFile to get something a
// Closure's Consts slice can hold. Kept on CacheFile rather than handed
// back as raw constEntry values so callers outside this package never
// need to name the unexported wire type.
func (c *CacheFile) DecodeConsts() ([]value.Value, error) {
	out := make([]value.Value, len(c.Consts))
	for i, ce := range c.Consts {
		switch ce.Kind {
		case 0:
			out[i] = value.Undefined
		case 1:
			out[i] = value.Null
		case 2:
			out[i] = value.Bool(ce.Bool)
		case 3:
			out[i] = value.Int32(ce.Int32)
		case 4:
			out[i] = value.Double(ce.Double)
		case 5:
			s := jsstring.NewFlat(ce.Str)
			out[i] = value.FromHeapPointer(unsafe.Pointer(s.Header()))
		default:
			return nil, fmt.Errorf("bytecode: unknown const kind %d at index %d", ce.Kind, i)
		}
	}
	return out, nil
}

// SetConsts is DecodeConsts's inverse: it converts a constant pool of
// runtime Values into this file's wire representation, the step a
// cache-writing tool takes before calling Encode. A Value referencing a
// heap kind this format has no slot for (anything but a string) is
// rejected rather than silently dropped.
func (c *CacheFile) SetConsts(consts []value.Value) error {
	out := make([]constEntry, len(consts))
	for i, v := range consts {
		switch v.Kind() {
		case value.KindUndefined:
			out[i] = constEntry{Kind: 0}
		case value.KindNull:
			out[i] = constEntry{Kind: 1}
		case value.KindBool:
			out[i] = constEntry{Kind: 2, Bool: v.AsBool()}
		case value.KindInt32:
			out[i] = constEntry{Kind: 3, Int32: v.AsInt32()}
		case value.KindDouble:
			out[i] = constEntry{Kind: 4, Double: v.AsDouble()}
		case value.KindString:
			out[i] = constEntry{Kind: 5, Str: jsstring.FromHeader(v.HeapHeader()).String()}
		default:
			return fmt.Errorf("bytecode: cannot persist const of kind %s", v.Kind())
		}
	}
	c.Consts = out
	return nil
}

// HashSource computes the staleness-check hash for a source blob.
func HashSource(src []byte) [sha256.Size]byte {
	return sha256.Sum256(src)
}
