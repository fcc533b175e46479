package segment

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/dragonsim/galago/blobstore"
	"github.com/dragonsim/galago/model"
)

// Segment layout, all little-endian:
//
//	header        24 bytes
//	section table sectionCount * 24 bytes
//	section data  block-compressed payloads, in table order
const (
	Magic   uint32 = 0x47414C53 // "GALS"
	Version uint16 = 1

	headerSize       = 24
	sectionEntrySize = 24
	sectionCount     = 4
)

// Section kinds, in on-disk table order.
const (
	SectionRecords uint32 = iota
	SectionFirstProgenitor
	SectionNextProgenitor
	SectionDescendant
)

var (
	// ErrBadMagic is returned when a blob does not start with a segment header.
	ErrBadMagic = errors.New("segment: bad magic")
	// ErrVersion is returned for segments written by a newer format revision.
	ErrVersion = errors.New("segment: unsupported version")
	// ErrCorrupt is returned when the header, section table or section
	// payloads are internally inconsistent.
	ErrCorrupt = errors.New("segment: corrupt segment")
)

// PartitionData is the payload of one segment: the galaxies a single core
// holds at one snapshot, plus the raw link arrays indexing into the
// destination snapshots' partition-local spaces (-1 for no relation).
type PartitionData struct {
	Galaxies        []model.Galaxy
	FirstProgenitor []int32
	NextProgenitor  []int32
	Descendant      []int32
}

// Validate checks that the link arrays are the same length as the records.
func (p *PartitionData) Validate() error {
	n := len(p.Galaxies)
	if len(p.FirstProgenitor) != n || len(p.NextProgenitor) != n || len(p.Descendant) != n {
		return fmt.Errorf("%w: %d records with link lengths %d/%d/%d", ErrCorrupt,
			n, len(p.FirstProgenitor), len(p.NextProgenitor), len(p.Descendant))
	}
	return nil
}

type sectionEntry struct {
	kind   uint32
	offset uint64
	length uint64
}

// WriterOptions tunes segment encoding.
type WriterOptions struct {
	Compression Compression
	BlockSize   int
}

// Encode serializes one partition into the segment wire format.
func Encode(p *PartitionData, opts WriterOptions) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	records, err := model.EncodeGalaxies(p.Galaxies)
	if err != nil {
		return nil, err
	}
	payloads := [sectionCount][]byte{
		SectionRecords:         records,
		SectionFirstProgenitor: encodeLinks(p.FirstProgenitor),
		SectionNextProgenitor:  encodeLinks(p.NextProgenitor),
		SectionDescendant:      encodeLinks(p.Descendant),
	}

	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[0:], Magic)
	binary.LittleEndian.PutUint16(header[4:], Version)
	header[6] = byte(opts.Compression)
	// header[7] reserved
	binary.LittleEndian.PutUint32(header[8:], uint32(len(p.Galaxies)))
	binary.LittleEndian.PutUint32(header[12:], sectionCount)
	binary.LittleEndian.PutUint32(header[16:], headerSize+sectionCount*sectionEntrySize)
	// header[20:24] reserved

	out := header
	table := make([]byte, sectionCount*sectionEntrySize)
	out = append(out, table...)

	offset := uint64(len(out))
	for kind, payload := range payloads {
		compressed, err := compressAll(payload, opts.Compression, opts.BlockSize)
		if err != nil {
			return nil, err
		}
		entry := out[headerSize+kind*sectionEntrySize:]
		binary.LittleEndian.PutUint32(entry[0:], uint32(kind))
		binary.LittleEndian.PutUint64(entry[8:], offset)
		binary.LittleEndian.PutUint64(entry[16:], uint64(len(compressed)))
		out = append(out, compressed...)
		offset += uint64(len(compressed))
	}
	return out, nil
}

// Write encodes p and stores it under name, using the store's atomic
// create-then-rename path when available.
func Write(ctx context.Context, store blobstore.BlobStore, name string, p *PartitionData, opts WriterOptions) error {
	data, err := Encode(p, opts)
	if err != nil {
		return err
	}
	return store.Put(ctx, name, data)
}

func encodeLinks(links []int32) []byte {
	out := make([]byte, 4*len(links))
	for i, v := range links {
		binary.LittleEndian.PutUint32(out[4*i:], uint32(v))
	}
	return out
}

func decodeLinks(data []byte) ([]int32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: link section length %d not a multiple of 4", ErrCorrupt, len(data))
	}
	out := make([]int32, len(data)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return out, nil
}

// Reader decodes a segment from a blob. Section payloads are fetched
// lazily so that link-only access (stitching) never touches the record
// section, and vice versa.
type Reader struct {
	blob        blobstore.Blob
	compression Compression
	count       int
	sections    [sectionCount]sectionEntry
}

// NewReader reads and validates the segment header and section table.
func NewReader(ctx context.Context, blob blobstore.Blob) (*Reader, error) {
	header := make([]byte, headerSize+sectionCount*sectionEntrySize)
	if _, err := blob.ReadAt(ctx, header, 0); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: blob smaller than header", ErrCorrupt)
		}
		return nil, err
	}

	if binary.LittleEndian.Uint32(header[0:]) != Magic {
		return nil, ErrBadMagic
	}
	if v := binary.LittleEndian.Uint16(header[4:]); v != Version {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersion, v, Version)
	}
	compression := Compression(header[6])
	count := binary.LittleEndian.Uint32(header[8:])
	if n := binary.LittleEndian.Uint32(header[12:]); n != sectionCount {
		return nil, fmt.Errorf("%w: %d sections, want %d", ErrCorrupt, n, sectionCount)
	}

	r := &Reader{
		blob:        blob,
		compression: compression,
		count:       int(count),
	}
	size := uint64(blob.Size())
	for i := 0; i < sectionCount; i++ {
		entry := header[headerSize+i*sectionEntrySize:]
		kind := binary.LittleEndian.Uint32(entry[0:])
		if kind != uint32(i) {
			return nil, fmt.Errorf("%w: section %d has kind %d", ErrCorrupt, i, kind)
		}
		r.sections[i] = sectionEntry{
			kind:   kind,
			offset: binary.LittleEndian.Uint64(entry[8:]),
			length: binary.LittleEndian.Uint64(entry[16:]),
		}
		if r.sections[i].offset+r.sections[i].length > size {
			return nil, fmt.Errorf("%w: section %d extends beyond blob", ErrCorrupt, i)
		}
	}
	return r, nil
}

// Count reports the number of galaxy records in the segment.
func (r *Reader) Count() int {
	return r.count
}

// Compression reports the block compression the segment was written with.
func (r *Reader) Compression() Compression {
	return r.compression
}

// Close releases the underlying blob.
func (r *Reader) Close() error {
	return r.blob.Close()
}

func (r *Reader) section(ctx context.Context, kind uint32) ([]byte, error) {
	entry := r.sections[kind]
	if entry.length == 0 {
		return nil, nil
	}
	rc, err := r.blob.ReadRange(ctx, int64(entry.offset), int64(entry.length))
	if err != nil {
		return nil, err
	}
	raw, err := readAllFrom(rc)
	if err != nil {
		return nil, err
	}
	return decompressAll(raw, r.compression)
}

// Records reads and decodes the full galaxy record section.
func (r *Reader) Records(ctx context.Context) ([]model.Galaxy, error) {
	data, err := r.section(ctx, SectionRecords)
	if err != nil {
		return nil, err
	}
	if len(data) != r.count*model.RecordSize {
		return nil, fmt.Errorf("%w: record section is %d bytes, header says %d records", ErrCorrupt, len(data), r.count)
	}
	return model.DecodeGalaxies(data, r.count)
}

// RecordAt decodes the record at the given partition-local index. For
// uncompressed segments it reads exactly one record from the blob;
// compressed segments fall back to decoding the containing block run.
func (r *Reader) RecordAt(ctx context.Context, idx int) (model.Galaxy, error) {
	if idx < 0 || idx >= r.count {
		return model.Galaxy{}, fmt.Errorf("%w: record index %d out of range [0,%d)", ErrCorrupt, idx, r.count)
	}

	if r.compression == CompressionNone {
		// Raw blocks carry an 8-byte frame per block; skip frames by
		// walking block boundaries arithmetically.
		return r.rawRecordAt(ctx, idx)
	}

	galaxies, err := r.Records(ctx)
	if err != nil {
		return model.Galaxy{}, err
	}
	return galaxies[idx], nil
}

func (r *Reader) rawRecordAt(ctx context.Context, idx int) (model.Galaxy, error) {
	entry := r.sections[SectionRecords]
	byteOff := int64(idx) * model.RecordSize

	// Records are written in fixed-size blocks; locate the block frame
	// holding byteOff. Block payload sizes are uniform except the tail,
	// so the frame index and intra-block offset follow from division.
	// Reading the first block header tells us the uniform payload size.
	var hdr [blockHeaderSize]byte
	if _, err := r.blob.ReadAt(ctx, hdr[:], int64(entry.offset)); err != nil {
		return model.Galaxy{}, err
	}
	blockPayload := int64(binary.LittleEndian.Uint32(hdr[0:]))
	if binary.LittleEndian.Uint32(hdr[4:]) != 0 {
		return model.Galaxy{}, fmt.Errorf("%w: uncompressed segment with compressed block", ErrCorrupt)
	}
	if blockPayload <= 0 {
		return model.Galaxy{}, fmt.Errorf("%w: empty record block", ErrCorrupt)
	}

	block := byteOff / blockPayload
	within := byteOff % blockPayload

	// A record can straddle a block boundary when the block size is not
	// a record multiple; read across both frames in that case.
	buf := make([]byte, model.RecordSize)
	read := 0
	for read < model.RecordSize {
		frameStart := int64(entry.offset) + block*(blockHeaderSize+blockPayload)
		avail := blockPayload - within
		n := int64(model.RecordSize - read)
		if n > avail {
			n = avail
		}
		if _, err := r.blob.ReadAt(ctx, buf[read:read+int(n)], frameStart+blockHeaderSize+within); err != nil {
			return model.Galaxy{}, err
		}
		read += int(n)
		block++
		within = 0
	}
	return model.DecodeGalaxy(buf)
}

// Links reads one of the raw link sections.
func (r *Reader) Links(ctx context.Context, kind uint32) ([]int32, error) {
	if kind != SectionFirstProgenitor && kind != SectionNextProgenitor && kind != SectionDescendant {
		return nil, fmt.Errorf("%w: section %d is not a link section", ErrCorrupt, kind)
	}
	data, err := r.section(ctx, kind)
	if err != nil {
		return nil, err
	}
	links, err := decodeLinks(data)
	if err != nil {
		return nil, err
	}
	if len(links) != r.count {
		return nil, fmt.Errorf("%w: %d links decoded, header says %d", ErrCorrupt, len(links), r.count)
	}
	return links, nil
}

// Read fetches the whole partition in one call.
func (r *Reader) Read(ctx context.Context) (*PartitionData, error) {
	galaxies, err := r.Records(ctx)
	if err != nil {
		return nil, err
	}
	fp, err := r.Links(ctx, SectionFirstProgenitor)
	if err != nil {
		return nil, err
	}
	np, err := r.Links(ctx, SectionNextProgenitor)
	if err != nil {
		return nil, err
	}
	desc, err := r.Links(ctx, SectionDescendant)
	if err != nil {
		return nil, err
	}
	return &PartitionData{
		Galaxies:        galaxies,
		FirstProgenitor: fp,
		NextProgenitor:  np,
		Descendant:      desc,
	}, nil
}

// Open opens the named blob and wraps it in a Reader.
func Open(ctx context.Context, store blobstore.BlobStore, name string) (*Reader, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(ctx, blob)
	if err != nil {
		blob.Close()
		return nil, err
	}
	return r, nil
}
