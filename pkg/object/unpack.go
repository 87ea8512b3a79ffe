package object

import "fmt"

// IngestSummary reports what a pack ingest wrote.
type IngestSummary struct {
	Objects        int // total objects now resident, deltas included
	Deltas         int // delta records that required resolution
	ResolverPasses int
}

// loadedObject is an in-memory copy of an object seen during ingest.
type loadedObject struct {
	objType ObjectType
	data    []byte
}

// deltaRecord is a pending delta. Its base hash is known for ref-deltas
// immediately and for ofs-deltas once the entry at baseOffset has been
// assigned a hash.
type deltaRecord struct {
	offset     uint64
	baseHash   Hash
	baseOffset uint64
	data       []byte
}

// IngestPack decodes a pack stream and writes every contained object to
// the store. Undeltified objects are written as they are parsed; delta
// records are queued and resolved by repeated passes, each of which
// retires every delta whose base has become available. A pass that
// retires nothing aborts: the queue can no longer shrink.
//
// Objects written before an abort stay written; the store is additive
// and each object is self-identifying, so a failed ingest never corrupts
// prior state.
func (s *Store) IngestPack(data []byte) (*IngestSummary, error) {
	records, err := parsePack(data)
	if err != nil {
		return nil, err
	}

	loaded := make(map[Hash]loadedObject, len(records))
	hashAtOffset := make(map[uint64]Hash, len(records))
	queue := make([]deltaRecord, 0)
	summary := &IngestSummary{}

	for _, rec := range records {
		if rec.Type.IsDelta() {
			queue = append(queue, deltaRecord{
				offset:     rec.Offset,
				baseHash:   rec.BaseHash,
				baseOffset: rec.BaseOffset,
				data:       rec.Data,
			})
			continue
		}
		objType, ok := packObjectTypeToObjectType(rec.Type)
		if !ok {
			return nil, fmt.Errorf("pack entry at offset %d: type tag %d: %w", rec.Offset, uint8(rec.Type), ErrUnknownObjectType)
		}
		h, err := s.Write(objType, rec.Data)
		if err != nil {
			return nil, fmt.Errorf("pack entry at offset %d: %w", rec.Offset, err)
		}
		loaded[h] = loadedObject{objType: objType, data: rec.Data}
		hashAtOffset[rec.Offset] = h
		summary.Objects++
	}

	summary.Deltas = len(queue)

	// Fixed-point resolution. Queue order is pack arrival order, and a
	// delta resolved early in a pass is visible to later deltas in the
	// same pass, so a linear chain completes in one pass.
	for len(queue) > 0 {
		summary.ResolverPasses++
		next := queue[:0:0]
		for _, d := range queue {
			baseHash := d.baseHash
			if baseHash == "" {
				baseHash = hashAtOffset[d.baseOffset]
			}
			base, ok := loaded[baseHash]
			if baseHash == "" || !ok {
				next = append(next, d)
				continue
			}

			result, err := ApplyDelta(base.data, d.data)
			if err != nil {
				return nil, fmt.Errorf("delta at offset %d: %w", d.offset, err)
			}
			h, err := s.Write(base.objType, result)
			if err != nil {
				return nil, fmt.Errorf("delta at offset %d: %w", d.offset, err)
			}
			loaded[h] = loadedObject{objType: base.objType, data: result}
			hashAtOffset[d.offset] = h
			summary.Objects++
		}
		if len(next) == len(queue) {
			return nil, fmt.Errorf("%d deltas left after a pass with no progress: %w", len(next), ErrUnresolvableDelta)
		}
		queue = next
	}

	return summary, nil
}
