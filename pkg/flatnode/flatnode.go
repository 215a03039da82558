package flatnode

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/osm2pgsql/mid/pkg/osm"
)

const (
	slotSize   = 8
	coordScale = 1e7
	sentinel   = math.MinInt32
)

// Location is a decoded node coordinate read back from the file.
type Location struct {
	Lon, Lat float64
	Valid    bool
}

func toFixed(v float64) int32 { return int32(math.Round(v * coordScale)) }
func toFloat(v int32) float64 { return float64(v) / coordScale }

// Store is the writable handle used by stage 1 ingestion.
type Store struct {
	f *os.File
}

// Open creates the file if it does not exist and returns a writable Store.
func Open(path string) (*Store, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return &Store{f: f}, nil
}

func (s *Store) Close() error { return s.f.Close() }

// Size reports the flat node file's current length in bytes, for
// reporting how much of the sparse file has been grown into.
func (s *Store) Size() (int64, error) {
	info, err := s.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return info.Size(), nil
}

// Set writes the location for id, growing the file with zero-filled
// holes as needed. Negative ids are rejected.
func (s *Store) Set(id osm.ID, lon, lat float64) error {
	if id < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidID, id)
	}

	offset := int64(id) * slotSize
	if err := s.growTo(offset + slotSize); err != nil {
		return err
	}

	var buf [slotSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(toFixed(lon)))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(toFixed(lat)))
	if _, err := s.f.WriteAt(buf[:], offset); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

// Delete marks id's slot as missing by writing the sentinel. Deleting an
// id beyond the end of the file is a no-op; the file never grows for a
// delete. Negative ids are rejected.
func (s *Store) Delete(id osm.ID) error {
	if id < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidID, id)
	}

	offset := int64(id) * slotSize
	info, err := s.f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if info.Size() < offset+slotSize {
		return nil
	}

	var buf [slotSize]byte
	sentinel32 := int32(sentinel)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(sentinel32))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(sentinel32))
	if _, err := s.f.WriteAt(buf[:], offset); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

// growTo extends the file to at least minSize bytes using Truncate, which
// extends on most filesystems by creating a sparse hole rather than
// writing real zero bytes.
func (s *Store) growTo(minSize int64) error {
	info, err := s.f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if info.Size() >= minSize {
		return nil
	}
	if err := s.f.Truncate(minSize); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

// Get reads the location stored for id, if any.
func (s *Store) Get(id osm.ID) (Location, bool) {
	if id < 0 {
		return Location{}, false
	}
	offset := int64(id) * slotSize

	info, err := s.f.Stat()
	if err != nil || info.Size() < offset+slotSize {
		return Location{}, false
	}

	var buf [slotSize]byte
	if _, err := s.f.ReadAt(buf[:], offset); err != nil {
		return Location{}, false
	}
	return decode(buf)
}

// GetList resolves ids in order, skipping any that are unset.
func (s *Store) GetList(ids []osm.ID) []Location {
	out := make([]Location, 0, len(ids))
	for _, id := range ids {
		if loc, ok := s.Get(id); ok {
			out = append(out, loc)
		}
	}
	return out
}

// Reader opens an independent read-only file descriptor over the same
// flat node file, for stage-2 worker clones that must not contend on the
// writer's seek offset.
type Reader struct {
	f *os.File
}

// OpenReader opens path read-only.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return &Reader{f: f}, nil
}

func (r *Reader) Close() error { return r.f.Close() }

func (r *Reader) Get(id osm.ID) (Location, bool) {
	if id < 0 {
		return Location{}, false
	}
	offset := int64(id) * slotSize

	var buf [slotSize]byte
	n, err := r.f.ReadAt(buf[:], offset)
	if n < slotSize || err != nil {
		return Location{}, false
	}
	return decode(buf)
}

func (r *Reader) GetList(ids []osm.ID) []Location {
	out := make([]Location, 0, len(ids))
	for _, id := range ids {
		if loc, ok := r.Get(id); ok {
			out = append(out, loc)
		}
	}
	return out
}

func decode(buf [slotSize]byte) (Location, bool) {
	lon := int32(binary.LittleEndian.Uint32(buf[0:4]))
	lat := int32(binary.LittleEndian.Uint32(buf[4:8]))
	if lon == sentinel {
		return Location{}, false
	}
	// A zero-filled slot is a hole the file grew over, never a stored
	// node: slots inside the grown region that were never written must
	// read as missing.
	if lon == 0 && lat == 0 {
		return Location{}, false
	}
	return Location{Lon: toFloat(lon), Lat: toFloat(lat), Valid: true}, true
}
