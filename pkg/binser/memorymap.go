package binser

import "sort"

// MemoryMap is the ordered view of the context's memory-mapped files used
// for cross-file pointer resolution, plus the set of pointers recorded for
// files that opt into pointer tracking.
type MemoryMap struct {
	files    []BinaryFile
	pointers []Pointer
}

func newMemoryMap() *MemoryMap {
	return &MemoryMap{}
}

func (m *MemoryMap) add(f BinaryFile) {
	if !f.IsMemoryMapped() {
		return
	}
	m.files = append(m.files, f)
}

func (m *MemoryMap) remove(f BinaryFile) {
	for i, mf := range m.files {
		if mf == f {
			m.files = append(m.files[:i], m.files[i+1:]...)
			return
		}
	}
}

// Files returns the memory-mapped files sorted by priority descending, ties
// broken by registration order.
func (m *MemoryMap) Files() []BinaryFile {
	sorted := make([]BinaryFile, len(m.files))
	copy(sorted, m.files)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MemoryMapPriority() > sorted[j].MemoryMapPriority()
	})
	return sorted
}

// FileForAddress returns the highest-priority file whose address range
// contains abs, or nil.
func (m *MemoryMap) FileForAddress(abs uint64) BinaryFile {
	for _, f := range m.Files() {
		if f.base().contains(abs) {
			return f
		}
	}
	return nil
}

// AddPointer records a serialized pointer for relocation workflows.
func (m *MemoryMap) AddPointer(p Pointer) {
	m.pointers = append(m.pointers, p)
}

// Pointers returns the recorded pointers in serialization order.
func (m *MemoryMap) Pointers() []Pointer { return m.pointers }
