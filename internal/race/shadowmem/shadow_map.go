package shadowmem

// ShadowMemory maps variable addresses to their VarState.
type ShadowMemory struct {
	cells map[uintptr]*VarState
}

// NewShadowMemory creates an empty shadow memory.
func NewShadowMemory() *ShadowMemory {
	return &ShadowMemory{cells: make(map[uintptr]*VarState)}
}

// Get returns the cell for addr, or nil if addr was never accessed.
func (sm *ShadowMemory) Get(addr uintptr) *VarState {
	return sm.cells[addr]
}

// GetOrCreate returns the cell for addr, creating it on first access.
func (sm *ShadowMemory) GetOrCreate(addr uintptr) *VarState {
	vs, ok := sm.cells[addr]
	if !ok {
		vs = &VarState{}
		sm.cells[addr] = vs
	}
	return vs
}

// Len returns the number of tracked variables.
func (sm *ShadowMemory) Len() int {
	return len(sm.cells)
}

// Reset forgets every tracked variable.
func (sm *ShadowMemory) Reset() {
	clear(sm.cells)
}
