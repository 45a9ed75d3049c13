package listing

import "sync"

// AddressBar is the host's location bar. Replace swaps the current entry
// without adding history.
type AddressBar interface {
	Replace(location string)
}

// MemoryAddressBar records the current location in memory; the HTTP surface
// reads it back and hands it to the browser.
type MemoryAddressBar struct {
	mu       sync.RWMutex
	location string
	replaced int
}

// Replace implements AddressBar.
func (b *MemoryAddressBar) Replace(location string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.location = location
	b.replaced++
}

// Location returns the last replaced location.
func (b *MemoryAddressBar) Location() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.location
}

// Replacements counts Replace calls.
func (b *MemoryAddressBar) Replacements() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.replaced
}
