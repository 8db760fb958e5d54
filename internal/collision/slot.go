package collision

import "sync"

// Slot is a single-entry mailbox for contacts. Physics callbacks may Offer from
// any goroutine; the tick loop Takes at the start of each tick. While the slot is
// full, later contacts are collapsed into the one already waiting.
type Slot struct {
	mu        sync.Mutex
	contact   Contact
	full      bool
	collapsed uint64
}

// Offer stores c if the slot is empty and reports whether it was stored.
func (s *Slot) Offer(c Contact) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.full {
		s.collapsed++
		return false
	}
	s.contact = c
	s.full = true
	return true
}

// Take empties the slot.
func (s *Slot) Take() (Contact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.full {
		return Contact{}, false
	}
	c := s.contact
	s.contact = Contact{}
	s.full = false
	return c, true
}

// Pending reports whether a contact is waiting.
func (s *Slot) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.full
}

// Collapsed returns how many contacts arrived while the slot was already full.
func (s *Slot) Collapsed() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collapsed
}
