package chat

import "sync"

// BanList is the set of peer addresses refused at admission time. Bans are
// process-lifetime; nothing expires them.
type BanList struct {
	mu    sync.RWMutex
	addrs map[string]struct{}
}

// NewBanList returns an empty ban list.
func NewBanList() *BanList {
	return &BanList{addrs: make(map[string]struct{})}
}

// Ban adds an address to the list.
func (b *BanList) Ban(addr string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addrs[addr] = struct{}{}
}

// Unban lifts a ban. It reports false when the address was not banned.
func (b *BanList) Unban(addr string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.addrs[addr]; !ok {
		return false
	}
	delete(b.addrs, addr)
	return true
}

// IsBanned reports whether an address is currently banned.
func (b *BanList) IsBanned(addr string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.addrs[addr]
	return ok
}
