package ledger

import "sync"

// Ledger is the single source of truth for usable capital. Reserve and
// Release form a two-phase locking protocol: concurrent open attempts race
// for the same free balance, so every operation holds the mutex.
type Ledger struct {
	mu     sync.Mutex
	total  float64
	locked float64
	peak   float64
}

// New creates a ledger with an initial balance. Negative inputs clamp to 0.
func New(initial float64) *Ledger {
	if initial < 0 {
		initial = 0
	}
	return &Ledger{total: initial, peak: initial}
}

// Reserve locks amount out of the free balance. It succeeds only when
// amount is positive and the free balance covers it; otherwise it returns
// false without mutating anything.
func (l *Ledger) Reserve(amount float64) bool {
	if amount <= 0 {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.total-l.locked < amount {
		return false
	}
	l.locked += amount
	return true
}

// Release unlocks a prior reservation and settles the trade: the reserved
// capital leaves the total and the sale proceeds come back in. Called
// exactly once per opened position, whatever the close reason.
func (l *Ledger) Release(reserved, proceeds float64) {
	if reserved < 0 {
		reserved = 0
	}
	if proceeds < 0 {
		proceeds = 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.locked -= reserved
	if l.locked < 0 {
		l.locked = 0
	}
	l.total += proceeds - reserved
	if l.total < 0 {
		l.total = 0
	}
	if l.locked > l.total {
		l.locked = l.total
	}
	if l.total > l.peak {
		l.peak = l.total
	}
}

// SyncTotal reconciles the total with an authoritative external balance,
// e.g. after out-of-band transfers. The peak never decreases.
func (l *Ledger) SyncTotal(real float64) {
	if real < 0 {
		real = 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.total = real
	if l.locked > l.total {
		l.locked = l.total
	}
	if l.total > l.peak {
		l.peak = l.total
	}
}

// Total returns the total balance.
func (l *Ledger) Total() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Locked returns the currently reserved balance.
func (l *Ledger) Locked() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.locked
}

// Free returns the spendable balance.
func (l *Ledger) Free() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total - l.locked
}

// Peak returns the historical peak of the total balance.
func (l *Ledger) Peak() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.peak
}
