package aggregator

// HeldLocks returns the number of build sets with a held or awaited lock.
func (a *Aggregator) HeldLocks() int {
	return a.locks.size()
}
