package repository

// SaveOutcome reports how a write was resolved by the store. A non-nil error
// returned next to it is the "other" failure variant and leaves the outcome undefined.
type SaveOutcome int

const (
	SaveOK SaveOutcome = iota
	// SaveDuplicateKey means the identity of the entity already exists.
	SaveDuplicateKey
	// SaveLockConflict means the entity changed since its version was read.
	SaveLockConflict
)

func (o SaveOutcome) String() string {
	switch o {
	case SaveOK:
		return "ok"
	case SaveDuplicateKey:
		return "duplicate_key"
	case SaveLockConflict:
		return "lock_conflict"
	default:
		return "unknown"
	}
}
