package actor

// Role is the hidden-role state of an actor. It replaces scattered boolean
// flags with a single sum type so win-condition and detection logic cannot
// represent impossible states (e.g. detected but not corrupted).
type Role int

const (
	// RoleLoyal is the default, uncorrupted state.
	RoleLoyal Role = iota
	// RoleCorrupted marks a hidden warlock.
	RoleCorrupted
	// RoleCorruptedDetected marks a warlock whose corruption has been exposed.
	RoleCorruptedDetected
)

// String returns a human-readable role label.
func (r Role) String() string {
	switch r {
	case RoleLoyal:
		return "loyal"
	case RoleCorrupted:
		return "corrupted"
	case RoleCorruptedDetected:
		return "corrupted (detected)"
	default:
		return "unknown"
	}
}

// IsCorrupted reports whether the role is corrupted, detected or not.
//
// Postcondition: Returns true iff r is RoleCorrupted or RoleCorruptedDetected.
func (r Role) IsCorrupted() bool {
	return r == RoleCorrupted || r == RoleCorruptedDetected
}

// IsDetected reports whether the corruption has been exposed.
func (r Role) IsDetected() bool {
	return r == RoleCorruptedDetected
}
