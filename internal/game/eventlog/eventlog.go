// Package eventlog defines the structured, ordered event log that is the
// authoritative narrative output of a resolved round. Ordering is significant:
// an announcement entry may be mutated in place when an ultra-fail redirects
// an ability to a new target, so the log hands out pointers to live entries.
package eventlog

// Entry types. The presentation layer switches on Type to pick formatting.
const (
	TypeAction     = "action"
	TypeDamage     = "damage"
	TypeHeal       = "heal"
	TypeDefense    = "defense"
	TypeStatus     = "status"
	TypeFailure    = "failure"
	TypeMonster    = "monster"
	TypeCorruption = "corruption"
	TypeDeath      = "death"
	TypeLevel      = "level"
	TypeWin        = "win"
	TypeSystem     = "system"
)

// Entry is one structured log record. Message is shown to the whole room when
// Public is true; PrivateMessage only to the target; AttackerMessage only to
// the attacker.
type Entry struct {
	Type            string `json:"type"`
	Public          bool   `json:"public"`
	AttackerID      string `json:"attackerId,omitempty"`
	TargetID        string `json:"targetId,omitempty"`
	Message         string `json:"message"`
	PrivateMessage  string `json:"privateMessage,omitempty"`
	AttackerMessage string `json:"attackerMessage,omitempty"`
}

// Log collects Entries for one round in resolution order.
// It is not safe for concurrent use; the room serialises round processing.
type Log struct {
	entries []*Entry
}

// New creates an empty Log.
func New() *Log {
	return &Log{}
}

// Append adds e to the log and returns the stored pointer so callers may
// mutate the entry in place (e.g. rewriting an announcement after an
// ultra-fail retarget).
//
// Precondition: e must not be nil.
func (l *Log) Append(e *Entry) *Entry {
	l.entries = append(l.entries, e)
	return e
}

// Public appends a public entry with the given type and message.
func (l *Log) Public(entryType, message string) *Entry {
	return l.Append(&Entry{Type: entryType, Public: true, Message: message})
}

// Private appends a non-public entry addressed to targetID.
func (l *Log) Private(entryType, targetID, message string) *Entry {
	return l.Append(&Entry{Type: entryType, TargetID: targetID, PrivateMessage: message})
}

// Entries returns a snapshot copy of the entries in append order.
// Mutating the returned slice or its values does not affect the log.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	for i, e := range l.entries {
		out[i] = *e
	}
	return out
}

// Len returns the number of entries appended so far.
func (l *Log) Len() int {
	return len(l.entries)
}
