package executor

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

// IDAssignment reports the outcome of applying an ID policy to one item.
type IDAssignment struct {
	Assigned bool
	Conflict bool
	ItemID   string
}

// ApplyIDPolicy assigns or preserves an item's stable identity per policy,
// writing the new namespaced @mcp:id=<token> tag form (never the legacy
// mcp-id: marker, per the design notes) while still reading both forms via
// BuildIdentity. Write failures (e.g. a locked item) degrade to
// {Assigned:false} without aborting the stage.
func ApplyIDPolicy(it Item, policy IDPolicy) IDAssignment {
	existing := BuildIdentity(it)

	switch policy {
	case IDPolicyNone:
		return IDAssignment{}
	case IDPolicyPreserve:
		return IDAssignment{ItemID: existing.ItemID}
	case IDPolicyOptIn:
		if existing.ItemID != "" {
			return IDAssignment{ItemID: existing.ItemID}
		}
		return writeNewID(it, false)
	case IDPolicyAlways:
		assignment := writeNewID(it, existing.ItemID != "")
		return assignment
	default:
		return IDAssignment{}
	}
}

func writeNewID(it Item, conflict bool) IDAssignment {
	if it.Locked() {
		return IDAssignment{Conflict: conflict}
	}
	newID := newMCPID()
	if !safeSetNote(it, rewriteNoteWithID(it.Note(), newID)) {
		return IDAssignment{Conflict: conflict}
	}
	return IDAssignment{Assigned: true, Conflict: conflict, ItemID: newID}
}

func safeSetNote(it Item, note string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	it.SetNote(note)
	return true
}

// newMCPID generates an id of the form mcp_<ms-timestamp>_<4-digit-random>.
func newMCPID() string {
	return fmt.Sprintf("mcp_%d_%04d", time.Now().UnixMilli(), randomFourDigits())
}

func randomFourDigits() int {
	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		return int(time.Now().UnixNano() % 10000)
	}
	n := int(b[0])<<8 | int(b[1])
	return n % 10000
}

// rewriteNoteWithID strips any prior mcp-id: marker and @mcp:id= tag from
// note, then prepends the new namespaced tag. Idempotent: applying it twice
// with the same id produces the same result as applying it once.
func rewriteNoteWithID(note, id string) string {
	stripped := mcpIDPattern.ReplaceAllString(note, "")
	stripped = mcpTagPattern.ReplaceAllStringFunc(stripped, func(tok string) string {
		m := mcpTagPattern.FindStringSubmatch(tok)
		if len(m) == 3 && m[1] == "id" {
			return ""
		}
		return tok
	})
	stripped = strings.TrimSpace(stripped)
	tag := fmt.Sprintf("@mcp:id=%s", id)
	if stripped == "" {
		return tag
	}
	return tag + " " + stripped
}
