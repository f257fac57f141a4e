package mailbox

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Direction is the role of an object within a task.
type Direction string

const (
	// DirectionIn marks objects written by the client for the server.
	DirectionIn Direction = "in"
	// DirectionOut marks objects written by the server for the client.
	DirectionOut Direction = "out"
)

// Kind is the payload type of an object.
type Kind string

const (
	// KindData is a task payload: input, or output on success.
	KindData Kind = "dat"
	// KindSignature is a detached signature over the paired payload.
	KindSignature Kind = "sig"
	// KindError is an error payload, mutually exclusive with KindData
	// on the output side.
	KindError Kind = "err"
)

// nameRE is the wire grammar. Task ids we generate are 32 hex characters,
// but the decoder accepts any word-character token for forward
// compatibility. None of the fields may contain the '-' or '.' delimiters.
var nameRE = regexp.MustCompile(`^([0-9]+)-(\w+)\.(in|out)\.(dat|sig|err)$`)

// ObjectName is a decoded store object name. The name is the only metadata
// an object carries: the submission timestamp, the owning task, and the
// slot the object fills.
type ObjectName struct {
	Timestamp time.Time
	TaskID    string
	Direction Direction
	Kind      Kind
}

// String renders the wire form of the name.
func (n ObjectName) String() string {
	return EncodeName(n.Timestamp, n.TaskID, n.Direction, n.Kind)
}

// EncodeName renders an object name in the wire format
// "{epochMillis}-{taskId}.{direction}.{kind}".
func EncodeName(ts time.Time, taskID string, dir Direction, kind Kind) string {
	return fmt.Sprintf("%d-%s.%s.%s", ts.UnixMilli(), taskID, dir, kind)
}

// ParseName decodes an object name. ok is false for anything not matching
// the grammar; such objects belong to someone else and are ignored by
// Assemble and Sweeper.
func ParseName(name string) (ObjectName, bool) {
	m := nameRE.FindStringSubmatch(name)
	if m == nil {
		return ObjectName{}, false
	}
	millis, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return ObjectName{}, false
	}
	return ObjectName{
		Timestamp: time.UnixMilli(millis),
		TaskID:    m[2],
		Direction: Direction(m[3]),
		Kind:      Kind(m[4]),
	}, true
}

// NewTaskID returns a fresh random task id: 16 random bytes hex-encoded to
// 32 characters. Hex keeps the id free of the name delimiters.
func NewTaskID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}
