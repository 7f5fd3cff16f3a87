package enums

import "fmt"

// SyncOp is the mutation a pending sync row carries to the remote mirror.
type SyncOp string

const (
	SyncOpUpsert SyncOp = "upsert"
	SyncOpDelete SyncOp = "delete"
)

var validSyncOps = []SyncOp{
	SyncOpUpsert,
	SyncOpDelete,
}

// String implements fmt.Stringer.
func (s SyncOp) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SyncOp.
func (s SyncOp) IsValid() bool {
	for _, candidate := range validSyncOps {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSyncOp converts raw input into a SyncOp.
func ParseSyncOp(value string) (SyncOp, error) {
	for _, candidate := range validSyncOps {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sync op %q", value)
}
