package model

import "time"

// CollectionTarget names a logical collection: "master" or a plant code
type CollectionTarget string

// TargetMaster receives every document
const TargetMaster CollectionTarget = "master"

// String returns the target name
func (t CollectionTarget) String() string {
	return string(t)
}

// IsMaster reports whether the target is the master collection
func (t CollectionTarget) IsMaster() bool {
	return t == TargetMaster
}

// ProgressEntry is one ledger row: a record committed to a target
type ProgressEntry struct {
	RecordID  string
	Target    CollectionTarget
	Processed bool
	Timestamp time.Time
}
