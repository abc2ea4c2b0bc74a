package model

import "time"

type EventType string

const (
	EventCreate EventType = "CREATE"
)

type FileEvent struct {
	Type      EventType
	Path      string
	Timestamp time.Time
}

// Stage identifies where in a file's lifecycle a failure occurred.
type Stage string

const (
	StageRead    Stage = "read"
	StageEncrypt Stage = "encrypt"
	StageDeliver Stage = "deliver"
	StageCleanup Stage = "cleanup"
)

// Result is the outcome of processing one file. Stage is empty on success
// and names the failing stage otherwise. Location is where the sealed
// artifact ended up when delivery succeeded.
type Result struct {
	Event    FileEvent
	Location string
	Stage    Stage
	Err      error
}
