package config

type WorkerKeyStruct struct {
	PersistSubmissionsQueue string
	// DeadSubmissionsQueue keeps payloads that can never be decoded, for inspection.
	DeadSubmissionsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistSubmissionsQueue: "persist_submissions_queue",
	DeadSubmissionsQueue:    "persist_submissions_dead",
}
