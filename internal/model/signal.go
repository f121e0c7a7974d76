package model

// TriggerType indicates what started a fetch cycle.
type TriggerType string

const (
	TriggerScheduled TriggerType = "SCHEDULED"
	TriggerStartup   TriggerType = "STARTUP"
	TriggerManual    TriggerType = "MANUAL"
)
