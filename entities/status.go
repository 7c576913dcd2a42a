package entities

import "audio-diary/constant"

// StatusDocument describes one record's pipeline progress. It is persisted
// as {rid}.status.json and replaced wholesale on every transition. A missing
// document means state idle.
type StatusDocument struct {
	RID       string                 `json:"rid"`
	State     constant.PipelineState `json:"state"`
	Mode      constant.RunMode       `json:"mode,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Error     string                 `json:"error,omitempty"`
	StartedAt int64                  `json:"started_at,omitempty"`
	UpdatedAt int64                  `json:"updated_at"`
}
