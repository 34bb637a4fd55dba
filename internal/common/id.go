package common

import (
	"github.com/google/uuid"
)

// NewReportID generates a unique report ID with the "rpt_" prefix
// Format: rpt_<uuid>
func NewReportID() string {
	return "rpt_" + uuid.New().String()
}

// NewConnectionID generates a unique websocket connection ID with the "conn_" prefix
func NewConnectionID() string {
	return "conn_" + uuid.New().String()
}
