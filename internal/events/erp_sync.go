package events

import (
	"encoding/json"
	"time"
)

// ERPSyncTopic carries every workforce event the ERP connector emits:
// attendance punches, planning slot changes and POS activity. The envelope
// routes by event_type; payload shapes live in the erpsync package.
const ERPSyncTopic = "erp.workforce.sync.v1"

const (
	ERPAttendancePunch     = "attendance.punch"
	ERPPlanningSlotUpsert  = "planning.slot.upserted"
	ERPPlanningSlotDeleted = "planning.slot.deleted"
	ERPPOSSession          = "pos.session"
	ERPPOSOrder            = "pos.order"
)

type ERPSyncEnvelope struct {
	EventType  string          `json:"event_type"`
	EventID    string          `json:"event_id"`
	CompanyID  string          `json:"company_id"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}
