package log

// Shared structured-logging field names and component labels.
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldClientIP  = "client_ip"
	FieldPath      = "url"
	FieldMethod    = "method"
	FieldStatus    = "status"
	FieldDuration  = "duration_ms"

	ComponentServer = "server"
	ComponentStore  = "store"
	ComponentLedger = "ledger"
	ComponentWorker = "worker"
	ComponentEvents = "events"
)
