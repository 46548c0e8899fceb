package log

import "budget/internal/core"

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldKind        = "transaction_kind"
	FieldAmount      = "amount"
	FieldDescription = "description"
	FieldBalance     = "balance"
	FieldSequence    = "sequence"
	FieldEventID     = "event_id"
	FieldTemplate    = "template"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentBackend   = "backend"
	ComponentTemplate  = "template"
	ComponentRateLimit = "rate_limit"
)

// Operations defines standard operation names
const (
	OpRecord   = "record"
	OpRead     = "read"
	OpReplay   = "replay"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpParse    = "parse"
	OpRender   = "render"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// LogFields provides a builder for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds the error text, skipping nil errors
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithTransaction adds the fields describing a ledger entry
func (f LogFields) WithTransaction(tx core.Transaction) LogFields {
	f[FieldKind] = string(tx.Kind)
	f[FieldAmount] = tx.Amount
	f[FieldDescription] = tx.Description
	return f
}

func (f LogFields) WithBalance(balance int64) LogFields {
	f[FieldBalance] = balance
	return f
}

// ToSlice converts LogFields to key/value pairs for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
