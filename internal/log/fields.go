package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldSessionID     = "session_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldDurationHuman = "duration_human"
	FieldUserAgent     = "user_agent"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldTransactionID = "transaction_id"
	FieldTxType        = "type"
	FieldCategory      = "category"
	FieldAmountCents   = "amount_cents"
	FieldHasReceipt    = "has_receipt"
	FieldEngine        = "ocr_engine"
	FieldCandidates    = "candidates"
	FieldRows          = "rows"
)

// Components
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentScan      = "scan"
	ComponentExport    = "export"
	ComponentSession   = "session"
	ComponentAMQP      = "amqp"
	ComponentSheets    = "sheets"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentBackend   = "backend"
	ComponentTemplate  = "template"
)

// Operations
const (
	OpAdd      = "add"
	OpDelete   = "delete"
	OpReset    = "reset"
	OpList     = "list"
	OpScan     = "scan"
	OpConfirm  = "confirm"
	OpExport   = "export"
	OpParse    = "parse"
	OpRender   = "render"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// LogFields collects attributes before handing them to slog.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	if requestID != "" {
		f[FieldRequestID] = requestID
	}
	return f
}

func (f LogFields) WithSession(sessionID string) LogFields {
	f[FieldSessionID] = sessionID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithTransaction adds the non-sensitive fields of a ledger entry. Notes and
// receipts are never logged.
func (f LogFields) WithTransaction(id int64, txType, category string, amountCents int64, hasReceipt bool) LogFields {
	f[FieldTransactionID] = id
	f[FieldTxType] = txType
	f[FieldCategory] = category
	f[FieldAmountCents] = amountCents
	f[FieldHasReceipt] = hasReceipt
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice flattens the fields into slog key/value arguments.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
