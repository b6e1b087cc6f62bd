package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldDuration      = "duration"
	FieldUserID        = "user_id"
	FieldAccountID     = "account_id"
	FieldTransactionID = "transaction_id"
	FieldGoalID        = "goal_id"
	FieldAmountCents   = "amount_cents"
	FieldBalanceCents  = "balance_cents"
	FieldStrategy      = "strategy"
	FieldJobID         = "job_id"
	FieldBatchID       = "batch_id"
	FieldPath          = "path"
	FieldLine          = "line"
	FieldEvent         = "event"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentCLI        = "cli"
	ComponentStorage    = "storage"
	ComponentReconciler = "reconciler"
	ComponentImporter   = "importer"
	ComponentProjector  = "projector"
	ComponentSweeper    = "drift_sweeper"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
	ComponentCache      = "cache"
)

// Operations defines standard operation names
const (
	OpCreate    = "create"
	OpRead      = "read"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpList      = "list"
	OpImport    = "import"
	OpRecompute = "recompute"
	OpPublish   = "publish"
	OpConsume   = "consume"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithUser(userID int64) LogFields {
	f[FieldUserID] = userID
	return f
}

// WithBalance adds the account and its cached balance
func (f LogFields) WithBalance(accountID, balanceCents int64) LogFields {
	f[FieldAccountID] = accountID
	f[FieldBalanceCents] = balanceCents
	return f
}

// WithJob adds import job fields
func (f LogFields) WithJob(jobID, path string) LogFields {
	f[FieldJobID] = jobID
	f[FieldPath] = path
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
