package log

// Common field names for structured logging
const (
	FieldComponent      = "component"
	FieldRequestID      = "request_id"
	FieldClientIP       = "client_ip"
	FieldMethod         = "method"
	FieldPath           = "path"
	FieldStatusCode     = "status_code"
	FieldDuration       = "duration_ms"
	FieldUserAgent      = "user_agent"
	FieldError          = "error"
	FieldOperation      = "operation"
	FieldUserID         = "user_id"
	FieldSubscriptionID = "subscription_id"
	FieldSubscription   = "subscription_name"
	FieldCategoryID     = "category_id"
	FieldCostCents      = "cost_cents"
	FieldBillingCycle   = "billing_cycle"
	FieldDaysLeft       = "days_left"
	FieldPeriodStart    = "period_start"
	FieldPeriodEnd      = "period_end"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentNotifier  = "notifier"
	ComponentExport    = "export"
	ComponentRateLimit = "rate_limit"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpCancel   = "cancel"
	OpRollover = "rollover"
	OpRemind   = "remind"
	OpExport   = "export"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
