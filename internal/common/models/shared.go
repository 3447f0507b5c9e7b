package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ContextKey string

const (
	// TenantIDKey carries the resolved tenant id (hex string) for the request.
	// Every repository scopes its queries by this value.
	TenantIDKey ContextKey = "tenant_id"
	// TenantKey carries the resolved tenant document itself.
	TenantKey ContextKey = "tenant"
)

type AuditAction string

const (
	AuditActionCreate     AuditAction = "CREATE"
	AuditActionUpdate     AuditAction = "UPDATE"
	AuditActionDelete     AuditAction = "DELETE"
	AuditActionAssignRole AuditAction = "ASSIGN_ROLE"
	AuditActionRemoveRole AuditAction = "REMOVE_ROLE"
	AuditActionGrant      AuditAction = "ACCESS_GRANT"
	AuditActionDeny       AuditAction = "ACCESS_DENY"
	AuditActionSweep      AuditAction = "EXPIRY_SWEEP"
)

type Change struct {
	Old interface{} `bson:"old" json:"old"`
	New interface{} `bson:"new" json:"new"`
}

type AuditLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID  primitive.ObjectID `bson:"tenant_id,omitempty" json:"tenant_id,omitempty"`
	Action    AuditAction        `bson:"action" json:"action"`
	Module    string             `bson:"module" json:"module"`       // The feature/collection name
	RecordID  string             `bson:"record_id" json:"record_id"` // The ID of the record being touched
	ActorID   string             `bson:"actor_id" json:"actor_id"`   // Person ID who performed the action
	ActorName string             `bson:"-" json:"actor_name,omitempty"`
	Changes   map[string]Change  `bson:"changes,omitempty" json:"changes,omitempty"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

// Log is the document shape written by the async zap DB writer.
type Log struct {
	Message      string    `bson:"message" json:"message"`
	IpAddress    string    `bson:"ip_address" json:"ip_address"`
	TenantId     string    `bson:"tenant_id" json:"tenant_id"`
	LogLevelId   int       `bson:"log_level_id" json:"log_level_id"`
	Caller       string    `bson:"caller" json:"caller"`
	CreatedOnUtc time.Time `bson:"created_on_utc" json:"created_on_utc"`
}
