package tenant

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tenant is an isolated customer workspace. Rows are created by the external
// provisioning flow; this core reads them only.
type Tenant struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Slug      string             `json:"slug" bson:"slug"`
	Domain    string             `json:"domain" bson:"domain"`
	IsActive  bool               `json:"is_active" bson:"is_active"`
	DeletedAt *time.Time         `json:"deleted_at,omitempty" bson:"deleted_at,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}
