package record

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Record is a generic business row (an employee, trainer or course entry).
// The authorization core only cares about its ownership and company fields;
// everything else lives in Data and passes through field filtering opaquely.
type Record struct {
	ID        primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	TenantID  primitive.ObjectID     `json:"tenant_id" bson:"tenant_id"`
	Entity    string                 `json:"entity" bson:"entity"` // "employees", "trainers", "courses", ...
	OwnerID   primitive.ObjectID     `json:"owner_id" bson:"owner_id"`
	CompanyID *primitive.ObjectID    `json:"company_id,omitempty" bson:"company_id,omitempty"`
	Data      map[string]interface{} `json:"data" bson:"data"`
	Deleted   bool                   `json:"-" bson:"deleted"`
	CreatedAt time.Time              `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time              `json:"updated_at" bson:"updated_at"`
}
