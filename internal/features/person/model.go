package person

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Person is an authenticated principal. TenantID is empty for global
// principals, which instead carry a GlobalRole (e.g. SUPER_ADMIN).
type Person struct {
	ID         primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	TenantID   primitive.ObjectID  `json:"tenant_id,omitempty" bson:"tenant_id,omitempty"`
	CompanyID  *primitive.ObjectID `json:"company_id,omitempty" bson:"company_id,omitempty"`
	FirstName  string              `json:"first_name" bson:"first_name"`
	LastName   string              `json:"last_name" bson:"last_name"`
	Email      string              `json:"email" bson:"email"`
	GlobalRole string              `json:"global_role,omitempty" bson:"global_role,omitempty"`
	DeletedAt  *time.Time          `json:"deleted_at,omitempty" bson:"deleted_at,omitempty"`
	CreatedAt  time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at" bson:"updated_at"`
}

// IsGlobal reports whether the person is a tenant-less principal with a
// system-wide role.
func (p *Person) IsGlobal() bool {
	return p.TenantID.IsZero() && p.GlobalRole != ""
}
