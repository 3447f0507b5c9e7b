package condition

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Recognized predicate values. The set is closed on purpose: new predicates
// are added here and matched explicitly, never inferred from unknown keys.
const (
	OwnedBySelf = "self"
	SameCompany = "same"
)

// Conditions is the structured predicate attached to an advanced permission.
// Each field is an independent restriction; all present restrictions must
// hold for the permission to apply.
type Conditions struct {
	OwnedBy string `json:"owned_by,omitempty" bson:"owned_by,omitempty"` // "self"
	Company string `json:"company,omitempty" bson:"company,omitempty"`   // "same"
}

// IsEmpty reports whether no restriction is present (which means the
// permission applies without conditions).
func (c Conditions) IsEmpty() bool {
	return c.OwnedBy == "" && c.Company == ""
}

// Compile translates the conditions into a Mongo filter for list queries, so
// an own-scoped principal lists only the rows a per-row check would grant.
// personCompanyID may be nil; a same-company restriction then matches nothing.
func Compile(c Conditions, personID primitive.ObjectID, personCompanyID *primitive.ObjectID) bson.M {
	var clauses []bson.M

	if c.OwnedBy == OwnedBySelf {
		clauses = append(clauses, bson.M{"owner_id": personID})
	}
	if c.Company == SameCompany {
		if personCompanyID == nil {
			// No company on the acting person: the restriction can never hold.
			clauses = append(clauses, bson.M{"_id": primitive.NilObjectID})
		} else {
			clauses = append(clauses, bson.M{"company_id": *personCompanyID})
		}
	}

	switch len(clauses) {
	case 0:
		return bson.M{}
	case 1:
		return clauses[0]
	default:
		return bson.M{"$and": clauses}
	}
}
