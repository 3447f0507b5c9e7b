package permission

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"go-bms/internal/features/person"
	"go-bms/internal/features/record"
	"go-bms/pkg/condition"
)

type fakePersons struct {
	persons map[string]*person.Person
	err     error
}

func (f *fakePersons) Create(context.Context, *person.Person) error { return nil }

func (f *fakePersons) FindByID(_ context.Context, id string) (*person.Person, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.persons[id], nil
}

func (f *fakePersons) FindByIDs(context.Context, []string) ([]person.Person, error) {
	return nil, nil
}

func (f *fakePersons) BelongsToTenant(context.Context, string, string) (bool, error) {
	return true, nil
}

type fakeRecords struct {
	records map[string]*record.Record
	err     error
}

func (f *fakeRecords) FindByID(_ context.Context, id string) (*record.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records[id], nil
}

func (f *fakeRecords) List(context.Context, string, bson.M) ([]record.Record, error) {
	return nil, nil
}

func newConditionEvaluator(persons *fakePersons, records *fakeRecords) ConditionEvaluator {
	if persons == nil {
		persons = &fakePersons{}
	}
	if records == nil {
		records = &fakeRecords{}
	}
	return NewConditionEvaluator(persons, records, zap.NewNop())
}

func TestEvaluateEmptyConditionsSatisfied(t *testing.T) {
	e := newConditionEvaluator(nil, nil)
	if !e.Evaluate(context.Background(), condition.Conditions{}, "p1", "r1") {
		t.Error("empty conditions must not restrict")
	}
}

func TestEvaluateOwnedBySelf(t *testing.T) {
	personID := primitive.NewObjectID()
	ownRecord := primitive.NewObjectID()
	foreignRecord := primitive.NewObjectID()

	records := &fakeRecords{records: map[string]*record.Record{
		ownRecord.Hex():     {ID: ownRecord, OwnerID: personID},
		foreignRecord.Hex(): {ID: foreignRecord, OwnerID: primitive.NewObjectID()},
	}}
	e := newConditionEvaluator(nil, records)
	c := condition.Conditions{OwnedBy: condition.OwnedBySelf}

	if !e.Evaluate(context.Background(), c, personID.Hex(), personID.Hex()) {
		t.Error("resource id equal to person id must satisfy ownedBy self")
	}
	if !e.Evaluate(context.Background(), c, personID.Hex(), ownRecord.Hex()) {
		t.Error("record owned by the person must satisfy ownedBy self")
	}
	if e.Evaluate(context.Background(), c, personID.Hex(), foreignRecord.Hex()) {
		t.Error("foreign record must not satisfy ownedBy self")
	}
	if e.Evaluate(context.Background(), c, personID.Hex(), "") {
		t.Error("missing resource id must not satisfy ownedBy self")
	}
}

func TestEvaluateSameCompany(t *testing.T) {
	companyID := primitive.NewObjectID()
	otherCompany := primitive.NewObjectID()
	personID := primitive.NewObjectID()
	personNoCompany := primitive.NewObjectID()
	recSame := primitive.NewObjectID()
	recOther := primitive.NewObjectID()
	recNoCompany := primitive.NewObjectID()

	persons := &fakePersons{persons: map[string]*person.Person{
		personID.Hex():        {ID: personID, CompanyID: &companyID},
		personNoCompany.Hex(): {ID: personNoCompany},
	}}
	records := &fakeRecords{records: map[string]*record.Record{
		recSame.Hex():      {ID: recSame, CompanyID: &companyID},
		recOther.Hex():     {ID: recOther, CompanyID: &otherCompany},
		recNoCompany.Hex(): {ID: recNoCompany},
	}}
	e := newConditionEvaluator(persons, records)
	c := condition.Conditions{Company: condition.SameCompany}

	if !e.Evaluate(context.Background(), c, personID.Hex(), recSame.Hex()) {
		t.Error("matching companies must satisfy")
	}
	if e.Evaluate(context.Background(), c, personID.Hex(), recOther.Hex()) {
		t.Error("different companies must not satisfy")
	}
	if e.Evaluate(context.Background(), c, personID.Hex(), recNoCompany.Hex()) {
		t.Error("record without a company must not satisfy")
	}
	if e.Evaluate(context.Background(), c, personNoCompany.Hex(), recSame.Hex()) {
		t.Error("person without a company must not satisfy")
	}
}

func TestEvaluateLookupErrorFailsClosed(t *testing.T) {
	records := &fakeRecords{err: errors.New("socket closed")}
	e := newConditionEvaluator(nil, records)
	c := condition.Conditions{OwnedBy: condition.OwnedBySelf}

	if e.Evaluate(context.Background(), c, "p1", primitive.NewObjectID().Hex()) {
		t.Error("lookup error must not satisfy a condition")
	}
}
