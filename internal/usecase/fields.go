package usecase

import (
	"encoding/json"

	"github.com/globalsign/mgo/bson"
	"github.com/pkg/errors"

	"github.com/totegamma/xcheck/internal/domain"
)

var errInvalidID = errors.New("invalid _id")

// newRecordID issues ids for entities posted without one.
var newRecordID = func() string {
	return bson.NewObjectId().Hex()
}

// toFields flattens an entity into document fields, leaving out its id.
func toFields(v any) (domain.Fields, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields domain.Fields
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	delete(fields, "_id")
	return fields, nil
}

func merge(dst domain.Fields, src domain.Fields) domain.Fields {
	if dst == nil {
		dst = domain.Fields{}
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func validateID(name, id string) error {
	if !domain.IsRecordID(id) {
		return domain.NewError(domain.KindValidation, name, errInvalidID)
	}
	return nil
}

// stringField reads key of a stored document, or "" when it is absent or not
// a string.
func stringField(doc domain.Fields, key string) string {
	s, _ := doc[key].(string)
	return s
}

// firstString reads the first element of the list at key.
func firstString(doc domain.Fields, key string) string {
	switch list := doc[key].(type) {
	case []any:
		if len(list) > 0 {
			s, _ := list[0].(string)
			return s
		}
	case []string:
		if len(list) > 0 {
			return list[0]
		}
	}
	return ""
}

// withRecordID returns a copy of doc carrying id under "_id".
func withRecordID(doc domain.Fields, id string) domain.Fields {
	out := make(domain.Fields, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}
	out["_id"] = id
	return out
}

// withoutRecordID returns a copy of doc without its "_id".
func withoutRecordID(doc domain.Fields) domain.Fields {
	out := make(domain.Fields, len(doc))
	for k, v := range doc {
		if k != "_id" {
			out[k] = v
		}
	}
	return out
}
