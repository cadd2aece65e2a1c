package repository

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.opentelemetry.io/otel"

	"github.com/totegamma/xcheck/internal/domain"
)

var tracer = otel.Tracer("repository")

func withoutID(fields domain.Fields) domain.Fields {
	if _, ok := fields["_id"]; !ok {
		return fields
	}
	out := make(domain.Fields, len(fields))
	for k, v := range fields {
		if k != "_id" {
			out[k] = v
		}
	}
	return out
}

// bodyWithID returns body with its record id under "_id".
func bodyWithID(id string, body []byte) ([]byte, error) {
	if len(body) == 0 {
		body = []byte("{}")
	}
	b, err := sjson.SetBytes(body, "_id", id)
	if err != nil {
		return nil, errors.Wrap(err, "decode document")
	}
	return b, nil
}

func decodeBody(id string, body []byte, out any) error {
	b, err := bodyWithID(id, body)
	if err != nil {
		return err
	}
	return errors.Wrap(json.Unmarshal(b, out), "decode document")
}

func decodeList(bodies []json.RawMessage, out any) error {
	b, err := json.Marshal(bodies)
	if err != nil {
		return errors.Wrap(err, "decode documents")
	}
	return errors.Wrap(json.Unmarshal(b, out), "decode documents")
}

// applySetAndPush sets every field of set on body, then appends every value
// of push to the list field of the same name, starting a list when the field
// is absent or not a list.
func applySetAndPush(body []byte, set, push domain.Fields) ([]byte, error) {
	var err error
	if len(body) == 0 {
		body = []byte("{}")
	}
	for k, v := range withoutID(set) {
		body, err = sjson.SetBytes(body, escapePath(k), v)
		if err != nil {
			return nil, errors.Wrapf(err, "set %s", k)
		}
	}
	for k, v := range push {
		path := escapePath(k)
		if gjson.GetBytes(body, path).IsArray() {
			body, err = sjson.SetBytes(body, path+".-1", v)
		} else {
			body, err = sjson.SetBytes(body, path, []any{v})
		}
		if err != nil {
			return nil, errors.Wrapf(err, "push %s", k)
		}
	}
	return body, nil
}

func escapePath(key string) string {
	out := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		switch key[i] {
		case '.', '*', '?', '|', '#', '@', '\\':
			out = append(out, '\\')
		}
		out = append(out, key[i])
	}
	return string(out)
}
