package repository

import (
	"context"
	"encoding/json"

	"github.com/globalsign/mgo"
	"github.com/globalsign/mgo/bson"
	"github.com/pkg/errors"

	"github.com/totegamma/xcheck/internal/domain"
)

// MongoRepository stores documents in one Mongo collection per domain
// collection, keyed by ObjectId.
type MongoRepository struct {
	session *mgo.Session
	db      string
}

func NewMongoRepository(session *mgo.Session, db string) *MongoRepository {
	return &MongoRepository{session: session, db: db}
}

// with runs fn on a copy of the pooled session.
func (r *MongoRepository) with(coll domain.Collection, fn func(c *mgo.Collection) error) error {
	s := r.session.Copy()
	defer s.Close()
	return fn(s.DB(r.db).C(coll.String()))
}

func objectID(coll domain.Collection, id string) (bson.ObjectId, error) {
	if !bson.IsObjectIdHex(id) {
		return "", domain.NotFoundError{Resource: coll.String()}
	}
	return bson.ObjectIdHex(id), nil
}

func (r *MongoRepository) Get(ctx context.Context, coll domain.Collection, id string, out any) error {
	_, span := tracer.Start(ctx, "Repository.Mongo.Get")
	defer span.End()

	oid, err := objectID(coll, id)
	if err != nil {
		return err
	}

	var doc bson.M
	err = r.with(coll, func(c *mgo.Collection) error {
		return c.FindId(oid).One(&doc)
	})
	if err == mgo.ErrNotFound {
		return domain.NotFoundError{Resource: coll.String()}
	}
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "get document")
	}

	b, err := json.Marshal(plain(doc))
	if err != nil {
		return errors.Wrap(err, "decode document")
	}
	return errors.Wrap(json.Unmarshal(b, out), "decode document")
}

func (r *MongoRepository) Upsert(ctx context.Context, coll domain.Collection, id string, fields domain.Fields) error {
	_, span := tracer.Start(ctx, "Repository.Mongo.Upsert")
	defer span.End()

	oid, err := objectID(coll, id)
	if err != nil {
		return err
	}

	err = r.with(coll, func(c *mgo.Collection) error {
		_, err := c.UpsertId(oid, bson.M{"$set": bson.M(withoutID(fields))})
		return err
	})
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "upsert document")
	}
	return nil
}

func (r *MongoRepository) SetAndPush(ctx context.Context, coll domain.Collection, id string, set, push domain.Fields) error {
	_, span := tracer.Start(ctx, "Repository.Mongo.SetAndPush")
	defer span.End()

	oid, err := objectID(coll, id)
	if err != nil {
		return err
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = bson.M(withoutID(set))
	}
	if len(push) > 0 {
		update["$push"] = bson.M(push)
	}
	if len(update) == 0 {
		return nil
	}

	err = r.with(coll, func(c *mgo.Collection) error {
		_, err := c.UpsertId(oid, update)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "set and push document")
	}
	return nil
}

func (r *MongoRepository) List(ctx context.Context, coll domain.Collection, filter domain.Fields, out any) error {
	_, span := tracer.Start(ctx, "Repository.Mongo.List")
	defer span.End()

	docs := []bson.M{}
	err := r.with(coll, func(c *mgo.Collection) error {
		return c.Find(bson.M(filter)).Sort("-_id").All(&docs)
	})
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "list documents")
	}

	items := make([]any, 0, len(docs))
	for _, doc := range docs {
		items = append(items, plain(doc))
	}
	b, err := json.Marshal(items)
	if err != nil {
		return errors.Wrap(err, "decode documents")
	}
	return errors.Wrap(json.Unmarshal(b, out), "decode documents")
}

// plain converts a decoded BSON value into JSON friendly values. ObjectIds
// become their hex form.
func plain(v any) any {
	switch x := v.(type) {
	case bson.ObjectId:
		return x.Hex()
	case bson.M:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = plain(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = plain(e)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(x))
		for _, e := range x {
			out[e.Name] = plain(e.Value)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plain(e)
		}
		return out
	default:
		return v
	}
}
