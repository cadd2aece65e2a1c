package database

import (
	"time"

	"github.com/globalsign/mgo"
	"github.com/pkg/errors"

	"github.com/totegamma/xcheck/internal/domain"
)

func NewMongo(url string, timeout time.Duration) (*mgo.Session, error) {
	session, err := mgo.DialWithTimeout(url, timeout)
	if err != nil {
		return nil, errors.Wrap(err, "cannot open mongodb record store")
	}
	session.SetMode(mgo.Monotonic, true)
	return session, nil
}

// MigrateMongo creates the indexes the listings filter on.
func MigrateMongo(session *mgo.Session, db string) error {
	s := session.Copy()
	defer s.Close()

	indexes := map[domain.Collection][]string{
		domain.CollectionOrganizations: {domain.FieldOrgCategory},
		domain.CollectionNews:          {domain.FieldNewsLanguage},
		domain.CollectionFactCheck:     {domain.FieldNewsLanguage},
	}
	for coll, keys := range indexes {
		for _, key := range keys {
			err := s.DB(db).C(coll.String()).EnsureIndex(mgo.Index{
				Key:        []string{key},
				Background: true,
			})
			if err != nil {
				return errors.Wrapf(err, "ensure index %s.%s", coll, key)
			}
		}
	}
	return nil
}
