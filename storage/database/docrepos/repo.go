// Package docrepos implements the core repositories on top of a docstore.Store.
package docrepos

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/edutrack/storage/database/docstore"
)

// collections
const (
	usersColl       = "users"
	studentsColl    = "students"
	teachersColl    = "teachers"
	coursesColl     = "courses"
	blocksColl      = "blocks"
	assignmentsColl = "assignments"
	submissionsColl = "submissions"
	attendanceColl  = "attendance"
)

type repo struct {
	store docstore.Store
}

func newID() string {
	return uuid.New().String()
}

func (r repo) insert(ctx context.Context, coll, id string, keys []string, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encoding "+coll)
	}
	return r.store.Insert(ctx, coll, id, keys, body)
}

func (r repo) update(ctx context.Context, coll, id string, keys []string, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encoding "+coll)
	}
	return r.store.Update(ctx, coll, id, keys, body)
}

func (r repo) get(ctx context.Context, coll, id string, v interface{}) error {
	if id == "" {
		return docstore.ErrNotFound
	}
	body, err := r.store.Get(ctx, coll, id)
	if err != nil {
		return err
	}
	return errors.Wrap(json.Unmarshal(body, v), "decoding "+coll)
}

func (r repo) getByKey(ctx context.Context, coll, key string, v interface{}) error {
	body, err := r.store.GetByKey(ctx, coll, key)
	if err != nil {
		return err
	}
	return errors.Wrap(json.Unmarshal(body, v), "decoding "+coll)
}

// list decodes every document of coll & hands it to each.
func (r repo) list(ctx context.Context, coll string, newItem func() interface{}, each func(item interface{})) error {
	bodies, err := r.store.List(ctx, coll)
	if err != nil {
		return err
	}
	for _, body := range bodies {
		item := newItem()
		if err := json.Unmarshal(body, item); err != nil {
			return errors.Wrap(err, "decoding "+coll)
		}
		each(item)
	}
	return nil
}

// notFound maps docstore.ErrNotFound onto a domain error.
func notFound(err, domainErr error) error {
	if err == docstore.ErrNotFound {
		return domainErr
	}
	return err
}

func keysOf(pairs ...string) []string {
	keys := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			keys = append(keys, pairs[i]+":"+pairs[i+1])
		}
	}
	return keys
}
