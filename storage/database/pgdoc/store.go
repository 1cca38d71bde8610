package pgdocdb

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/edutrack/core"
	"github.com/trezcool/edutrack/storage/database/docstore"
)

const uniqueViolation = "23505"

// Store is a PostgreSQL docstore.Store: documents are JSONB rows, keys live in document_keys.
type Store struct {
	db *sqlx.DB
}

var _ docstore.Store = (*Store)(nil)

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Insert(ctx context.Context, coll, id string, keys []string, body []byte) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		q := `INSERT INTO documents (collection, id, body) VALUES ($1, $2, $3)`
		if _, err := tx.ExecContext(ctx, q, coll, id, body); err != nil {
			return translate(err, "inserting document")
		}
		return insertKeys(ctx, tx, coll, id, keys)
	})
}

func (s *Store) Update(ctx context.Context, coll, id string, keys []string, body []byte) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		q := `UPDATE documents SET body = $3, updated_at = NOW() WHERE collection = $1 AND id = $2`
		res, err := tx.ExecContext(ctx, q, coll, id, body)
		if err != nil {
			return translate(err, "updating document")
		}
		if n, err := res.RowsAffected(); err != nil {
			return errors.Wrap(err, "updating document")
		} else if n == 0 {
			return docstore.ErrNotFound
		}

		q = `DELETE FROM document_keys WHERE collection = $1 AND id = $2`
		if _, err := tx.ExecContext(ctx, q, coll, id); err != nil {
			return errors.Wrap(err, "deleting document keys")
		}
		return insertKeys(ctx, tx, coll, id, keys)
	})
}

func (s *Store) Get(ctx context.Context, coll, id string) ([]byte, error) {
	var body []byte
	q := `SELECT body FROM documents WHERE collection = $1 AND id = $2`
	if err := s.db.GetContext(ctx, &body, q, coll, id); err != nil {
		return nil, translate(err, "getting document")
	}
	return body, nil
}

func (s *Store) GetByKey(ctx context.Context, coll, key string) ([]byte, error) {
	var body []byte
	q := `SELECT d.body FROM documents d
		JOIN document_keys k ON k.collection = d.collection AND k.id = d.id
		WHERE k.collection = $1 AND k.key = $2`
	if err := s.db.GetContext(ctx, &body, q, coll, key); err != nil {
		return nil, translate(err, "getting document by key")
	}
	return body, nil
}

func (s *Store) List(ctx context.Context, coll string) ([][]byte, error) {
	var bodies [][]byte
	q := `SELECT body FROM documents WHERE collection = $1 ORDER BY created_at, id`
	if err := s.db.SelectContext(ctx, &bodies, q, coll); err != nil {
		return nil, translate(err, "listing documents")
	}
	return bodies, nil
}

func (s *Store) Delete(ctx context.Context, coll string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q := `DELETE FROM documents WHERE collection = $1 AND id = ANY($2)`
	if _, err := s.db.ExecContext(ctx, q, coll, pq.Array(ids)); err != nil {
		return translate(err, "deleting documents")
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return translate(err, "beginning transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func insertKeys(ctx context.Context, tx *sqlx.Tx, coll, id string, keys []string) error {
	q := `INSERT INTO document_keys (collection, key, id) VALUES ($1, $2, $3)`
	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, q, coll, k, id); err != nil {
			return translate(err, "inserting document key")
		}
	}
	return nil
}

// translate maps driver errors onto docstore errors. A closed connection pool is fatal to the app.
func translate(err error, msg string) error {
	switch errors.Cause(err) {
	case sql.ErrNoRows:
		return docstore.ErrNotFound
	case sql.ErrConnDone:
		return core.NewShutdownError(msg + ": database connection closed")
	}
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == uniqueViolation {
		return docstore.ErrDuplicate
	}
	return errors.Wrap(err, msg)
}
