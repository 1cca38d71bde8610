package inmemdb

import (
	"context"
	"sync"

	"github.com/trezcool/edutrack/storage/database/docstore"
)

type collection struct {
	docs    map[string][]byte
	order   []string
	keys    map[string]string   // {key: id}
	docKeys map[string][]string // {id: keys}
}

func newCollection() *collection {
	return &collection{
		docs:    make(map[string][]byte),
		keys:    make(map[string]string),
		docKeys: make(map[string][]string),
	}
}

// Store is an in-memory docstore.Store.
type Store struct {
	mutex sync.RWMutex
	colls map[string]*collection
}

var _ docstore.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{colls: make(map[string]*collection)}
}

// Reset drops every collection.
func (s *Store) Reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.colls = make(map[string]*collection)
}

func (s *Store) coll(name string) *collection {
	c, ok := s.colls[name]
	if !ok {
		c = newCollection()
		s.colls[name] = c
	}
	return c
}

func (s *Store) Insert(_ context.Context, coll, id string, keys []string, body []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	c := s.coll(coll)
	if _, ok := c.docs[id]; ok {
		return docstore.ErrDuplicate
	}
	for _, k := range keys {
		if _, ok := c.keys[k]; ok {
			return docstore.ErrDuplicate
		}
	}
	c.docs[id] = clone(body)
	c.order = append(c.order, id)
	c.setKeys(id, keys)
	return nil
}

func (s *Store) Update(_ context.Context, coll, id string, keys []string, body []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	c := s.coll(coll)
	if _, ok := c.docs[id]; !ok {
		return docstore.ErrNotFound
	}
	for _, k := range keys {
		if owner, ok := c.keys[k]; ok && owner != id {
			return docstore.ErrDuplicate
		}
	}
	c.docs[id] = clone(body)
	c.dropKeys(id)
	c.setKeys(id, keys)
	return nil
}

func (s *Store) Get(_ context.Context, coll, id string) ([]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if c, ok := s.colls[coll]; ok {
		if body, ok := c.docs[id]; ok {
			return clone(body), nil
		}
	}
	return nil, docstore.ErrNotFound
}

func (s *Store) GetByKey(_ context.Context, coll, key string) ([]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if c, ok := s.colls[coll]; ok {
		if id, ok := c.keys[key]; ok {
			return clone(c.docs[id]), nil
		}
	}
	return nil, docstore.ErrNotFound
}

func (s *Store) List(_ context.Context, coll string) ([][]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	c, ok := s.colls[coll]
	if !ok {
		return nil, nil
	}
	bodies := make([][]byte, 0, len(c.order))
	for _, id := range c.order {
		bodies = append(bodies, clone(c.docs[id]))
	}
	return bodies, nil
}

func (s *Store) Delete(_ context.Context, coll string, ids ...string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	c, ok := s.colls[coll]
	if !ok {
		return nil
	}
	for _, id := range ids {
		if _, ok := c.docs[id]; !ok {
			continue
		}
		delete(c.docs, id)
		c.dropKeys(id)
		for i, oid := range c.order {
			if oid == id {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (c *collection) setKeys(id string, keys []string) {
	for _, k := range keys {
		c.keys[k] = id
	}
	c.docKeys[id] = append([]string(nil), keys...)
}

func (c *collection) dropKeys(id string) {
	for _, k := range c.docKeys[id] {
		delete(c.keys, k)
	}
	delete(c.docKeys, id)
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
