package inmemdb

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/edutrack/storage/database/docstore"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.Insert(ctx, "courses", "1", []string{"code:MAT-101"}, []byte(`{"n":1}`)))
	require.NoError(t, s.Insert(ctx, "courses", "2", []string{"code:HIS-201"}, []byte(`{"n":2}`)))
	require.NoError(t, s.Insert(ctx, "blocks", "1", []string{"code:MAT-101"}, []byte(`{}`)), "keys are per collection")

	assert.Equal(t, docstore.ErrDuplicate, s.Insert(ctx, "courses", "1", nil, []byte(`{}`)))
	assert.Equal(t, docstore.ErrDuplicate, s.Insert(ctx, "courses", "3", []string{"code:MAT-101"}, []byte(`{}`)))

	body, err := s.GetByKey(ctx, "courses", "code:HIS-201")
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":2}`, string(body))

	body[0] = 'x'
	body, _ = s.Get(ctx, "courses", "2")
	assert.JSONEq(t, `{"n":2}`, string(body), "returned bodies are copies")

	assert.Equal(t, docstore.ErrDuplicate, s.Update(ctx, "courses", "2", []string{"code:MAT-101"}, []byte(`{}`)))
	assert.Equal(t, docstore.ErrNotFound, s.Update(ctx, "courses", "9", nil, []byte(`{}`)))

	require.NoError(t, s.Update(ctx, "courses", "2", []string{"code:HIS-202"}, []byte(`{"n":22}`)))
	_, err = s.GetByKey(ctx, "courses", "code:HIS-201")
	assert.Equal(t, docstore.ErrNotFound, err, "old key released")
	body, err = s.GetByKey(ctx, "courses", "code:HIS-202")
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":22}`, string(body))

	require.NoError(t, s.Insert(ctx, "courses", "3", []string{"code:HIS-201"}, []byte(`{"n":3}`)))
	list, err := s.List(ctx, "courses")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.JSONEq(t, `{"n":1}`, string(list[0]))
	assert.JSONEq(t, `{"n":3}`, string(list[2]))

	require.NoError(t, s.Delete(ctx, "courses", "1", "404"))
	_, err = s.Get(ctx, "courses", "1")
	assert.Equal(t, docstore.ErrNotFound, err)
	require.NoError(t, s.Insert(ctx, "courses", "4", []string{"code:MAT-101"}, []byte(`{}`)), "deleted key is free")

	list, _ = s.List(ctx, "unknown")
	assert.Empty(t, list)

	s.Reset()
	list, _ = s.List(ctx, "courses")
	assert.Empty(t, list)
}

func TestStore_concurrentInserts(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.Insert(ctx, "attendance", fmt.Sprint(i), []string{"day:c1/2024-03-04"}, []byte(`{}`))
		}(i)
	}
	wg.Wait()
	close(errs)

	var ok int
	for err := range errs {
		if err == nil {
			ok++
		} else {
			assert.Equal(t, docstore.ErrDuplicate, err)
		}
	}
	assert.Equal(t, 1, ok, "a unique key is granted once")
}
