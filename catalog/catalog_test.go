package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sub", "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateListDelete(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	products, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)

	a, err := s.Create(ctx, Product{Name: " Red Chair ", Category: "furniture", ImageURL: "http://x/a.png"})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "Red Chair", a.Name)

	b, err := s.Create(ctx, Product{Name: "Lamp", ImageURL: "http://x/b.png"})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	urls, err := s.ImageURLs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://x/a.png", "http://x/b.png"}, urls)

	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "furniture", got.Category)

	require.NoError(t, s.Delete(ctx, a.ID))
	assert.ErrorIs(t, s.Delete(ctx, a.ID), ErrNotFound)

	_, err = s.Get(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	products, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, b.ID, products[0].ID)
}

func TestCreateValidation(t *testing.T) {
	s := openTemp(t)

	_, err := s.Create(context.Background(), Product{Name: "x"})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = s.Create(context.Background(), Product{ImageURL: "http://x"})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Create(ctx, Product{Name: "Mug", ImageURL: "http://x/mug.jpg"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	urls, err := s.ImageURLs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://x/mug.jpg"}, urls)
}
