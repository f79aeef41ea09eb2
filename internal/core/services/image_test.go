package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/recall/internal/core/domain"
)

func TestImageService_Get(t *testing.T) {
	store := memory.NewImageStore()
	seedImage(t, store, "1", "/p/a.jpg", span("first", 1), span("second", 1))
	svc := NewImageService(store)
	ctx := context.Background()

	rec, spans, err := svc.Get(ctx, "/p/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "1", rec.ID)
	assert.Equal(t, []string{"first", "second"}, spanTexts(spans))

	rec, spans, err = svc.GetByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "/p/a.jpg", rec.Path)
	assert.Len(t, spans, 2)

	_, _, err = svc.Get(ctx, "/p/missing.jpg")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, _, err = svc.Get(ctx, " ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestImageService_List(t *testing.T) {
	store := memory.NewImageStore()
	ctx := context.Background()
	seedImage(t, store, "1", "/p/a.jpg")
	require.NoError(t, store.FailImage(ctx, domain.NewImageRecord("2", "/p/b.jpg", time.Now())))
	seedImage(t, store, "3", "/q/c.jpg")
	svc := NewImageService(store)

	all, err := svc.List(ctx, domain.ImageFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	failed, err := svc.List(ctx, domain.ImageFilter{Status: domain.StatusFailed, Directory: "/p"})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "/p/b.jpg", failed[0].Path)

	_, err = svc.List(ctx, domain.ImageFilter{Status: "archived"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestImageService_Stats(t *testing.T) {
	store := memory.NewImageStore()
	seedImage(t, store, "1", "/p/a.jpg", span("x", 1))
	svc := NewImageService(store)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Done)
	assert.Equal(t, 1, stats.Spans)
}
