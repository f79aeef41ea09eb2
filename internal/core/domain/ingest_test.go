package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIngestReport_Record(t *testing.T) {
	r := NewIngestReport("/photos")

	r.Record(IngestProgress{Path: "/photos/a.jpg", Outcome: OutcomeProcessed, Spans: 3})
	r.Record(IngestProgress{Path: "/photos/b.jpg", Outcome: OutcomeSkipped})
	r.Record(IngestProgress{Path: "/photos/c.jpg", Outcome: OutcomeFailed, Err: errors.New("blurry")})
	r.Record(IngestProgress{Path: "/photos/d.jpg", Outcome: OutcomeProcessed, Spans: 0})

	assert.Equal(t, "/photos", r.Directory)
	assert.Equal(t, 2, r.Processed)
	assert.Equal(t, 1, r.Skipped)
	assert.Equal(t, 1, r.Failed)
	assert.Equal(t, 3, r.Spans)
	assert.Equal(t, 4, r.Handled())
	assert.Equal(t, map[string]string{"/photos/c.jpg": "blurry"}, r.Failures)
}

func TestChangeType_String(t *testing.T) {
	assert.Equal(t, "created", ChangeCreated.String())
	assert.Equal(t, "updated", ChangeUpdated.String())
	assert.Equal(t, "deleted", ChangeDeleted.String())
	assert.Equal(t, "unknown", ChangeType(42).String())
}
