package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeEOLTime(t *testing.T) {
	eol, ok := (&Envelope{EOLDate: "2030-04-23"}).EOLTime()
	require.True(t, ok)
	assert.Equal(t, time.Date(2030, time.April, 23, 0, 0, 0, 0, time.UTC), eol)

	_, ok = (&Envelope{}).EOLTime()
	assert.False(t, ok, "absent date must not read as a valid time")

	_, ok = (&Envelope{EOLDate: "April 2030"}).EOLTime()
	assert.False(t, ok, "non-ISO date must not read as a valid time")
}

func TestEnvelopeClone(t *testing.T) {
	original := &Envelope{
		Success:        true,
		Software:       "Ubuntu",
		EOLDate:        "2030-04-23",
		Error:          &ErrorInfo{Code: "x", Message: "y"},
		AdditionalData: map[string]any{"cycle": "20.04"},
	}

	clone := original.Clone()
	clone.EOLDate = "2099-01-01"
	clone.Error.Code = "changed"
	clone.AdditionalData["cycle"] = "changed"

	assert.Equal(t, "2030-04-23", original.EOLDate)
	assert.Equal(t, "x", original.Error.Code)
	assert.Equal(t, "20.04", original.AdditionalData["cycle"])

	assert.Nil(t, (*Envelope)(nil).Clone())
}
