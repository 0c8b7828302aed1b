package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservation_IsGroup(t *testing.T) {
	o := &Observation{}
	assert.False(t, o.IsGroup())

	o.GroupMembers = []*Observation{{}}
	assert.True(t, o.IsGroup())
}

func TestObservation_HasValue(t *testing.T) {
	assert.False(t, (&Observation{}).HasValue())

	b := true
	assert.True(t, (&Observation{ValueBoolean: &b}).HasValue())

	name := "Eosinophil count"
	assert.True(t, (&Observation{ValueCodedName: &name}).HasValue())

	d := decimal.NewFromInt(120)
	assert.True(t, (&Observation{ValueNumeric: &d}).HasValue())

	now := time.Now()
	assert.True(t, (&Observation{ValueDatetime: &now}).HasValue())
}

func TestObservation_DecodeJSON(t *testing.T) {
	payload := `{
		"personId": 42,
		"observedAt": "2024-05-01T10:00:00Z",
		"concept": {"id": 5089, "name": "Weight", "datatype": "numeric"},
		"valueNumeric": 72.5
	}`

	var obs Observation
	require.NoError(t, json.Unmarshal([]byte(payload), &obs))

	require.NotNil(t, obs.PersonID)
	assert.Equal(t, 42, *obs.PersonID)
	require.NotNil(t, obs.Concept)
	assert.Equal(t, DatatypeNumeric, obs.Concept.Datatype)
	require.NotNil(t, obs.ValueNumeric)
	assert.True(t, obs.ValueNumeric.Equal(decimal.RequireFromString("72.5")))
	assert.False(t, obs.IsGroup())
}

func TestObservation_DecodeGroupJSON(t *testing.T) {
	payload := `{
		"personId": 42,
		"observedAt": "2024-05-01T10:00:00Z",
		"concept": {"id": 1, "datatype": "n/a"},
		"groupMembers": [
			{"concept": {"id": 2, "datatype": "boolean"}, "valueBoolean": true}
		]
	}`

	var obs Observation
	require.NoError(t, json.Unmarshal([]byte(payload), &obs))

	require.True(t, obs.IsGroup())
	require.Len(t, obs.GroupMembers, 1)
	assert.Equal(t, DatatypeBoolean, obs.GroupMembers[0].Concept.Datatype)
}

func TestDatatype_IsDateFamily(t *testing.T) {
	assert.True(t, DatatypeDateTime.IsDateFamily())
	assert.True(t, DatatypeDate.IsDateFamily())
	assert.True(t, DatatypeTime.IsDateFamily())
	assert.False(t, DatatypeNumeric.IsDateFamily())
	assert.False(t, DatatypeNA.IsDateFamily())
}
