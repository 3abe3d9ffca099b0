package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHospitalFromDocument(t *testing.T) {
	doc := map[string]interface{}{
		"id":                "hosp-1",
		"name":              "Toronto General Hospital",
		"address":           "200 Elizabeth St, Toronto",
		"is_active":         true,
		"baseline_wait_min": float64(45),
		"current_queue":     float64(12),
		"location":          []interface{}{43.6596, -79.3886},
		"specialties":       []interface{}{"trauma", "cardiology"},
	}

	hospital := hospitalFromDocument(doc)

	assert.Equal(t, "hosp-1", hospital.ID)
	assert.Equal(t, "Toronto General Hospital", hospital.Name)
	assert.Equal(t, 45, hospital.BaselineWaitMin)
	assert.Equal(t, 12, hospital.CurrentQueue)
	assert.InDelta(t, 43.6596, hospital.Location.Latitude, 0.0001)
	assert.Equal(t, []string{"trauma", "cardiology"}, hospital.Specialties)
}

func TestHospitalFromDocumentMissingFields(t *testing.T) {
	hospital := hospitalFromDocument(map[string]interface{}{"id": "hosp-2"})

	assert.Equal(t, "hosp-2", hospital.ID)
	assert.Empty(t, hospital.Name)
	assert.Zero(t, hospital.BaselineWaitMin)
	assert.Nil(t, hospital.Specialties)
}
