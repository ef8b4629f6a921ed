package db

import (
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swasthyasathi/pkg"
)

func TestBuildUpdate_OnlyTouchesSetFields(t *testing.T) {
	step := pkg.StepGender
	age := 42

	query, args := buildUpdate("919000000001", pkg.ProfileUpdate{Step: &step, Age: &age})

	assert.Equal(t,
		"UPDATE users SET onboarding_step = $1, age = $2, last_active = NOW() WHERE phone_number = $3",
		query)
	require.Len(t, args, 3)
	assert.Equal(t, pkg.StepGender, args[0])
	assert.Equal(t, 42, args[1])
	assert.Equal(t, "919000000001", args[2])
}

func TestBuildUpdate_EmptyUpdateRefreshesLastActive(t *testing.T) {
	query, args := buildUpdate("1", pkg.ProfileUpdate{})

	assert.Equal(t, "UPDATE users SET last_active = NOW() WHERE phone_number = $1", query)
	assert.Equal(t, []interface{}{"1"}, args)
}

func TestBuildUpdate_ClearsPendingMediaWithNull(t *testing.T) {
	empty := ""

	query, args := buildUpdate("1", pkg.ProfileUpdate{PendingMediaID: &empty})

	assert.Contains(t, query, "pending_media_id = $1")
	assert.Equal(t, sql.NullString{}, args[0])
}

func TestBuildUpdate_Location(t *testing.T) {
	lat := 20.46
	loc := pkg.Location{City: "Cuttack", State: "Odisha", Latitude: &lat}

	query, args := buildUpdate("1", pkg.ProfileUpdate{Location: &loc})

	assert.Contains(t, query, "pincode = $1, city = $2, state = $3, district = $4, subdistrict = $5, latitude = $6, longitude = $7")
	assert.Equal(t, sql.NullString{}, args[0])
	assert.Equal(t, sql.NullString{String: "Cuttack", Valid: true}, args[1])
	assert.Equal(t, sql.NullFloat64{Float64: 20.46, Valid: true}, args[5])
	assert.Equal(t, sql.NullFloat64{}, args[6])
}

func TestBuildUpdate_NoneConditionsStoreEmptyArray(t *testing.T) {
	var none []string

	_, args := buildUpdate("1", pkg.ProfileUpdate{ChronicConditions: &none})

	assert.Equal(t, pq.Array([]string{}), args[0])
}
