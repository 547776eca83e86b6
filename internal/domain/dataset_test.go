package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDataset(t *testing.T) *Dataset {
	t.Helper()
	rows := [][]string{
		{"Jaro", "2019-01-07", "1", "30", "80", "1"},
		{"Iloilo City", "2019-01-07", "5", "31", "82", "4"},
		{"Jaro", "2019-01-14", "0", "29", "81", "0"},
		{"Iloilo City", "2020-01-06", "3", "32", "79", "2"},
	}
	ds, err := BuildDataset(testSource, testHeader, rows, DefaultCovariates)
	require.NoError(t, err)
	return ds
}

func TestFilterByCity_PreservesOrder(t *testing.T) {
	ds := testDataset(t)

	s := ds.FilterByCity("Iloilo City")
	require.Equal(t, 2, s.Len())
	records := s.Records()
	assert.Equal(t, 5, records[0].CaseTotal)
	assert.Equal(t, 3, records[1].CaseTotal)
	for _, r := range records {
		assert.Equal(t, "Iloilo City", r.CityID)
	}
	assert.True(t, s.HasCovariate(CovariateHeatIndex))
}

func TestFilterByCity_UnknownCityIsEmpty(t *testing.T) {
	s := testDataset(t).FilterByCity("Bacolod")
	assert.True(t, s.Empty())
	assert.Equal(t, "Bacolod", s.City)
	assert.True(t, s.HasCovariate(CovariateHeatIndex), "schema survives an empty subset")
}

func TestRequireCity(t *testing.T) {
	ds := testDataset(t)

	s, err := ds.RequireCity("Jaro")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	_, err = ds.RequireCity("Bacolod")
	var target *UnknownCityError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "Bacolod", target.City)
}

func TestDataset_IsReadOnly(t *testing.T) {
	ds := testDataset(t)

	records := ds.Records()
	records[0].CaseTotal = 999
	cities := ds.Cities()
	cities[0] = "mutated"

	assert.Equal(t, 1, ds.Records()[0].CaseTotal)
	assert.Equal(t, []string{"Iloilo City", "Jaro"}, ds.Cities())
	assert.True(t, ds.HasCity("Jaro"))
	assert.False(t, ds.HasCity("mutated"))
}
