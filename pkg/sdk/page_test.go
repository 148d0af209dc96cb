package sdk_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picobrain/console/pkg/sdk"
)

func TestPageDecodesPaginatedEnvelope(t *testing.T) {
	payload := `{"items":[{"id":"c1","code":"LON","name":"London","functional_currency":"GBP","is_active":true}],"total":37,"page":1,"page_size":20}`

	var page sdk.Page[sdk.Clinic]
	require.NoError(t, json.Unmarshal([]byte(payload), &page))

	require.Len(t, page.Items, 1)
	assert.Equal(t, "London", page.Items[0].Name)
	assert.Equal(t, 37, page.Total)
}

func TestPageDecodesBareSequence(t *testing.T) {
	// Some endpoints return a bare array; its length stands in for the
	// total even though the server may have applied a smaller limit.
	payload := `[{"id":"c1","code":"LON","name":"London","functional_currency":"GBP","is_active":true},
	             {"id":"c2","code":"PAR","name":"Paris","functional_currency":"EUR","is_active":true}]`

	var page sdk.Page[sdk.Clinic]
	require.NoError(t, json.Unmarshal([]byte(payload), &page))

	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.Total)
}

func TestPageEmptyEnvelope(t *testing.T) {
	var page sdk.Page[sdk.Employee]
	require.NoError(t, json.Unmarshal([]byte(`{"items":[],"total":0}`), &page))
	assert.Empty(t, page.Items)
	assert.Zero(t, page.Total)
}
