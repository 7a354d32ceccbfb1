package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/langchou/wattgazer/internal/models"
)

func demoDevices() []*models.Device {
	return []*models.Device{
		{ID: 1, Name: "Living Room AC", Type: "AC"},
		{ID: 2, Name: "Kitchen Refrigerator", Type: "Refrigerator"},
		{ID: 3, Name: "Master Bedroom Heater", Type: "Heater"},
		{ID: 4, Name: "Bedroom AC", Type: "AC"},
		{ID: 5, Name: "Washing Machine", Type: "Appliance"},
	}
}

func TestMatchDevices_NameHintCaseInsensitive(t *testing.T) {
	scope := MatchDevices(demoDevices(), "ac", "")
	assert.Equal(t, []int64{1}, scope.DeviceIDs)
	assert.Equal(t, MatchByName, scope.Reason)
	assert.False(t, scope.All())
}

func TestMatchDevices_NameHintFirstMatchWins(t *testing.T) {
	scope := MatchDevices(demoDevices(), "BEDROOM", "")
	assert.Equal(t, []int64{3}, scope.DeviceIDs)
}

func TestMatchDevices_NameHintUnmatchedFallsBackToAll(t *testing.T) {
	scope := MatchDevices(demoDevices(), "xyz", "AC")
	assert.True(t, scope.All())
	assert.True(t, scope.Ambiguous())
	assert.Equal(t, MatchNameAmbiguous, scope.Reason)
}

func TestMatchDevices_TypeHintMatchesMany(t *testing.T) {
	scope := MatchDevices(demoDevices(), "", "ac")
	assert.Equal(t, []int64{1, 4}, scope.DeviceIDs)
	assert.Equal(t, MatchByType, scope.Reason)
}

func TestMatchDevices_TypeHintIsExact(t *testing.T) {
	scope := MatchDevices(demoDevices(), "", "Heat")
	assert.True(t, scope.All())
	assert.Equal(t, MatchTypeAmbiguous, scope.Reason)
}

func TestMatchDevices_NoHints(t *testing.T) {
	scope := MatchDevices(demoDevices(), "  ", "")
	assert.True(t, scope.All())
	assert.False(t, scope.Ambiguous())
	assert.Equal(t, MatchNoHint, scope.Reason)
}

func TestMatchDevices_EmptyCatalog(t *testing.T) {
	scope := MatchDevices(nil, "ac", "")
	assert.True(t, scope.All())
}
