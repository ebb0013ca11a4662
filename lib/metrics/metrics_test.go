package metrics

import (
	"testing"

	"crm/lib/models"

	"github.com/stretchr/testify/assert"
)

func TestProgress(t *testing.T) {
	//Arrange
	empty := models.TaskList{}
	half := models.TaskList{
		{ID: "1", Name: "Rendering", Completed: true},
		{ID: "2", Name: "Contract", Completed: false},
	}
	all := models.TaskList{
		{ID: "1", Name: "Rendering", Completed: true},
		{ID: "2", Name: "Contract", Completed: true},
		{ID: "3", Name: "Deposit", Completed: true},
	}

	//Act + Assert
	assert.Equal(t, float64(0), Progress(empty))
	assert.Equal(t, float64(50), Progress(half))
	assert.Equal(t, float64(100), Progress(all))
}

func TestProgressThirds(t *testing.T) {
	tasks := models.TaskList{
		{ID: "1", Name: "Rendering", Completed: true},
		{ID: "2", Name: "Contract", Completed: false},
		{ID: "3", Name: "Deposit", Completed: false},
	}
	assert.InDelta(t, 33.33, Progress(tasks), 0.01)
}

func TestClientScore(t *testing.T) {
	assert.Equal(t, float64(16), ClientScore(4, 4000))
	assert.Equal(t, float64(0), ClientScore(0, 5000))
}

func TestRunningAverage(t *testing.T) {
	// First event for a client: the formula resolves to the new value.
	assert.Equal(t, float64(5000), RunningAverage(0, 0, 5000))
	assert.Equal(t, float64(4000), RunningAverage(5000, 1, 3000))
	assert.Equal(t, float64(4000), RunningAverage(4500, 2, 3000))
}
