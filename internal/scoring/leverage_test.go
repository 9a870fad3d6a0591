package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeverageTable_Satisfies(t *testing.T) {
	table := DefaultLeverageTable()

	assert.True(t, table.Satisfies([]string{"Institutional allocator"}, []string{"Deployable financial capital"}))
	assert.True(t, table.Satisfies([]string{"Co-investor", "Regulatory stakeholder"}, []string{"Regulatory access / policy influence"}))
	assert.False(t, table.Satisfies([]string{"Institutional allocator"}, []string{"Developer ecosystem"}))
	assert.False(t, table.Satisfies(nil, []string{"Deployable financial capital"}))
	assert.False(t, table.Satisfies([]string{"Institutional allocator"}, nil))
	assert.False(t, LeverageTable{}.Satisfies([]string{"Institutional allocator"}, []string{"Deployable financial capital"}))
}

func TestLeverageTable_Validate(t *testing.T) {
	assert.NoError(t, DefaultLeverageTable().Validate())
	assert.Error(t, LeverageTable{{SoughtType: "Co-investor"}}.Validate())
}

func TestNewScorer_DefaultsTable(t *testing.T) {
	s := NewScorer(nil)
	assert.Equal(t, DefaultLeverageTable(), s.table)
}
