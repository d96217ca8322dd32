package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 35)
	assert.Equal(t, 4, p.TotalPages)
	assert.Equal(t, 10, p.Offset())

	p = NewPagination(0, 0, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPerPage, p.PerPage)
	assert.Equal(t, 0, p.Offset())
	assert.Equal(t, 0, p.TotalPages)

	assert.Equal(t, MaxPerPage, NewPagination(1, 10000, 1).PerPage)
}
