package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pageza/foodgram/backend/internal/validation"
)

func TestValidationError(t *testing.T) {
	verr := NewValidationError()
	assert.True(t, verr.Empty())
	assert.NoError(t, verr.Err())

	verr.Add("tags", "Tags must not repeat.").Add("name", "Too long.")
	verr.Merge(map[string][]string{"tags": {"Invalid pk \"9\" - object does not exist."}})

	assert.Len(t, verr.Fields["tags"], 2)
	assert.Equal(t, `validation failed: name: Too long.; tags: Tags must not repeat. Invalid pk "9" - object does not exist.`, verr.Error())
	assert.Error(t, verr.Err())
}

func TestNonFieldError(t *testing.T) {
	verr := nonFieldError("nope")
	assert.Equal(t, []string{"nope"}, verr.Fields[validation.NonFieldErrors])
}

func TestPaginationNormalize(t *testing.T) {
	p := Pagination{}.Normalize(6)
	assert.Equal(t, Pagination{Page: 1, Limit: 6}, p)
	assert.Equal(t, 0, p.Offset())

	p = Pagination{Page: 3, Limit: 1000}.Normalize(6)
	assert.Equal(t, MaxPageSize, p.Limit)
	assert.Equal(t, 2*MaxPageSize, p.Offset())

	p = Pagination{Page: 1<<62 + 1, Limit: 8}.Normalize(6)
	assert.Equal(t, MaxPage, p.Page)
	assert.Positive(t, p.Offset())
	assert.Positive(t, p.Page*p.Limit)
}
