package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/types"
)

func fixedRenderer() *ShoppingListRenderer {
	r := NewShoppingListRenderer("")
	r.Now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return r
}

func TestRenderShoppingList(t *testing.T) {
	pdf, err := fixedRenderer().Render("alice", []types.ShoppingItem{
		{Name: "egg", MeasurementUnit: "pcs", TotalAmount: 5},
		{Name: "flour", MeasurementUnit: "g", TotalAmount: 700},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	assert.True(t, bytes.Contains(pdf, []byte("%%EOF")))
}

func TestRenderEmptyShoppingList(t *testing.T) {
	pdf, err := fixedRenderer().Render("bob", nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestRenderNonLatinWithoutFont(t *testing.T) {
	pdf, err := fixedRenderer().Render("ёжик", []types.ShoppingItem{
		{Name: "мука", MeasurementUnit: "г", TotalAmount: 300},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestRenderMissingFont(t *testing.T) {
	r := NewShoppingListRenderer("/nonexistent/font.ttf")
	_, err := r.Render("alice", nil)
	assert.Error(t, err)
}
