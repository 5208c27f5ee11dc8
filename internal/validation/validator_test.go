package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/types"
)

func validRecipe() types.RecipeInput {
	return types.RecipeInput{
		Ingredients: []types.RecipeIngredientInput{{ID: 1, Amount: 2}},
		Tags:        []uint{1},
		Name:        "Pancakes",
		Text:        "Mix and fry.",
		CookingTime: 15,
	}
}

func TestValidateRecipeInput(t *testing.T) {
	require.NoError(t, Validate(validRecipe()))
}

func TestCookingTimeMustBePositive(t *testing.T) {
	for _, v := range []int{0, -5} {
		in := validRecipe()
		in.CookingTime = v

		fields, ok := FieldErrors(Validate(in))
		require.True(t, ok)
		assert.Contains(t, fields, "cooking_time")
	}
}

func TestIngredientAmountMustBePositive(t *testing.T) {
	in := validRecipe()
	in.Ingredients[0].Amount = -1

	fields, ok := FieldErrors(Validate(in))
	require.True(t, ok)
	require.Contains(t, fields, "ingredients")
	assert.Contains(t, fields["ingredients"][0], "amount")
}

func TestEmptyListsRejected(t *testing.T) {
	in := validRecipe()
	in.Tags = []uint{}
	in.Ingredients = nil

	fields, ok := FieldErrors(Validate(in))
	require.True(t, ok)
	assert.Contains(t, fields, "tags")
	assert.Contains(t, fields, "ingredients")
}

func TestNameLength(t *testing.T) {
	in := validRecipe()
	long := make([]byte, 201)
	for i := range long {
		long[i] = 'a'
	}
	in.Name = string(long)

	fields, ok := FieldErrors(Validate(in))
	require.True(t, ok)
	assert.Equal(t, []string{"Ensure this field has no more than 200 characters."}, fields["name"])
}

func TestUsernameRule(t *testing.T) {
	req := types.RegisterRequest{
		Email:     "cook@example.com",
		Username:  "chef.ivan+1",
		FirstName: "Ivan",
		LastName:  "Petrov",
		Password:  "supersecret",
	}
	require.NoError(t, Validate(req))

	req.Username = "bad name!"
	fields, ok := FieldErrors(Validate(req))
	require.True(t, ok)
	assert.Contains(t, fields, "username")
}

func TestSlugAndColorRules(t *testing.T) {
	require.NoError(t, Validate(types.TagInput{Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"}))

	fields, ok := FieldErrors(Validate(types.TagInput{Name: "Lunch", Color: "red", Slug: "lunch time"}))
	require.True(t, ok)
	assert.Contains(t, fields, "color")
	assert.Contains(t, fields, "slug")
}

func TestFieldErrorsFromJSONTypeError(t *testing.T) {
	var in types.RecipeInput
	err := json.Unmarshal([]byte(`{"cooking_time": "soon"}`), &in)

	fields, ok := FieldErrors(err)
	require.True(t, ok)
	assert.Contains(t, fields, "cooking_time")
}

func TestFieldErrorsIgnoresOtherErrors(t *testing.T) {
	_, ok := FieldErrors(assert.AnError)
	assert.False(t, ok)
}
