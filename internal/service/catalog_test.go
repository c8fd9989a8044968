package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/testhelpers"
)

func TestCatalogService_Lookups(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	ctx := context.Background()
	svc := service.NewCatalogService(db)

	breakfast := testhelpers.CreateTag(t, db, "Breakfast", "breakfast")
	testhelpers.CreateTag(t, db, "Dinner", "dinner")
	sugar := testhelpers.CreateIngredient(t, db, "Sugar", "g")
	testhelpers.CreateIngredient(t, db, "salt", "g")
	testhelpers.CreateIngredient(t, db, "Salt", "pinch")
	testhelpers.CreateIngredient(t, db, "Water", "ml")
	testhelpers.CreateIngredient(t, db, "50%_cream", "ml")

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 2)

	tag, err := svc.GetTag(ctx, breakfast.ID)
	require.NoError(t, err)
	assert.Equal(t, "breakfast", tag.Slug)

	_, err = svc.GetTag(ctx, 9999)
	assert.ErrorIs(t, err, service.ErrNotFound)

	ingredient, err := svc.GetIngredient(ctx, sugar.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sugar", ingredient.Name)

	_, err = svc.GetIngredient(ctx, 9999)
	assert.ErrorIs(t, err, service.ErrNotFound)

	names := func(list []models.Ingredient) []string {
		out := make([]string, 0, len(list))
		for _, i := range list {
			out = append(out, i.Name+"/"+i.MeasurementUnit)
		}
		return out
	}

	all, err := svc.ListIngredients(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 5)

	matched, err := svc.ListIngredients(ctx, "S")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"salt/g", "Salt/pinch", "Sugar/g"}, names(matched))

	matched, err = svc.ListIngredients(ctx, "sal")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"salt/g", "Salt/pinch"}, names(matched))

	matched, err = svc.ListIngredients(ctx, "50%")
	require.NoError(t, err)
	assert.Equal(t, []string{"50%_cream/ml"}, names(matched))

	matched, err = svc.ListIngredients(ctx, "%")
	require.NoError(t, err)
	assert.Empty(t, matched, "wildcards in the prefix are matched literally")
}

func TestCatalogService_ImportIngredients(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	ctx := context.Background()
	svc := service.NewCatalogService(db)
	testhelpers.CreateIngredient(t, db, "Salt", "g")

	rows, err := service.ParseIngredientsCSV(strings.NewReader("Salt,g\nSugar, g\nFlour,kg\n"))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "g", rows[1].MeasurementUnit)

	inserted, err := svc.ImportIngredients(ctx, rows)
	require.NoError(t, err)
	assert.EqualValues(t, 2, inserted)

	var count int64
	require.NoError(t, db.Model(&models.Ingredient{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)

	inserted, err = svc.ImportIngredients(ctx, rows)
	require.NoError(t, err)
	assert.Zero(t, inserted, "a second import adds nothing")

	inserted, err = svc.ImportIngredients(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, inserted)
}

func TestParseIngredientsCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"missing column", "Salt,g\nSugar\n", 2},
		{"empty unit", "Salt,g\nFlour,kg\nSugar,\n", 3},
		{"too many columns", "Salt,g,extra\n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.ParseIngredientsCSV(strings.NewReader(tt.input))
			var rowErr *service.RowError
			require.True(t, errors.As(err, &rowErr), "expected a row error, got %v", err)
			assert.Equal(t, tt.line, rowErr.Line)
		})
	}
}

func TestImportTags(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	ctx := context.Background()
	svc := service.NewCatalogService(db)

	tags, err := service.ParseTagsCSV(strings.NewReader("Breakfast,#e26c2d,breakfast\nDinner,#49B64E,dinner\n"))
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "#E26C2D", tags[0].Color)

	inserted, err := svc.ImportTags(ctx, tags)
	require.NoError(t, err)
	assert.EqualValues(t, 2, inserted)

	inserted, err = svc.ImportTags(ctx, tags)
	require.NoError(t, err)
	assert.Zero(t, inserted)

	_, err = service.ParseTagsCSV(strings.NewReader("Lunch,green,lunch\n"))
	var rowErr *service.RowError
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, 1, rowErr.Line)

	_, err = service.ParseTagsCSV(strings.NewReader("Lunch,#49B64E,has space\n"))
	require.True(t, errors.As(err, &rowErr))
}
