package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/metrics"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/types"
)

const (
	ShoppingListFilename = "shopping_list.txt"
	ShoppingListHeader   = "Shopping list:"
)

// ShoppingListItem is one merged ingredient line
type ShoppingListItem struct {
	Name   string
	Unit   string
	Amount int64
}

// ShoppingListService merges the ingredients of every recipe in a user's cart
type ShoppingListService struct {
	db *gorm.DB
}

func NewShoppingListService(db *gorm.DB) *ShoppingListService {
	return &ShoppingListService{db: db}
}

// Build sums ingredient amounts across the viewer's cart, grouped by (name, unit)
// and ordered by name then unit.
func (s *ShoppingListService) Build(ctx context.Context, viewer types.Viewer) ([]ShoppingListItem, error) {
	if !viewer.Authenticated() {
		return nil, newError(ErrUnauthenticated, "Authentication credentials were not provided.")
	}

	cart := models.ShoppingCart.Table()
	var items []ShoppingListItem
	err := s.db.WithContext(ctx).
		Table("recipe_ingredients").
		Select("ingredients.name AS name, ingredients.measurement_unit AS unit, SUM(recipe_ingredients.amount) AS amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins(fmt.Sprintf("JOIN %s ON %s.recipe_id = recipe_ingredients.recipe_id", cart, cart)).
		Where(cart+".user_id = ?", viewer.UserID).
		Group("ingredients.name, ingredients.measurement_unit").
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to build shopping list: %w", err)
	}

	// Database collations differ, so the order is fixed here.
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].Unit < items[j].Unit
	})
	return items, nil
}

// Render produces the downloadable text: the header line, then one line per item.
func (s *ShoppingListService) Render(items []ShoppingListItem) string {
	metrics.ShoppingListDownloads.Inc()
	return RenderShoppingList(items)
}

func RenderShoppingList(items []ShoppingListItem) string {
	var b strings.Builder
	b.WriteString(ShoppingListHeader)
	for _, item := range items {
		b.WriteString("\n • ")
		b.WriteString(item.Name)
		b.WriteByte(' ')
		b.WriteString(strconv.FormatInt(item.Amount, 10))
		b.WriteByte(' ')
		b.WriteString(item.Unit)
	}
	return b.String()
}
