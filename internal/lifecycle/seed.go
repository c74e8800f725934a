package lifecycle

import (
	"context"

	"github.com/sandeepkv93/taskflow/internal/model"
)

var DefaultCategories = []model.CategoryInput{
	{Name: "Personal", Color: model.DefaultCategoryColor, Icon: "User"},
	{Name: "Work", Color: "#2563EB", Icon: "Briefcase"},
	{Name: "Shopping", Color: "#059669", Icon: "ShoppingCart"},
}

// SeedCategories creates defs when the store has no categories yet. It
// reports whether anything was created.
func (c *Coordinator) SeedCategories(ctx context.Context, defs []model.CategoryInput) (bool, error) {
	existing, err := c.categories.ListAll(ctx)
	if err != nil {
		return false, c.fail("seed categories", err)
	}
	if len(existing) > 0 || len(defs) == 0 {
		return false, nil
	}
	for _, in := range defs {
		if _, err := c.categories.Create(ctx, in); err != nil {
			return false, c.fail("seed categories", err)
		}
	}
	c.log.Info("seeded default categories", "count", len(defs))
	c.recount(ctx)
	return true, nil
}
