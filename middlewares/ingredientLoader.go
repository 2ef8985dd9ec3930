package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/mmdatafocus/kitchen_backend/store"
)

type ingredientReader struct {
	store store.IngredientStore
}

func (r *ingredientReader) getIngredients(ctx context.Context, ids []int) []*dataloader.Result[*models.Ingredient] {
	results, err := r.store.ListIngredients(ctx, store.IngredientFilter{Ids: ids})
	if err != nil {
		return handleError[*models.Ingredient](len(ids), err)
	}
	return generateLoaderResults(results, ids, func(i *models.Ingredient) int { return i.ID })
}

// GetIngredient returns nil, nil for an id that does not exist.
func GetIngredient(ctx context.Context, id int) (*models.Ingredient, error) {
	loaders := For(ctx)
	return loaders.ingredientLoader.Load(ctx, id)()
}

// GetIngredientMap resolves ids in one batch, skipping the ones that no longer exist.
func GetIngredientMap(ctx context.Context, ids []int) (map[int]*models.Ingredient, error) {
	if len(ids) == 0 {
		return map[int]*models.Ingredient{}, nil
	}
	loaders := For(ctx)
	ingredients, errs := loaders.ingredientLoader.LoadMany(ctx, ids)()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	out := make(map[int]*models.Ingredient, len(ingredients))
	for _, ing := range ingredients {
		if ing != nil {
			out[ing.ID] = ing
		}
	}
	return out, nil
}
