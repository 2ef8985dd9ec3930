package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/mmdatafocus/kitchen_backend/store"
)

type recipeReader struct {
	store store.RecipeStore
}

func (r *recipeReader) getRecipes(ctx context.Context, ids []int) []*dataloader.Result[*models.Recipe] {
	results, err := r.store.ListRecipes(ctx, store.RecipeFilter{Ids: ids})
	if err != nil {
		return handleError[*models.Recipe](len(ids), err)
	}
	return generateLoaderResults(results, ids, func(r *models.Recipe) int { return r.ID })
}

func GetRecipe(ctx context.Context, id int) (*models.Recipe, error) {
	loaders := For(ctx)
	return loaders.recipeLoader.Load(ctx, id)()
}
