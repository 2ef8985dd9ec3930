package middlewares

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/mmdatafocus/kitchen_backend/store"
)

type ctxKey string

const (
	loadersKey = ctxKey("dataloaders")
)

// Loaders batch the lookups a single request makes by id.
type Loaders struct {
	ingredientLoader *dataloader.Loader[int, *models.Ingredient]
	recipeLoader     *dataloader.Loader[int, *models.Recipe]
}

// NewLoaders instantiates data loaders for the middleware
func NewLoaders(s store.Store) *Loaders {
	ingredientReader := &ingredientReader{store: s}
	recipeReader := &recipeReader{store: s}

	return &Loaders{
		ingredientLoader: dataloader.NewBatchedLoader(ingredientReader.getIngredients, dataloader.WithWait[int, *models.Ingredient](time.Millisecond)),
		recipeLoader:     dataloader.NewBatchedLoader(recipeReader.getRecipes, dataloader.WithWait[int, *models.Recipe](time.Millisecond)),
	}
}

func LoaderMiddleware(s store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := WithLoaders(c.Request.Context(), NewLoaders(s))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}

func For(ctx context.Context) *Loaders {
	return ctx.Value(loadersKey).(*Loaders)
}

// handleError creates array of result with the same error repeated for as many items requested
func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}

// generateLoaderResults keeps the order of ids; an id with no row resolves to nil.
func generateLoaderResults[T any](results []*T, ids []int, idOf func(*T) int) []*dataloader.Result[*T] {
	resultMap := make(map[int]*T, len(results))
	for _, result := range results {
		resultMap[idOf(result)] = result
	}

	loaderResults := make([]*dataloader.Result[*T], 0, len(ids))
	for _, id := range ids {
		loaderResults = append(loaderResults, &dataloader.Result[*T]{Data: resultMap[id]})
	}
	return loaderResults
}
