package middlewares

import (
	"context"
	"time"

	"github.com/genautech/rewards_backend/models"
	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"
)

type ctxKey string

const (
	loadersKey = ctxKey("dataloaders")
)

// Loaders wrap your data loaders to inject via middleware
type Loaders struct {
	baseProductLoader *dataloader.Loader[int, *models.BaseProduct]
}

// NewLoaders instantiates data loaders for the middleware
func NewLoaders(baseProducts models.BaseProductRepository) *Loaders {
	reader := &baseProductReader{repo: baseProducts}
	return &Loaders{
		baseProductLoader: dataloader.NewBatchedLoader(reader.getBaseProducts, dataloader.WithWait[int, *models.BaseProduct](time.Millisecond)),
	}
}

// LoaderMiddleware gives every request its own loaders so cached entries
// never outlive the request.
func LoaderMiddleware(baseProducts models.BaseProductRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		loader := NewLoaders(baseProducts)
		ctx := context.WithValue(c.Request.Context(), loadersKey, loader)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func For(ctx context.Context) *Loaders {
	loaders, _ := ctx.Value(loadersKey).(*Loaders)
	return loaders
}

// handleError creates array of result with the same error repeated for as many items requested
func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}
