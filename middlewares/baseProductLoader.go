package middlewares

import (
	"context"
	"errors"

	"github.com/genautech/rewards_backend/models"
	"github.com/graph-gophers/dataloader/v7"
)

type baseProductReader struct {
	repo models.BaseProductRepository
}

func (r *baseProductReader) getBaseProducts(ctx context.Context, ids []int) []*dataloader.Result[*models.BaseProduct] {
	products, err := r.repo.GetBaseProductsByIds(ctx, ids)
	if err != nil {
		return handleError[*models.BaseProduct](len(ids), err)
	}

	resultMap := make(map[int]*models.BaseProduct, len(products))
	for _, product := range products {
		resultMap[product.ID] = product
	}
	loaderResults := make([]*dataloader.Result[*models.BaseProduct], 0, len(ids))
	for _, id := range ids {
		product, ok := resultMap[id]
		if !ok {
			loaderResults = append(loaderResults, &dataloader.Result[*models.BaseProduct]{Error: &models.NotFoundError{Entity: "base product", Id: id}})
			continue
		}
		loaderResults = append(loaderResults, &dataloader.Result[*models.BaseProduct]{Data: product})
	}
	return loaderResults
}

var errNoLoaders = errors.New("dataloaders are not installed on this request")

func GetBaseProduct(ctx context.Context, id int) (*models.BaseProduct, error) {
	loaders := For(ctx)
	if loaders == nil {
		return nil, errNoLoaders
	}
	return loaders.baseProductLoader.Load(ctx, id)()
}

// GetBaseProducts returns one entry per id; errs[i] is set when ids[i] failed.
func GetBaseProducts(ctx context.Context, ids []int) ([]*models.BaseProduct, []error) {
	loaders := For(ctx)
	if loaders == nil {
		return nil, []error{errNoLoaders}
	}
	return loaders.baseProductLoader.LoadMany(ctx, ids)()
}
