package store

import (
	"bytes"
	"context"
	"fmt"

	"github.com/alnah/go-catalog2pdf/internal/blobstore"
	"github.com/alnah/go-catalog2pdf/internal/catalog"
)

// UpdateInfo applies fn to the stored profile and saves it.
func (s *Store) UpdateInfo(ctx context.Context, fn func(*catalog.StoreInfo)) (catalog.StoreInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := s.loadInfo(ctx)
	if err != nil {
		return catalog.StoreInfo{}, err
	}
	fn(&info)
	return info, s.SaveInfo(ctx, info)
}

// mutate loads the product list, applies fn and saves the result.
func (s *Store) mutate(ctx context.Context, fn func([]catalog.Product) ([]catalog.Product, error)) ([]catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.loadProducts(ctx)
	if err != nil {
		return nil, err
	}
	next, err := fn(products)
	if err != nil {
		return nil, err
	}
	return s.SaveProducts(ctx, next)
}

func indexOf(products []catalog.Product, id string) int {
	for i, p := range products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// AddProducts puts new products at the front of the list, keeping their
// relative order.
func (s *Store) AddProducts(ctx context.Context, added ...catalog.Product) ([]catalog.Product, error) {
	return s.mutate(ctx, func(products []catalog.Product) ([]catalog.Product, error) {
		seen := make(map[string]bool, len(added))
		for _, p := range added {
			if p.ID == "" {
				return nil, fmt.Errorf("%w: empty id", catalog.ErrUnknownProduct)
			}
			if seen[p.ID] || indexOf(products, p.ID) >= 0 {
				return nil, fmt.Errorf("%w: %q", catalog.ErrDuplicateID, p.ID)
			}
			seen[p.ID] = true
		}
		return append(append([]catalog.Product{}, added...), products...), nil
	})
}

// UpdateProduct applies fn to product id. The id itself cannot change.
func (s *Store) UpdateProduct(ctx context.Context, id string, fn func(*catalog.Product)) (catalog.Product, error) {
	var updated catalog.Product
	_, err := s.mutate(ctx, func(products []catalog.Product) ([]catalog.Product, error) {
		i := indexOf(products, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownProduct, id)
		}
		fn(&products[i])
		products[i].ID = id
		updated = products[i]
		return products, nil
	})
	return updated, err
}

// RemoveProduct deletes product id and its blob, if any.
func (s *Store) RemoveProduct(ctx context.Context, id string) error {
	var imageID string
	_, err := s.mutate(ctx, func(products []catalog.Product) ([]catalog.Product, error) {
		i := indexOf(products, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownProduct, id)
		}
		imageID = products[i].ImageID
		return append(products[:i], products[i+1:]...), nil
	})
	if err != nil {
		return err
	}
	if imageID != "" && s.blobs != nil {
		if err := s.blobs.Delete(ctx, imageID); err != nil {
			s.log.Warn().Err(err).Str("key", imageID).Msg("orphaned product image")
		}
	}
	return nil
}

// Reorder ranks the named products 0..N-1 in the given sequence.
func (s *Store) Reorder(ctx context.Context, ids []string) ([]catalog.Product, error) {
	return s.mutate(ctx, func(products []catalog.Product) ([]catalog.Product, error) {
		return catalog.Reorder(products, ids)
	})
}

// Move drops product from onto the position of product to.
func (s *Store) Move(ctx context.Context, from, to string) ([]catalog.Product, error) {
	return s.mutate(ctx, func(products []catalog.Product) ([]catalog.Product, error) {
		return catalog.Move(products, from, to)
	})
}

// SetImage stores data as product id's image and points the product at it.
func (s *Store) SetImage(ctx context.Context, id string, data []byte, contentType string) (catalog.Product, error) {
	if s.blobs == nil {
		return catalog.Product{}, fmt.Errorf("setting image: %w", blobstore.ErrMissingConfig)
	}
	key := blobstore.ProductKey(id)
	var updated catalog.Product
	_, err := s.mutate(ctx, func(products []catalog.Product) ([]catalog.Product, error) {
		i := indexOf(products, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownProduct, id)
		}
		if err := s.blobs.Put(ctx, key, bytes.NewReader(data), contentType); err != nil {
			return nil, fmt.Errorf("storing image: %w", err)
		}
		products[i].ImageID = key
		products[i].Image = ""
		updated = products[i]
		return products, nil
	})
	return updated, err
}

// Clear removes the profile and the product list.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(ctx, ProductsKey); err != nil {
		return err
	}
	return s.kv.Delete(ctx, InfoKey)
}
