package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/oxygen78/BOT.github.io/internal/cache"
	"github.com/oxygen78/BOT.github.io/internal/domain"
	"github.com/oxygen78/BOT.github.io/internal/repository"
)

type CartService struct {
	repo  repository.Store
	cache cache.CartCache
	sfg   singleflight.Group // Prevents cache stampede
}

func NewCartService(repo repository.Store, cache cache.CartCache) *CartService {
	return &CartService{
		repo:  repo,
		cache: cache,
	}
}

// AddItem resolves the free-text item name against the catalog and
// increments the user's line for it. An unknown name leaves the cart
// untouched.
func (s *CartService) AddItem(ctx context.Context, userID int64, itemName string) (*domain.CartLine, error) {
	item, err := s.repo.GetItemByName(ctx, itemName)
	if errors.Is(err, repository.ErrItemNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve item %q: %w", itemName, err)
	}

	quantity, err := s.repo.AddCartLine(ctx, userID, item.ID)
	if err != nil {
		log.Printf("repo add cart line error: %v", err)
		return nil, err
	}

	s.invalidateCache(userID)
	return &domain.CartLine{
		UserID:   userID,
		ItemID:   item.ID,
		ItemName: item.Name,
		Quantity: quantity,
	}, nil
}

// GetCart returns the user's cart lines in insertion order. An empty cart is
// an empty slice.
func (s *CartService) GetCart(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(fmt.Sprint(userID), func() (interface{}, error) {

		lines, err := s.cache.Get(ctx, userID)
		if err == nil {
			return lines, nil // cart view is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		lines, errGet := s.repo.GetCartLines(ctx, userID)
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if errSet := s.cache.Set(ctx, userID, lines); errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return lines, nil
	})

	if err != nil {
		return nil, err
	}

	return v.([]domain.CartLine), nil
}

// Clear removes every line of the user's cart and reports how many were
// removed. Clearing an empty cart is not an error.
func (s *CartService) Clear(ctx context.Context, userID int64) (int64, error) {
	removed, err := s.repo.ClearCart(ctx, userID)
	if err != nil {
		log.Printf("repo clear cart error: %v", err)
		return 0, err
	}

	s.invalidateCache(userID)
	return removed, nil
}

func (s *CartService) invalidateCache(userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}
