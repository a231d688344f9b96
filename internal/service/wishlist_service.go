package service

import (
	"context"
	"strings"
	"time"

	"github.com/fjod/thread-storefront/domain"
	"github.com/fjod/thread-storefront/internal/repository"
	"go.uber.org/zap"
)

type WishlistService struct {
	store  repository.DocumentStore
	ns     repository.Namespace
	cart   *CartService
	logger *zap.Logger
	now    func() time.Time
}

func NewWishlistService(store repository.DocumentStore, ns repository.Namespace, cart *CartService, logger *zap.Logger) *WishlistService {
	return &WishlistService{store: store, ns: ns, cart: cart, logger: logger, now: time.Now}
}

// AddResult reports whether the product was newly saved. Added is false
// when the product was already on the wishlist.
type AddResult struct {
	Item  domain.WishlistItem `json:"item"`
	Added bool                `json:"added"`
}

func (s *WishlistService) List(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	if userID == "" {
		return nil, &domain.AuthRequiredError{Action: "view your wishlist"}
	}
	docs, err := s.store.List(ctx, s.collection(userID))
	if err != nil {
		return nil, domain.Remote("load wishlist", err)
	}
	return repository.DecodeAll[domain.WishlistItem](docs)
}

// Add saves a product once. Size is ignored for duplicate detection.
func (s *WishlistService) Add(ctx context.Context, userID string, item domain.WishlistItem) (AddResult, error) {
	if userID == "" {
		return AddResult{}, &domain.AuthRequiredError{Action: "save items"}
	}
	if strings.TrimSpace(item.ProductID) == "" {
		return AddResult{}, &domain.ValidationError{Field: "product_id", Message: "is required"}
	}

	items, err := s.List(ctx, userID)
	if err != nil {
		return AddResult{}, err
	}
	for _, existing := range items {
		if existing.ProductID == item.ProductID {
			return AddResult{Item: existing, Added: false}, nil
		}
	}

	item.ID = ""
	item.CreatedAt = s.now().UTC()
	fields, err := repository.Encode(item)
	if err != nil {
		return AddResult{}, err
	}
	id, err := s.store.Add(ctx, s.collection(userID), fields)
	if err != nil {
		return AddResult{}, domain.Remote("save to wishlist", err)
	}
	item.ID = id
	return AddResult{Item: item, Added: true}, nil
}

// AddProduct saves a catalog product by id.
func (s *WishlistService) AddProduct(ctx context.Context, userID, productID string) (AddResult, error) {
	if userID == "" {
		return AddResult{}, &domain.AuthRequiredError{Action: "save items"}
	}
	product, err := s.cart.catalog.Find(ctx, productID)
	if err != nil {
		return AddResult{}, err
	}
	return s.Add(ctx, userID, domain.WishlistItem{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Image:     product.Image,
		Brand:     product.Brand,
		Size:      product.Size,
	})
}

func (s *WishlistService) Remove(ctx context.Context, userID, itemID string) error {
	if userID == "" {
		return &domain.AuthRequiredError{Action: "update your wishlist"}
	}
	if err := s.store.Delete(ctx, repository.DocPath(s.collection(userID), itemID)); err != nil {
		return storeError("remove wishlist item", err, "wishlist item", itemID)
	}
	return nil
}

// MoveToCart adds the saved item to the cart, then removes it from the
// wishlist. If the removal fails the item is in both places.
func (s *WishlistService) MoveToCart(ctx context.Context, userID, itemID string) (domain.LineItem, error) {
	if userID == "" {
		return domain.LineItem{}, &domain.AuthRequiredError{Action: "add items to your cart"}
	}
	items, err := s.List(ctx, userID)
	if err != nil {
		return domain.LineItem{}, err
	}
	var saved *domain.WishlistItem
	for i := range items {
		if items[i].ID == itemID {
			saved = &items[i]
			break
		}
	}
	if saved == nil {
		return domain.LineItem{}, &domain.NotFoundError{Kind: "wishlist item", ID: itemID}
	}

	line, err := s.cart.Add(ctx, userID, domain.LineItem{
		ProductID: saved.ProductID,
		Name:      saved.Name,
		UnitPrice: saved.Price,
		Size:      saved.Size,
		Brand:     saved.Brand,
		Image:     saved.Image,
	})
	if err != nil {
		return domain.LineItem{}, err
	}
	if err := s.Remove(ctx, userID, itemID); err != nil {
		s.logger.Warn("moved item still on wishlist",
			zap.String("user_id", userID), zap.String("item_id", itemID), zap.Error(err))
		return line, err
	}
	return line, nil
}

func (s *WishlistService) collection(userID string) string {
	return s.ns.User(userID, repository.CollectionWishlist)
}
