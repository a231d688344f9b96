package service

import (
	"context"

	"github.com/fjod/thread-storefront/domain"
)

type AccountOverview struct {
	User     domain.User           `json:"user"`
	Orders   []domain.Order        `json:"orders"`
	Wishlist []domain.WishlistItem `json:"wishlist"`
}

type AccountService struct {
	orders   *OrderService
	wishlist *WishlistService
}

func NewAccountService(orders *OrderService, wishlist *WishlistService) *AccountService {
	return &AccountService{orders: orders, wishlist: wishlist}
}

func (s *AccountService) Overview(ctx context.Context, user domain.User) (AccountOverview, error) {
	if user.ID == "" {
		return AccountOverview{}, &domain.AuthRequiredError{Action: "view your account"}
	}
	orders, err := s.orders.List(ctx, user.ID)
	if err != nil {
		return AccountOverview{}, err
	}
	wishlist, err := s.wishlist.List(ctx, user.ID)
	if err != nil {
		return AccountOverview{}, err
	}
	return AccountOverview{User: user, Orders: orders, Wishlist: wishlist}, nil
}
