package session

import (
	"strings"

	"github.com/fjod/thread-storefront/domain"
)

type View string

const (
	ViewHome     View = "home"
	ViewShop     View = "shop"
	ViewProduct  View = "product"
	ViewCart     View = "cart"
	ViewLogin    View = "login"
	ViewAccount  View = "account"
	ViewCheckout View = "checkout"
	ViewWishlist View = "wishlist"
	ViewAdmin    View = "admin"
)

var views = map[string]View{
	"":         ViewHome,
	"index":    ViewHome,
	"home":     ViewHome,
	"shop":     ViewShop,
	"product":  ViewProduct,
	"cart":     ViewCart,
	"login":    ViewLogin,
	"account":  ViewAccount,
	"checkout": ViewCheckout,
	"wishlist": ViewWishlist,
	"admin":    ViewAdmin,
}

// Protected views need a signed-in user.
func (v View) Protected() bool {
	switch v {
	case ViewAccount, ViewCheckout, ViewWishlist, ViewAdmin:
		return true
	}
	return false
}

// ParseRoute maps "/shop.html", "/shop" or "shop" to a view. Query strings
// and fragments are ignored.
func ParseRoute(path string) (View, error) {
	p := path
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.Trim(strings.ToLower(p), "/")
	p = strings.TrimSuffix(p, ".html")
	if v, ok := views[p]; ok {
		return v, nil
	}
	return "", &domain.NotFoundError{Kind: "route", ID: path}
}
