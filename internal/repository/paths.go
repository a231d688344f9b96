package repository

import (
	"fmt"
	"strings"
)

const (
	CollectionCart     = "cart"
	CollectionWishlist = "wishlist"
	CollectionOrders   = "orders"
)

// Namespace builds collection paths for one application id.
type Namespace struct {
	AppID string
}

func NewNamespace(appID string) Namespace {
	return Namespace{AppID: appID}
}

// User returns a per-user collection such as artifacts/{app}/users/{uid}/cart.
func (n Namespace) User(userID, collection string) string {
	return fmt.Sprintf("artifacts/%s/users/%s/%s", n.AppID, userID, collection)
}

func (n Namespace) Products() string {
	return fmt.Sprintf("artifacts/%s/public/data/products", n.AppID)
}

func (n Namespace) Users() string {
	return fmt.Sprintf("artifacts/%s/private/users", n.AppID)
}

func DocPath(collection, id string) string {
	return collection + "/" + id
}

// SplitDocPath separates a document path into its collection and id.
func SplitDocPath(docPath string) (string, string, error) {
	i := strings.LastIndex(docPath, "/")
	if i <= 0 || i == len(docPath)-1 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, docPath)
	}
	return docPath[:i], docPath[i+1:], nil
}
