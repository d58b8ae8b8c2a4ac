package domain

import "time"

// Cache keys are read by external inspection tooling; keep them byte-exact.
const (
	SellerListKey        = "/list-of-sellers/"
	sellerCatalogKeyBase = "/seller-catalog/"
	sellerOrdersKeyBase  = "/orders/"
)

const (
	SellerListTTL    = 900 * time.Second
	SellerCatalogTTL = 1800 * time.Second
	SellerOrdersTTL  = 900 * time.Second
)

func SellerCatalogKey(sellerID string) string { return sellerCatalogKeyBase + sellerID }
func SellerOrdersKey(sellerID string) string  { return sellerOrdersKeyBase + sellerID }
