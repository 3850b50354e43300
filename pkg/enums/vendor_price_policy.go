package enums

import "fmt"

// VendorPricePolicy decides how a vendor-sourced cart item without a price is
// handled: rejected outright, or stored with a zero price.
type VendorPricePolicy string

const (
	VendorPricePolicyReject      VendorPricePolicy = "reject"
	VendorPricePolicyDefaultZero VendorPricePolicy = "default-zero"
)

var validVendorPricePolicies = []VendorPricePolicy{
	VendorPricePolicyReject,
	VendorPricePolicyDefaultZero,
}

func (p VendorPricePolicy) String() string {
	return string(p)
}

func (p VendorPricePolicy) IsValid() bool {
	for _, candidate := range validVendorPricePolicies {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseVendorPricePolicy converts raw input into a VendorPricePolicy.
func ParseVendorPricePolicy(value string) (VendorPricePolicy, error) {
	for _, candidate := range validVendorPricePolicies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vendor price policy %q", value)
}
