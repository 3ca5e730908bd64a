package enums

import "fmt"

// HomepageSectionType identifies the rendering style of a homepage section.
type HomepageSectionType string

const (
	HomepageSectionBanner            HomepageSectionType = "banner"
	HomepageSectionFeaturedProducts  HomepageSectionType = "featured_products"
	HomepageSectionCategorySpotlight HomepageSectionType = "category_spotlight"
	HomepageSectionNewArrivals       HomepageSectionType = "new_arrivals"
	HomepageSectionBrandShowcase     HomepageSectionType = "brand_showcase"
)

var validHomepageSectionTypes = []HomepageSectionType{
	HomepageSectionBanner,
	HomepageSectionFeaturedProducts,
	HomepageSectionCategorySpotlight,
	HomepageSectionNewArrivals,
	HomepageSectionBrandShowcase,
}

// String implements fmt.Stringer.
func (h HomepageSectionType) String() string {
	return string(h)
}

// IsValid reports whether the value is a known HomepageSectionType.
func (h HomepageSectionType) IsValid() bool {
	for _, candidate := range validHomepageSectionTypes {
		if candidate == h {
			return true
		}
	}
	return false
}

// ParseHomepageSectionType converts raw input into a HomepageSectionType.
func ParseHomepageSectionType(value string) (HomepageSectionType, error) {
	for _, candidate := range validHomepageSectionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid homepage section type %q", value)
}
