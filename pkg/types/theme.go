package types

// Theme is the storefront presentation metadata carried on the cart and
// cached store snapshot so landing pages render without a second fetch.
type Theme struct {
	PrimaryColor   string  `json:"primary_color,omitempty"`
	SecondaryColor string  `json:"secondary_color,omitempty"`
	LogoURL        *string `json:"logo_url,omitempty"`
	BannerURL      *string `json:"banner_url,omitempty"`
}
