package hmrc

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"

	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/config"
)

// licenseText is hashed into Gov-Vendor-License-Ids; HMRC only
// requires a stable identifier, not the text itself.
const licenseText = "GPL-3.0-or-later"

// HeaderBuilder constructs the fraud-prevention header set for one
// request. Embedding applications can substitute their own
// implementation to supply richer headers (public IP, screen
// geometry and so on) without the client knowing.
type HeaderBuilder interface {
	Build(cfg *config.Config, accessToken string) (map[string]string, error)
}

// DefaultHeaderBuilder emits the header set for a directly-connected
// batch tool (connection method OTHER_DIRECT).
type DefaultHeaderBuilder struct{}

// Build constructs the Gov-Client-*/Gov-Vendor-* headers from the
// configured identity facts. Pure: identical inputs give identical
// headers.
func (DefaultHeaderBuilder) Build(cfg *config.Config, accessToken string) (map[string]string, error) {
	dev := cfg.Identity.Device
	app := cfg.Application

	required := []struct {
		key   string
		value string
	}{
		{"identity.device.os-family", dev.OSFamily},
		{"identity.device.os-version", dev.OSVersion},
		{"identity.device.device-manufacturer", dev.Manufacturer},
		{"identity.device.device-model", dev.Model},
		{"identity.device.id", dev.ID},
		{"application.product-name", app.ProductName},
		{"application.product-version", app.ProductVersion},
	}
	for _, f := range required {
		if f.value == "" {
			return nil, &MissingFieldError{Field: f.key}
		}
	}

	ua := url.Values{
		"os-family":           {dev.OSFamily},
		"os-version":          {dev.OSVersion},
		"device-manufacturer": {dev.Manufacturer},
		"device-model":        {dev.Model},
	}

	license := sha1.Sum([]byte(licenseText))

	return map[string]string{
		"Gov-Client-Connection-Method":   "OTHER_DIRECT",
		"Gov-Client-Device-ID":           dev.ID,
		"Gov-Client-User-Ids":            "os=" + cfg.Identity.User,
		"Gov-Client-Timezone":            "UTC+00:00",
		"Gov-Client-Local-IPs":           cfg.Identity.LocalIP,
		"Gov-Client-Local-IPs-Timestamp": cfg.Identity.Time,
		"Gov-Client-MAC-Addresses":       url.QueryEscape(cfg.Identity.MACAddress),
		"Gov-Client-User-Agent":          ua.Encode(),
		"Gov-Client-Multi-Factor":        "",
		"Gov-Vendor-Version":             app.ProductName + "=" + app.ProductVersion,
		"Gov-Vendor-Product-Name":        app.ProductName,
		"Gov-Vendor-License-Ids":         app.ProductName + "=" + hex.EncodeToString(license[:]),
		"Authorization":                  "Bearer " + accessToken,
	}, nil
}
