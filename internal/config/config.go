// Package config loads and writes the config.json file: ledger
// location, VAT box account mappings, API credentials and the identity
// facts required by the fraud-prevention headers.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidLocatorType indicates a box account mapping that is
// neither a string nor a list of strings.
var ErrInvalidLocatorType = errors.New("config: account locator must be a string or a list of strings")

// Locator names one or more ledger account paths for a VAT box.
type Locator struct {
	paths []string
	set   bool
}

// NewLocator builds a locator from account paths.
func NewLocator(paths ...string) Locator {
	return Locator{paths: paths, set: true}
}

// Paths returns the account paths, or ErrInvalidLocatorType if the
// locator was absent or malformed in the config file.
func (l Locator) Paths() ([]string, error) {
	if !l.set {
		return nil, ErrInvalidLocatorType
	}
	return l.paths, nil
}

// UnmarshalJSON accepts either "path" or ["path", ...].
func (l *Locator) UnmarshalJSON(b []byte) error {
	var single string
	if err := json.Unmarshal(b, &single); err == nil {
		l.paths = []string{single}
		l.set = true
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err == nil {
		l.paths = many
		l.set = true
		return nil
	}
	return ErrInvalidLocatorType
}

// MarshalJSON writes a single path as a bare string.
func (l Locator) MarshalJSON() ([]byte, error) {
	if len(l.paths) == 1 {
		return json.Marshal(l.paths[0])
	}
	return json.Marshal(l.paths)
}

// AccountsConfig locates the ledger and maps each VAT box to accounts.
type AccountsConfig struct {
	Kind string `json:"kind" validate:"required,oneof=csv xml"`
	File string `json:"file" validate:"required"`

	VATDueSales                  Locator `json:"vatDueSales"`
	VATDueAcquisitions           Locator `json:"vatDueAcquisitions"`
	TotalVATDue                  Locator `json:"totalVatDue"`
	VATReclaimedCurrPeriod       Locator `json:"vatReclaimedCurrPeriod"`
	NetVATDue                    Locator `json:"netVatDue"`
	TotalValueSalesExVAT         Locator `json:"totalValueSalesExVAT"`
	TotalValuePurchasesExVAT     Locator `json:"totalValuePurchasesExVAT"`
	TotalValueGoodsSuppliedExVAT Locator `json:"totalValueGoodsSuppliedExVAT"`
	TotalAcquisitionsExVAT       Locator `json:"totalAcquisitionsExVAT"`

	Liabilities string `json:"liabilities"`
	Bills       string `json:"bills"`
}

// Locators returns the box-name to locator mapping.
func (a AccountsConfig) Locators() map[string]Locator {
	return map[string]Locator{
		"vatDueSales":                  a.VATDueSales,
		"vatDueAcquisitions":           a.VATDueAcquisitions,
		"totalVatDue":                  a.TotalVATDue,
		"vatReclaimedCurrPeriod":       a.VATReclaimedCurrPeriod,
		"netVatDue":                    a.NetVATDue,
		"totalValueSalesExVAT":         a.TotalValueSalesExVAT,
		"totalValuePurchasesExVAT":     a.TotalValuePurchasesExVAT,
		"totalValueGoodsSuppliedExVAT": a.TotalValueGoodsSuppliedExVAT,
		"totalAcquisitionsExVAT":       a.TotalAcquisitionsExVAT,
	}
}

// ApplicationConfig identifies the client application to HMRC.
type ApplicationConfig struct {
	Profile        string `json:"profile" validate:"required,oneof=prod test local"`
	ClientID       string `json:"client-id" validate:"required"`
	ClientSecret   string `json:"client-secret"`
	ProductName    string `json:"product-name"`
	ProductVersion string `json:"product-version"`
}

// DeviceConfig is the device fingerprint sent in fraud-prevention
// headers.
type DeviceConfig struct {
	OSFamily     string `json:"os-family"`
	OSVersion    string `json:"os-version"`
	Manufacturer string `json:"device-manufacturer"`
	Model        string `json:"device-model"`
	ID           string `json:"id"`
}

// IdentityConfig holds the taxpayer and submitting-machine identity.
type IdentityConfig struct {
	VRN        string       `json:"vrn" validate:"required"`
	Device     DeviceConfig `json:"device"`
	User       string       `json:"user"`
	LocalIP    string       `json:"local-ip"`
	MACAddress string       `json:"mac-address"`
	Time       string       `json:"time"`
}

// Config is the top-level config.json structure.
type Config struct {
	Accounts    AccountsConfig    `json:"accounts"`
	Application ApplicationConfig `json:"application"`
	Identity    IdentityConfig    `json:"identity"`
}

// Load reads and validates a config.json file. Environment variables
// VAT_CLIENT_ID and VAT_CLIENT_SECRET override the stored credentials.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if v := os.Getenv("VAT_CLIENT_ID"); v != "" {
		cfg.Application.ClientID = v
	}
	if v := os.Getenv("VAT_CLIENT_SECRET"); v != "" {
		cfg.Application.ClientSecret = v
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// Save rewrites a config.json file wholesale. The file carries the
// client secret, so keep it private.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
