package config

import (
	"net"
	"os"
	"os/user"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default returns a starter config with collected device and identity
// facts and placeholder credentials.
func Default() *Config {
	return &Config{
		Accounts: AccountsConfig{
			Kind:                         "xml",
			File:                         "accounts/accounts.gnucash",
			VATDueSales:                  NewLocator("VAT:Output:Sales"),
			VATDueAcquisitions:           NewLocator("VAT:Output:EU"),
			TotalVATDue:                  NewLocator("VAT:Output"),
			VATReclaimedCurrPeriod:       NewLocator("VAT:Input"),
			NetVATDue:                    NewLocator("VAT"),
			TotalValueSalesExVAT:         NewLocator("Income:Sales"),
			TotalValuePurchasesExVAT:     NewLocator("Expenses:VAT Purchases"),
			TotalValueGoodsSuppliedExVAT: NewLocator("Income:Sales:EU:Goods"),
			TotalAcquisitionsExVAT:       NewLocator("Expenses:VAT Purchases:EU Reverse VAT"),
			Liabilities:                  "VAT:Liabilities",
			Bills:                        "Accounts Payable",
		},
		Application: ApplicationConfig{
			Profile:        "prod",
			ClientID:       "<CLIENT ID>",
			ClientSecret:   "<SECRET>",
			ProductName:    "gnucash-uk-vat",
			ProductVersion: "1.0",
		},
		Identity: IdentityConfig{
			VRN:        "<VRN>",
			Device:     collectDevice(),
			User:       currentUser(),
			LocalIP:    localIP(),
			MACAddress: macAddress(),
			Time:       time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		},
	}
}

func collectDevice() DeviceConfig {
	return DeviceConfig{
		OSFamily:     runtime.GOOS,
		OSVersion:    osVersion(),
		Manufacturer: dmiValue("sys_vendor"),
		Model:        dmiValue("product_name"),
		ID:           uuid.NewString(),
	}
}

func osVersion() string {
	if data, err := os.ReadFile("/proc/sys/kernel/osrelease"); err == nil {
		return strings.TrimSpace(string(data))
	}
	return "unknown"
}

func dmiValue(name string) string {
	if data, err := os.ReadFile("/sys/devices/virtual/dmi/id/" + name); err == nil {
		if v := strings.TrimSpace(string(data)); v != "" {
			return v
		}
	}
	return "unknown"
}

func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "unknown"
}

// macAddress returns the hardware address of the first non-loopback
// interface.
func macAddress() string {
	ifaces, err := net.Interfaces()
	if err == nil {
		for _, iface := range ifaces {
			if iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) == 0 {
				continue
			}
			return iface.HardwareAddr.String()
		}
	}
	return "00:00:00:00:00:00"
}

// localIP finds the machine's outbound address without sending any
// packets.
func localIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:53")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return "127.0.0.1"
}
