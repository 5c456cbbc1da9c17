package config

import (
	"net/netip"
	"strings"

	"github.com/pkg/errors"
)

type SecurityConfig interface {
	// GetSignInRateLimit is the sustained sign-in attempts per second allowed per client IP. Zero disables limiting.
	GetSignInRateLimit() float64
	GetSignInRateBurst() int
	GetEnforcePasswordStrength() bool
	// GetTrustedProxies lists the peers whose X-Forwarded-For header is believed
	GetTrustedProxies() []netip.Prefix
}

type Security struct {
	SignInRateLimit         float64  `env:"SIGNIN_RATE_LIMIT" envDefault:"5"`
	SignInRateBurst         int      `env:"SIGNIN_RATE_BURST" envDefault:"10"`
	EnforcePasswordStrength bool     `env:"ENFORCE_PASSWORD_STRENGTH" envDefault:"true"`
	TrustedProxies          []string `env:"TRUSTED_PROXIES" envSeparator:","`
}

var _ SecurityConfig = Security{}

func (s Security) GetSignInRateLimit() float64 {
	return s.SignInRateLimit
}

func (s Security) GetSignInRateBurst() int {
	return s.SignInRateBurst
}

func (s Security) GetEnforcePasswordStrength() bool {
	return s.EnforcePasswordStrength
}

// GetTrustedProxies skips malformed entries, validate rejects them before this is reachable
func (s Security) GetTrustedProxies() []netip.Prefix {
	prefixes, _ := parseTrustedProxies(s.TrustedProxies)
	return prefixes
}

// parseTrustedProxies accepts CIDR ranges and bare addresses
func parseTrustedProxies(values []string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if strings.Contains(v, "/") {
			prefix, err := netip.ParsePrefix(v)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid TRUSTED_PROXIES entry %q", v)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid TRUSTED_PROXIES entry %q", v)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}
