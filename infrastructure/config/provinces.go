package config

import (
	"fmt"
	"strings"

	"nhbrcforms/domain/apperrors"
	"nhbrcforms/domain/province"
)

// ProvinceDirectory is the immutable province → site/list mapping loaded at startup.
type ProvinceDirectory struct {
	targets map[province.Province]province.Target
}

// LoadProvinceDirectory reads SHAREPOINT_SITE_<KEY> and SHAREPOINT_LIST_<KEY> for
// every province through lookup (os.Getenv in production).
func LoadProvinceDirectory(lookup func(string) string) *ProvinceDirectory {
	targets := make(map[province.Province]province.Target, len(province.All))
	for _, p := range province.All {
		targets[p] = province.Target{
			Province: p,
			SiteURL:  strings.TrimSpace(lookup(p.SiteEnvKey())),
			ListName: strings.TrimSpace(lookup(p.ListEnvKey())),
		}
	}
	return &ProvinceDirectory{targets: targets}
}

// Resolve returns the site and list for name. It fails with a ConfigurationError
// when name is not one of the nine provinces or its site/list is not configured.
func (d *ProvinceDirectory) Resolve(name string) (province.Target, error) {
	p, ok := province.Parse(name)
	if !ok {
		return province.Target{}, &apperrors.ConfigurationError{
			Key:    "province",
			Reason: fmt.Sprintf("unknown province %q", name),
		}
	}

	target := d.targets[p]
	if target.SiteURL == "" {
		return province.Target{}, &apperrors.ConfigurationError{Key: p.SiteEnvKey(), Reason: "site URL not configured for " + p.String()}
	}
	if target.ListName == "" {
		return province.Target{}, &apperrors.ConfigurationError{Key: p.ListEnvKey(), Reason: "list name not configured for " + p.String()}
	}
	return target, nil
}

// Configured returns the provinces with both site and list set, in canonical order.
func (d *ProvinceDirectory) Configured() []province.Target {
	var out []province.Target
	for _, p := range province.All {
		if t := d.targets[p]; t.SiteURL != "" && t.ListName != "" {
			out = append(out, t)
		}
	}
	return out
}

// Missing returns the configuration keys that are unset, in canonical order.
func (d *ProvinceDirectory) Missing() []string {
	var out []string
	for _, p := range province.All {
		t := d.targets[p]
		if t.SiteURL == "" {
			out = append(out, p.SiteEnvKey())
		}
		if t.ListName == "" {
			out = append(out, p.ListEnvKey())
		}
	}
	return out
}
