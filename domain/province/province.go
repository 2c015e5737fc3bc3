package province

import "strings"

// Province is one of the nine South African provinces a submission can target.
type Province string

const (
	EasternCape  Province = "Eastern Cape"
	FreeState    Province = "Free State"
	Gauteng      Province = "Gauteng"
	KwaZuluNatal Province = "KwaZulu Natal"
	Limpopo      Province = "Limpopo"
	Mpumalanga   Province = "Mpumalanga"
	NorthWest    Province = "North West"
	NorthernCape Province = "Northern Cape"
	WesternCape  Province = "Western Cape"
)

// All lists every province in a stable order.
var All = []Province{
	EasternCape,
	FreeState,
	Gauteng,
	KwaZuluNatal,
	Limpopo,
	Mpumalanga,
	NorthWest,
	NorthernCape,
	WesternCape,
}

// Parse returns the province named exactly by name. Surrounding whitespace is ignored.
func Parse(name string) (Province, bool) {
	name = strings.TrimSpace(name)
	for _, p := range All {
		if string(p) == name {
			return p, true
		}
	}
	return "", false
}

// Key returns the configuration key suffix, e.g. "KWAZULU_NATAL".
func (p Province) Key() string {
	return strings.ToUpper(strings.ReplaceAll(string(p), " ", "_"))
}

// SiteEnvKey is the environment variable holding the province's SharePoint site URL.
func (p Province) SiteEnvKey() string {
	return "SHAREPOINT_SITE_" + p.Key()
}

// ListEnvKey is the environment variable holding the province's list internal name.
func (p Province) ListEnvKey() string {
	return "SHAREPOINT_LIST_" + p.Key()
}

func (p Province) String() string {
	return string(p)
}

// Target is where a province's submissions land.
type Target struct {
	Province Province
	SiteURL  string
	ListName string // list internal name, not the display name
}
