package geo

import (
	"regexp"
	"sort"
	"strings"
)

// timezoneCountries maps IANA timezone names to ISO 3166-1 alpha-2
// country codes. Exact-match only.
var timezoneCountries = map[string]string{
	"Europe/Amsterdam":     "NL",
	"Europe/Athens":        "GR",
	"Europe/Berlin":        "DE",
	"Europe/Brussels":      "BE",
	"Europe/Bucharest":     "RO",
	"Europe/Budapest":      "HU",
	"Europe/Copenhagen":    "DK",
	"Europe/Dublin":        "IE",
	"Europe/Helsinki":      "FI",
	"Europe/Lisbon":        "PT",
	"Europe/London":        "GB",
	"Europe/Madrid":        "ES",
	"Europe/Oslo":          "NO",
	"Europe/Paris":         "FR",
	"Europe/Prague":        "CZ",
	"Europe/Rome":          "IT",
	"Europe/Stockholm":     "SE",
	"Europe/Vienna":        "AT",
	"Europe/Warsaw":        "PL",
	"Europe/Zurich":        "CH",
	"Europe/Istanbul":      "TR",
	"Europe/Moscow":        "RU",
	"Europe/Kyiv":          "UA",
	"America/New_York":     "US",
	"America/Chicago":      "US",
	"America/Denver":       "US",
	"America/Los_Angeles":  "US",
	"America/Phoenix":      "US",
	"America/Anchorage":    "US",
	"America/Toronto":      "CA",
	"America/Vancouver":    "CA",
	"America/Mexico_City":  "MX",
	"America/Sao_Paulo":    "BR",
	"America/Buenos_Aires": "AR",
	"America/Bogota":       "CO",
	"America/Lima":         "PE",
	"America/Santiago":     "CL",
	"Asia/Tokyo":           "JP",
	"Asia/Seoul":           "KR",
	"Asia/Shanghai":        "CN",
	"Asia/Hong_Kong":       "HK",
	"Asia/Taipei":          "TW",
	"Asia/Singapore":       "SG",
	"Asia/Bangkok":         "TH",
	"Asia/Jakarta":         "ID",
	"Asia/Kuala_Lumpur":    "MY",
	"Asia/Manila":          "PH",
	"Asia/Kolkata":         "IN",
	"Asia/Dubai":           "AE",
	"Asia/Riyadh":          "SA",
	"Asia/Tel_Aviv":        "IL",
	"Asia/Jerusalem":       "IL",
	"Africa/Cairo":         "EG",
	"Africa/Johannesburg":  "ZA",
	"Africa/Lagos":         "NG",
	"Africa/Nairobi":       "KE",
	"Australia/Sydney":     "AU",
	"Australia/Melbourne":  "AU",
	"Australia/Perth":      "AU",
	"Pacific/Auckland":     "NZ",
}

// countryNames maps lowercase country and major-city names to country
// codes, matched by substring against free-form location input.
var countryNames = map[string]string{
	"italy":          "IT",
	"milan":          "IT",
	"rome":           "IT",
	"france":         "FR",
	"paris":          "FR",
	"germany":        "DE",
	"berlin":         "DE",
	"munich":         "DE",
	"frankfurt":      "DE",
	"spain":          "ES",
	"madrid":         "ES",
	"barcelona":      "ES",
	"portugal":       "PT",
	"lisbon":         "PT",
	"netherlands":    "NL",
	"amsterdam":      "NL",
	"belgium":        "BE",
	"brussels":       "BE",
	"switzerland":    "CH",
	"zurich":         "CH",
	"geneva":         "CH",
	"austria":        "AT",
	"vienna":         "AT",
	"greece":         "GR",
	"athens":         "GR",
	"united kingdom": "GB",
	"england":        "GB",
	"london":         "GB",
	"ireland":        "IE",
	"dublin":         "IE",
	"sweden":         "SE",
	"stockholm":      "SE",
	"norway":         "NO",
	"oslo":           "NO",
	"denmark":        "DK",
	"copenhagen":     "DK",
	"finland":        "FI",
	"helsinki":       "FI",
	"poland":         "PL",
	"warsaw":         "PL",
	"czech":          "CZ",
	"prague":         "CZ",
	"hungary":        "HU",
	"budapest":       "HU",
	"romania":        "RO",
	"bucharest":      "RO",
	"turkey":         "TR",
	"istanbul":       "TR",
	"russia":         "RU",
	"moscow":         "RU",
	"ukraine":        "UA",
	"united states":  "US",
	"usa":            "US",
	"new york":       "US",
	"chicago":        "US",
	"los angeles":    "US",
	"san francisco":  "US",
	"miami":          "US",
	"canada":         "CA",
	"toronto":        "CA",
	"vancouver":      "CA",
	"mexico":         "MX",
	"brazil":         "BR",
	"sao paulo":      "BR",
	"argentina":      "AR",
	"colombia":       "CO",
	"chile":          "CL",
	"peru":           "PE",
	"japan":          "JP",
	"tokyo":          "JP",
	"south korea":    "KR",
	"seoul":          "KR",
	"china":          "CN",
	"shanghai":       "CN",
	"beijing":        "CN",
	"hong kong":      "HK",
	"taiwan":         "TW",
	"taipei":         "TW",
	"singapore":      "SG",
	"thailand":       "TH",
	"bangkok":        "TH",
	"indonesia":      "ID",
	"jakarta":        "ID",
	"malaysia":       "MY",
	"philippines":    "PH",
	"india":          "IN",
	"mumbai":         "IN",
	"delhi":          "IN",

	"united arab emirates": "AE",
	"dubai":                "AE",
	"saudi arabia":         "SA",
	"israel":               "IL",
	"egypt":                "EG",
	"south africa":         "ZA",
	"nigeria":              "NG",
	"kenya":                "KE",
	"australia":            "AU",
	"sydney":               "AU",
	"melbourne":            "AU",
	"new zealand":          "NZ",
	"auckland":             "NZ",
}

var twoLetterCode = regexp.MustCompile(`^[A-Za-z]{2}$`)
// Uppercase only: lowercase words like "in" or "to" are not codes.
var bareCodeToken = regexp.MustCompile(`\b([A-Z]{2})\b`)

// sortedNames keeps substring matching deterministic.
var sortedNames = func() []string {
	names := make([]string, 0, len(countryNames))
	for name := range countryNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}()

// ResolveCountry turns free-form location input (timezone name, country
// or city name, "City, CC", locale-style "xx-CC", or an already-valid
// code) into a 2-letter country code. The second return is false when
// nothing resolves; the caller must then drop the field rather than send
// an empty string upstream.
func ResolveCountry(input string) (string, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false
	}

	if cc, ok := timezoneCountries[input]; ok {
		return cc, true
	}

	if twoLetterCode.MatchString(input) {
		return strings.ToUpper(input), true
	}

	// Locale-style suffix: "en-US", "it-IT".
	if idx := strings.LastIndex(input, "-"); idx >= 0 {
		suffix := input[idx+1:]
		if twoLetterCode.MatchString(suffix) {
			return strings.ToUpper(suffix), true
		}
	}

	lower := strings.ToLower(input)
	for _, name := range sortedNames {
		if strings.Contains(lower, name) {
			return countryNames[name], true
		}
	}

	// Last resort: a bare 2-letter token somewhere in the string. "EU"
	// is excluded, it is not a country code.
	for _, m := range bareCodeToken.FindAllStringSubmatch(input, -1) {
		if m[1] != "EU" {
			return m[1], true
		}
	}

	return "", false
}
