package i18n

import (
	"net"
	"strings"

	"github.com/oschwald/maxminddb-golang"
	"github.com/pkg/errors"
)

// CountryResolver resolves ISO country codes from IP addresses
type CountryResolver interface {
	CountryCode(ip string) (string, error)
}

// GeoIP resolves countries from a MaxMind country database
type GeoIP struct {
	reader *maxminddb.Reader
}

// OpenGeoIP opens the database at path; an empty path returns nil
func OpenGeoIP(path string) (*GeoIP, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	reader, err := maxminddb.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "geoip: failed to open database")
	}
	return &GeoIP{reader: reader}, nil
}

type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// CountryCode returns the ISO country code for ip, or "" if unknown
func (g *GeoIP) CountryCode(ip string) (string, error) {
	if g == nil || g.reader == nil {
		return "", nil
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", errors.Errorf("geoip: invalid ip %q", ip)
	}
	var rec countryRecord
	if err := g.reader.Lookup(parsed, &rec); err != nil {
		return "", errors.Wrap(err, "geoip: lookup failed")
	}
	return rec.Country.ISOCode, nil
}

// Close closes the database
func (g *GeoIP) Close() error {
	if g == nil || g.reader == nil {
		return nil
	}
	return g.reader.Close()
}
