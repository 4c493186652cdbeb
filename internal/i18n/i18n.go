// Package i18n negotiates the response language and holds the localized
// API messages. Persian is the default.
package i18n

import (
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

const localsLang = "danesh.lang"

// Supported lists the languages with a message catalogue; the first entry is
// the fallback
var Supported = []language.Tag{
	language.Persian,
	language.English,
}

// Localizer picks the response language of a request
type Localizer struct {
	matcher      language.Matcher
	geo          CountryResolver
	persianGeoIP map[string]bool
}

// NewLocalizer creates a Localizer; geo may be nil
func NewLocalizer(geo CountryResolver) *Localizer {
	return &Localizer{
		matcher: language.NewMatcher(Supported),
		geo:     geo,
		persianGeoIP: map[string]bool{
			"IR": true,
			"AF": true,
			"TJ": true,
		},
	}
}

// Match returns the supported language best matching an explicit choice and
// an Accept-Language header
func (l *Localizer) Match(explicit, acceptLanguage string) (language.Tag, bool) {
	var prefs []language.Tag
	if explicit != "" {
		if t, err := language.Parse(explicit); err == nil {
			prefs = append(prefs, t)
		}
	}
	if acceptLanguage != "" {
		tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
		if err == nil {
			prefs = append(prefs, tags...)
		}
	}
	if len(prefs) == 0 {
		return Supported[0], false
	}
	_, idx, conf := l.matcher.Match(prefs...)
	if conf == language.No {
		return Supported[0], false
	}
	return Supported[idx], true
}

// Detect returns the language of the request: ?lang, then Accept-Language,
// then the GeoIP country, then Persian
func (l *Localizer) Detect(c *fiber.Ctx) language.Tag {
	if tag, ok := l.Match(c.Query("lang"), c.Get(fiber.HeaderAcceptLanguage)); ok {
		return tag
	}
	if l.geo != nil {
		country, err := l.geo.CountryCode(c.IP())
		if err != nil {
			log.WithError(err).Debug("geoip lookup failed")
		} else if country != "" && !l.persianGeoIP[country] {
			return language.English
		}
	}
	return Supported[0]
}

// Middleware stores the detected language in the request context
func (l *Localizer) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(localsLang, l.Detect(c))
		return c.Next()
	}
}

// Lang returns the language stored by Middleware, or Persian
func Lang(c *fiber.Ctx) language.Tag {
	if tag, ok := c.Locals(localsLang).(language.Tag); ok {
		return tag
	}
	return Supported[0]
}

// Tc translates id into the language of the request
func Tc(c *fiber.Ctx, id MessageID) string {
	return T(Lang(c), id)
}
