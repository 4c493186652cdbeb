package i18n

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestMatch(t *testing.T) {
	l := NewLocalizer(nil)
	cases := []struct {
		explicit, accept string
		want             language.Tag
		ok               bool
	}{
		{"", "", language.Persian, false},
		{"en", "", language.English, true},
		{"", "en-US,en;q=0.9", language.English, true},
		{"", "fa-IR", language.Persian, true},
		{"fa", "en-US", language.Persian, true},
		{"", "de-DE", language.Persian, false},
		{"xx-invalid-", "", language.Persian, false},
	}
	for _, c := range cases {
		got, ok := l.Match(c.explicit, c.accept)
		assert.Equal(t, c.want, got, "explicit=%q accept=%q", c.explicit, c.accept)
		assert.Equal(t, c.ok, ok, "explicit=%q accept=%q", c.explicit, c.accept)
	}
}

func TestT(t *testing.T) {
	assert.Equal(t, "Invalid username or password", T(language.English, MsgInvalidCredentials))
	assert.Equal(t, "نام کاربری یا رمز عبور اشتباه است", T(language.Persian, MsgInvalidCredentials))
	assert.Equal(t, T(language.Persian, MsgForbidden), T(language.German, MsgForbidden))
	assert.Equal(t, "no_such_message", T(language.English, "no_such_message"))
}

func TestCatalogueComplete(t *testing.T) {
	for id := range catalogue[language.Persian] {
		_, ok := catalogue[language.English][id]
		assert.True(t, ok, "missing english message %q", id)
	}
	assert.Len(t, catalogue[language.English], len(catalogue[language.Persian]))
}

type staticCountry string

func (s staticCountry) CountryCode(string) (string, error) {
	return string(s), nil
}

func detect(t *testing.T, l *Localizer, target, accept string) string {
	t.Helper()
	app := fiber.New()
	app.Get("/", l.Middleware(), func(c *fiber.Ctx) error {
		return c.SendString(Tc(c, MsgNotFound))
	})
	req := httptest.NewRequest(fiber.MethodGet, target, nil)
	if accept != "" {
		req.Header.Set(fiber.HeaderAcceptLanguage, accept)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestDetect(t *testing.T) {
	fa := T(language.Persian, MsgNotFound)
	en := T(language.English, MsgNotFound)

	assert.Equal(t, fa, detect(t, NewLocalizer(nil), "/", ""))
	assert.Equal(t, en, detect(t, NewLocalizer(nil), "/?lang=en", ""))
	assert.Equal(t, en, detect(t, NewLocalizer(nil), "/", "en"))
	assert.Equal(t, en, detect(t, NewLocalizer(staticCountry("DE")), "/", ""))
	assert.Equal(t, fa, detect(t, NewLocalizer(staticCountry("IR")), "/", ""))
	assert.Equal(t, fa, detect(t, NewLocalizer(staticCountry("DE")), "/", "fa"))
}
