package portalapi

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danesh-portal/danesh/storage/model"
)

func TestStaticPages(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, fiber.MethodGet, "/api/about-us", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var page model.StaticPage
	decode(t, resp, &page)
	assert.Empty(t, page.Title)

	contact := model.StaticPage{
		Title:   "تماس با ما",
		Body:    "ساعات کاری: شنبه تا چهارشنبه",
		Phone:   "021-12345678",
		Address: "تهران، خیابان انقلاب",
		Social:  map[string]string{"telegram": "@danesh"},
	}
	resp = env.do(t, fiber.MethodPut, "/api/contact-us", contact, env.userCookie(t, "farmer1"))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// prime the cache before the update
	resp = env.do(t, fiber.MethodGet, "/api/contact-us", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.do(t, fiber.MethodPut, "/api/contact-us", contact, env.adminCookie(t))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.do(t, fiber.MethodGet, "/api/contact-us", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var got model.StaticPage
	decode(t, resp, &got)
	assert.Equal(t, contact, got)

	resp = env.do(t, fiber.MethodGet, "/api/about-us", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &page)
	assert.Empty(t, page.Title)
}
