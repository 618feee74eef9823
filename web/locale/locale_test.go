package locale

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalizeFromTranslationFiles(t *testing.T) {
	require.NoError(t, InitLocalizer(os.DirFS("..")))

	en := NewLocalizer("en-US")
	assert.Equal(t, "Dashboard", Localize(en, "pages.dashboard.title"))
	assert.Equal(t, "An OTP has been sent to a@b.in.", Localize(en, "pages.otp.sentTo", "Email==a@b.in"))
	assert.Equal(t, "missing.key", Localize(en, "missing.key"))

	hi := NewLocalizer("hi-IN")
	assert.Equal(t, "डैशबोर्ड", Localize(hi, "pages.dashboard.title"))
}

func TestLocalizeWithoutBundle(t *testing.T) {
	assert.Equal(t, "pages.login.title", Localize(nil, "pages.login.title"))
}

func TestLocalizerMiddleware(t *testing.T) {
	require.NoError(t, InitLocalizer(os.DirFS("..")))
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(LocalizerMiddleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, T(c, "pages.login.title"))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: LangCookie, Value: "hi-IN"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "लॉगिन", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "Login", w.Body.String())
}
