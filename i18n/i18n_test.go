package i18n

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedCatalogIsComplete(t *testing.T) {
	b, err := New("en")
	require.NoError(t, err)

	keys := []string{
		"user.jcaptcha.expire",
		"user.jcaptcha.error",
		"user.password.not.match",
		"user.login.success",
		"user.password.retry.limit.exceed",
		"user.logout.success",
		"user.not.authenticated",
	}
	for _, lang := range []string{"en", "zh"} {
		for _, key := range keys {
			_, ok := b.messages[lang][key]
			assert.True(t, ok, "%s missing %s", lang, key)
		}
	}
}

func TestMessageFallbackAndPlaceholders(t *testing.T) {
	b, err := New("en")
	require.NoError(t, err)

	assert.Equal(t, "验证码已失效", b.Message("zh", "user.jcaptcha.expire"))
	assert.Equal(t, "The verification code has expired", b.Message("fr", "user.jcaptcha.expire"))
	assert.Equal(t, "no.such.key", b.Message("en", "no.such.key"))
	assert.Equal(t,
		"Too many failed attempts, account locked for 10 minutes",
		b.Message("en", "user.password.retry.limit.exceed", M{"minutes": 10}),
	)
}

func TestMatchAcceptLanguage(t *testing.T) {
	b, err := New("en")
	require.NoError(t, err)

	assert.Equal(t, "zh", b.Match("zh-CN,zh;q=0.9,en;q=0.8"))
	assert.Equal(t, "en", b.Match("en-US"))
	assert.Equal(t, "en", b.Match(""))
	assert.Equal(t, "en", b.Match(";;;garbage"))
}

func TestLoadRejectsMissingFallback(t *testing.T) {
	_, err := Load(strings.NewReader("zh:\n  a: b\n"), "en")
	assert.Error(t, err)
}
