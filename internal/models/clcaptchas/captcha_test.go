package clcaptchas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	c := New(nil)

	challenge, err := c.GenerateCaptcha(false)
	require.NoError(t, err)
	assert.NotEmpty(t, challenge.CaptchaID)
	assert.Contains(t, challenge.Image, "data:image/png;base64,")
	require.NotEmpty(t, challenge.Answer)

	assert.NoError(t, c.VerifyCaptcha(challenge.CaptchaID, " "+challenge.Answer+" "))
	// réponse consommée
	assert.Error(t, c.VerifyCaptcha(challenge.CaptchaID, challenge.Answer))
}

func TestProductionHidesAnswer(t *testing.T) {
	challenge, err := New(nil).GenerateCaptcha(true)
	require.NoError(t, err)
	assert.Empty(t, challenge.Answer)
}

func TestVerifyErrors(t *testing.T) {
	c := New(nil)
	assert.EqualError(t, c.VerifyCaptcha("", "1"), "CAPTCHA manquant")

	challenge, err := c.GenerateCaptcha(false)
	require.NoError(t, err)
	assert.EqualError(t, c.VerifyCaptcha(challenge.CaptchaID, "faux"), "CAPTCHA incorrect")
}
