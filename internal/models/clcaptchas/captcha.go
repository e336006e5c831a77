package clcaptchas

import (
	"fmt"
	"strings"
	"vitrine/internal/clredis"

	"github.com/mojocn/base64Captcha"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type Captchas struct {
	store  base64Captcha.Store
	driver base64Captcha.Driver
}

// Challenge captcha envoyé au navigateur, answer rempli hors production
type Challenge struct {
	CaptchaID string `json:"captcha_id"`
	Image     string `json:"image"`
	Answer    string `json:"answer"`
}

// New stockage redis si un client est fourni, mémoire sinon
func New(client *redis.Client) *Captchas {
	var store base64Captcha.Store
	if client != nil {
		store = clredis.NewCaptchaStore(client)
	} else {
		store = base64Captcha.DefaultMemStore
	}

	driver := base64Captcha.NewDriverMath(
		80,  // hauteur
		240, // largeur
		6,   // nombre d'opérations à afficher
		base64Captcha.OptionShowHollowLine,
		nil, // couleur de fond
		nil, // police
		nil, // couleurs
	)

	return &Captchas{
		store:  store,
		driver: driver,
	}
}

func (cap *Captchas) GenerateCaptcha(production bool) (*Challenge, error) {
	captcha := base64Captcha.NewCaptcha(cap.driver, cap.store)

	id, b64s, answer, err := captcha.Generate()
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la génération du CAPTCHA")
	}

	challenge := &Challenge{CaptchaID: id, Image: b64s}
	if !production {
		log.Debug().Str("captcha_id", id).Str("answer", answer).Msg("CAPTCHA généré")
		challenge.Answer = answer
	}

	return challenge, nil
}

// VerifyCaptcha la réponse est consommée, un second essai échoue
func (cap *Captchas) VerifyCaptcha(captchaID string, captchaAnswer string) error {
	captchaID = strings.TrimSpace(captchaID)
	captchaAnswer = strings.TrimSpace(captchaAnswer)

	if captchaID == "" || captchaAnswer == "" {
		return fmt.Errorf("CAPTCHA manquant")
	}

	if !cap.store.Verify(captchaID, captchaAnswer, true) {
		return fmt.Errorf("CAPTCHA incorrect")
	}
	return nil
}
