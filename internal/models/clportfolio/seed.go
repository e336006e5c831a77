package clportfolio

import (
	"context"

	"github.com/rs/zerolog"
)

// projets affichés tant que l'administrateur n'a rien créé
func samples() []Portfolio {
	return []Portfolio{
		{
			Title:        "Boutique en ligne artisanale",
			Description:  "Refonte complète d'une **boutique e-commerce** : catalogue, paiement et suivi des commandes.\n\nTemps de chargement divisé par trois.",
			TechStack:    "Go, PostgreSQL, Vue.js",
			ProjectURL:   "https://example.com/boutique",
			Featured:     true,
			DisplayOrder: 0,
			Media: []Media{
				{Type: MediaImage, URL: "/static/img/samples/boutique.jpg"},
			},
			TeamMembers: []TeamMember{
				{Name: "Claire Martin", Role: "Cheffe de projet"},
				{Name: "Hugo Bernard", Role: "Développeur backend"},
			},
		},
		{
			Title:        "Application de réservation",
			Description:  "Application mobile de **réservation de créneaux** pour un réseau de salles de sport, avec notifications et paiement intégré.",
			TechStack:    "Flutter, Go, Redis",
			Featured:     true,
			DisplayOrder: 1,
			Media: []Media{
				{Type: MediaImage, URL: "/static/img/samples/reservation.jpg"},
				{Type: MediaVideo, URL: "/static/img/samples/reservation.mp4"},
			},
		},
		{
			Title:        "Tableau de bord industriel",
			Description:  "Supervision en temps réel d'une ligne de production : collecte des capteurs, alertes et rapports hebdomadaires.",
			TechStack:    "Go, Prometheus, Grafana",
			DisplayOrder: 2,
			Media: []Media{
				{Type: MediaImage, URL: "/static/img/samples/dashboard.png"},
			},
		},
	}
}

// seedSamples crée les projets d'exemple si la table est vide
func (s *PortfolioService) seedSamples(ctx context.Context) error {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&Portfolio{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	projects := samples()
	if err := db.Create(&projects).Error; err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Int("count", len(projects)).Msg("Projets d'exemple créés")
	return nil
}
