package procedure

import "github.com/starford/procforge/internal/models"

// Example returns a filled-in sample procedure.
func Example() models.Procedure {
	return models.Procedure{
		Title:          "Installation d'un nouveau poste de travail",
		Reference:      "PROC-IT-2024-001",
		Version:        "1.0",
		Author:         "Jean Dupont",
		Validator:      "Marie Martin",
		Classification: "Interne",
		Objective: "Cette procédure décrit les étapes nécessaires pour installer et configurer un nouveau poste de travail " +
			"informatique pour un nouvel employé, en s'assurant que tous les logiciels requis sont installés et que " +
			"l'accès aux ressources de l'entreprise est correctement configuré.",
		Scope: models.Scope{
			Perimeter: "Service IT, Ressources Humaines",
			Personnel: "Techniciens IT, Responsable IT",
			Systems:   "Postes de travail Windows 11, Active Directory, Office 365",
		},
		Prerequisites: models.Prerequisites{
			Technical: []string{
				"Connaissances Windows 11",
				"Accès administrateur sur Active Directory",
				"Maîtrise des outils de déploiement",
			},
			Access: []string{
				"Accès administrateur local",
				"Droits sur Active Directory",
				"Accès aux licences logicielles",
			},
			Tools: []string{
				"Image système Windows 11",
				"Clé USB bootable",
				"Licences Office 365",
				"Câble réseau",
			},
			Environment: []string{
				"Matériel compatible et fonctionnel (PC, serveurs, routeurs)",
				"OS et logiciels à jour",
				"Sauvegardes récentes des systèmes critiques",
				"Plans de rollback / restauration disponibles",
			},
		},
		Steps: []models.Step{{
			Name:        "Préparation du matériel",
			Objective:   "Vérifier et préparer le matériel informatique",
			Responsible: "Technicien IT",
			Duration:    "15 minutes",
			Actions: []models.Action{{
				Description: "Vérifier l'état du matériel et démarrer l'installation",
				Scenarios: []models.Scenario{
					{
						Condition: "Si le matériel est neuf",
						Steps: []string{
							"Déballer le matériel avec précaution",
							"Vérifier l'absence de dommages physiques",
							"Connecter écran, clavier, souris",
							"Brancher l'alimentation",
							"Démarrer pour la première fois",
						},
					},
					{
						Condition: "Si le matériel est reconditionné",
						Steps: []string{
							"Effectuer un nettoyage complet",
							"Vérifier tous les ports et connexions",
							"Tester le démarrage",
							"Formater le disque dur si nécessaire",
						},
					},
				},
			}},
			Controls: []string{
				"Vérifier que tous les composants fonctionnent",
				"S'assurer que l'écran s'affiche correctement",
			},
			Result: "Matériel opérationnel et prêt pour l'installation système",
		}},
		Validation: models.Validation{
			Redactor: models.Person{Name: "Jean Dupont"},
			Verifier: models.Person{Name: "Pierre Durand"},
			Approver: models.Person{Name: "Marie Martin"},
		},
		Contact: models.Contact{
			SupportEmail: "support-it@entreprise.com",
			Hotline:      "+33 1 23 45 67 89",
			Portal:       "https://intranet.entreprise.com/it",
			Location:     "Bâtiment A, Étage 2, Bureau IT",
		},
		Company:        "Entreprise Tech Solutions",
		VersionHistory: []models.Entry{},
	}
}
