package models

import "errors"

var (
	// Échec réseau ou réponse HTTP non 2xx
	ErrTransport = errors.New("échec de communication avec le serveur")
	ErrNotFound  = errors.New("ressource introuvable")

	// Échec local, avant toute requête
	ErrValidation = errors.New("données invalides")

	ErrUnauthorized = errors.New("identifiant ou mot de passe incorrect")
	ErrTimeout      = errors.New("délai dépassé")

	// Résultat arrivé après la fermeture de la vue, jamais appliqué
	ErrDiscarded = errors.New("résultat ignoré : vue fermée")

	ErrInvalidLine          = errors.New("ligne de panier invalide")
	ErrConfirmationRequired = errors.New("confirmation requise")
	ErrEmptyCart            = errors.New("panier vide")
)
