// Package session garde l'utilisateur connecté et l'enregistrement
// "se souvenir de moi" dans le stockage local de l'appareil.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"sneaker_store/internal/device"
	"sneaker_store/internal/models"
	"sneaker_store/internal/notify"
	"sneaker_store/internal/utils"
)

// Clés du stockage local
const (
	UserKey       = "user"
	RememberedKey = "remembered"
	DeviceKeyKey  = "device_key"
)

// Accounts est la partie du client distant utilisée par la session
type Accounts interface {
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	CreateUser(ctx context.Context, u models.User) (*models.User, error)
}

type Session struct {
	accounts Accounts
	store    device.Store
	notifier notify.Notifier
	validate *validator.Validate

	mu   sync.RWMutex
	user *models.User
}

func New(accounts Accounts, store device.Store, notifier notify.Notifier) *Session {
	return &Session{
		accounts: accounts,
		store:    store,
		notifier: notify.Or(notifier),
		validate: validator.New(),
	}
}

type loginForm struct {
	Username string `validate:"required,min=3"`
	Password string `validate:"required,min=6"`
}

// Registration est le formulaire d'inscription
type Registration struct {
	Username        string `validate:"required,min=3"`
	Email           string `validate:"required,email"`
	Password        string `validate:"required,min=6"`
	ConfirmPassword string `validate:"eqfield=Password"`
}

// Login valide le formulaire localement puis interroge le store. Aucune
// requête n'est envoyée si le formulaire est invalide.
func (s *Session) Login(ctx context.Context, username, password string, remember bool) (*models.User, error) {
	form := loginForm{Username: strings.TrimSpace(username), Password: password}
	if err := s.validate.Struct(form); err != nil {
		return nil, s.invalid("Connexion", err)
	}

	user, err := s.accounts.Authenticate(ctx, form.Username, form.Password)
	if err != nil {
		// le client a déjà levé la notice
		return nil, err
	}

	if err := s.saveUser(ctx, *user); err != nil {
		notify.Error(s.notifier, "Connexion", "Impossible d'enregistrer la session")
		return nil, err
	}
	if remember {
		err = s.saveRemembered(ctx, models.Credentials{Username: form.Username, Password: form.Password})
	} else {
		err = s.store.Delete(ctx, RememberedKey)
	}
	if err != nil {
		// la connexion reste valide, seul le pré-remplissage est perdu
		log.Printf("⚠️ Identifiants mémorisés non mis à jour: %v", err)
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	log.Printf("✅ Connecté : %s", user.Username)
	s.notifier.Notify(notify.Notice{Level: notify.LevelInfo, Action: "Connexion", Message: "Bonjour, " + user.Username + " !"})
	return user, nil
}

// Register crée le compte. L'utilisateur doit ensuite se connecter.
func (s *Session) Register(ctx context.Context, r Registration) (*models.User, error) {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	if err := s.validate.Struct(r); err != nil {
		return nil, s.invalid("Inscription", err)
	}

	created, err := s.accounts.CreateUser(ctx, models.User{Username: r.Username, Email: r.Email, Password: r.Password})
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(notify.Notice{Level: notify.LevelInfo, Action: "Inscription", Message: "Bienvenue, " + created.Username + " !"})
	return created, nil
}

type resetForm struct {
	Email string `validate:"required,email"`
}

// RequestPasswordReset vérifie l'email saisi et confirme l'envoi du lien.
// Le store n'expose pas de réinitialisation : aucune requête n'est faite.
func (s *Session) RequestPasswordReset(email string) error {
	form := resetForm{Email: strings.TrimSpace(email)}
	if err := s.validate.Struct(form); err != nil {
		return s.invalid("Mot de passe oublié", err)
	}

	log.Printf("📧 Demande de réinitialisation pour %s", form.Email)
	s.notifier.Notify(notify.Notice{
		Level:   notify.LevelInfo,
		Action:  "Mot de passe oublié",
		Message: "Un lien de réinitialisation a été envoyé à " + form.Email + ".",
	})
	return nil
}

// Current renvoie l'utilisateur connecté, ou nil
func (s *Session) Current() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Restore recharge l'utilisateur enregistré au démarrage de l'application
func (s *Session) Restore(ctx context.Context) (*models.User, error) {
	data, err := s.store.Get(ctx, UserKey)
	if errors.Is(err, device.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := json.Unmarshal(data, &user); err != nil || user.Username == "" {
		log.Printf("⚠️ Session locale illisible, suppression: %v", err)
		return nil, s.store.Delete(ctx, UserKey)
	}

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	return &user, nil
}

// Remembered renvoie les identifiants mémorisés pour pré-remplir le
// formulaire, ou nil s'il n'y en a pas.
func (s *Session) Remembered(ctx context.Context) (*models.Credentials, error) {
	sealed, err := s.store.Get(ctx, RememberedKey)
	if errors.Is(err, device.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	key, err := s.deviceKey(ctx)
	if err != nil {
		return nil, err
	}
	plain, err := utils.Open(key, sealed)
	if err != nil {
		// ancien enregistrement en clair ou clé régénérée : on l'oublie
		log.Printf("⚠️ Identifiants mémorisés illisibles, suppression: %v", err)
		return nil, s.store.Delete(ctx, RememberedKey)
	}

	var creds models.Credentials
	if err := json.Unmarshal(plain, &creds); err != nil {
		return nil, s.store.Delete(ctx, RememberedKey)
	}
	return &creds, nil
}

// Logout efface l'utilisateur enregistré. Les identifiants mémorisés sont
// conservés sauf si clearRemembered est vrai.
func (s *Session) Logout(ctx context.Context, clearRemembered bool) error {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()

	if err := s.store.Delete(ctx, UserKey); err != nil {
		return err
	}
	if clearRemembered {
		return s.store.Delete(ctx, RememberedKey)
	}
	return nil
}

func (s *Session) saveUser(ctx context.Context, u models.User) error {
	data, err := json.Marshal(u.Public())
	if err != nil {
		return err
	}
	return s.store.Set(ctx, UserKey, data)
}

func (s *Session) saveRemembered(ctx context.Context, creds models.Credentials) error {
	key, err := s.deviceKey(ctx)
	if err != nil {
		return err
	}
	plain, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	sealed, err := utils.Seal(key, plain)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, RememberedKey, sealed)
}

// deviceKey lit la clé de l'appareil, ou la crée au premier usage
func (s *Session) deviceKey(ctx context.Context) (*[utils.KeySize]byte, error) {
	data, err := s.store.Get(ctx, DeviceKeyKey)
	if err == nil && len(data) == utils.KeySize {
		key := new([utils.KeySize]byte)
		copy(key[:], data)
		return key, nil
	}
	if err != nil && !errors.Is(err, device.ErrNotFound) {
		return nil, err
	}

	key, err := utils.NewKey()
	if err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, DeviceKeyKey, key[:]); err != nil {
		return nil, err
	}
	return key, nil
}

// invalid traduit la première erreur de validation en notice
func (s *Session) invalid(action string, err error) error {
	message := "Formulaire invalide"
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		message = fieldMessage(verrs[0])
	}
	notify.Warn(s.notifier, action, message)
	return fmt.Errorf("%w: %s", models.ErrValidation, message)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "Username":
		if fe.Tag() == "required" {
			return "L'identifiant est obligatoire"
		}
		return "L'identifiant doit contenir au moins 3 caractères"
	case "Email":
		if fe.Tag() == "required" {
			return "L'email est obligatoire"
		}
		return "Email invalide"
	case "Password":
		if fe.Tag() == "required" {
			return "Le mot de passe est obligatoire"
		}
		return "Le mot de passe doit contenir au moins 6 caractères"
	case "ConfirmPassword":
		return "Les mots de passe ne correspondent pas"
	}
	return "Champ invalide : " + fe.Field()
}
