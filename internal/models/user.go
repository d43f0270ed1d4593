package models

type User struct {
	ID       ID     `json:"id,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

// Public retire le mot de passe avant stockage ou affichage
func (u User) Public() User {
	u.Password = ""
	return u
}

// Credentials est l'enregistrement "se souvenir de moi"
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
