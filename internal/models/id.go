package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID identifie une ressource côté serveur. json-server renvoie des entiers,
// le dev store des chaînes : les deux formes sont acceptées.
type ID string

func (id ID) String() string { return string(id) }

// IsZero indique que la ressource n'a pas encore été créée côté serveur
func (id ID) IsZero() bool { return id == "" }

// MarshalJSON renvoie un nombre quand l'ID est purement numérique
func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if isNumeric(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id invalide %s: %w", string(data), err)
	}
	*id = ID(n.String())
	return nil
}

func isNumeric(s string) bool {
	if s == "0" {
		return true
	}
	if s == "" || s[0] == '0' {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}
