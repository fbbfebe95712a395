package service

import "golang.org/x/crypto/bcrypt"

// DefaultBcryptCost replica el factor de trabajo del despliegue de referencia.
const DefaultBcryptCost = 12

// PasswordHasher encapsula el hasheo bcrypt con costo configurable.
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash genera un hash bcrypt con sal embebida.
func (h *PasswordHasher) Hash(password string) (string, error) {
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashBytes), nil
}

// Verify compara password contra el hash almacenado. Nunca devuelve error:
// un hash ilegible o una contraseña distinta son simplemente false.
func (h *PasswordHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
