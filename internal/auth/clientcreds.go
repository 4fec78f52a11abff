package auth

import (
	"crypto/rand"
	"errors"
	"math/big"

	"gorm.io/gorm"

	"ssohub/internal/models"
)

// ErrInvalidClient covers missing, unknown and inactive applications alike so
// the response never signals whether a client id exists.
var ErrInvalidClient = errors.New("invalid client credentials")

const credentialLen = 40

const credentialAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// RandomCredential returns a random alphanumeric string suitable for client
// ids and client secrets.
func RandomCredential() string {
	b := make([]byte, credentialLen)
	max := big.NewInt(int64(len(credentialAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err) // crypto/rand failure is not recoverable
		}
		b[i] = credentialAlphabet[n.Int64()]
	}
	return string(b)
}

// AuthenticateApplication resolves an active application by client id and
// verifies the presented secret against the stored hash.
func AuthenticateApplication(db *gorm.DB, clientID, clientSecret string) (*models.Application, error) {
	if clientID == "" || clientSecret == "" {
		return nil, ErrInvalidClient
	}
	var app models.Application
	if err := db.First(&app, "client_id = ? AND is_active = ?", clientID, true).Error; err != nil {
		return nil, ErrInvalidClient
	}
	if err := CheckPassword(app.ClientSecretHash, clientSecret); err != nil {
		return nil, ErrInvalidClient
	}
	return &app, nil
}

// RotateSecret replaces the application's secret hash and returns the new
// plaintext. The old secret stops working the moment the row is written.
func RotateSecret(db *gorm.DB, app *models.Application) (string, error) {
	plain := RandomCredential()
	hash, err := HashPassword(plain)
	if err != nil {
		return "", err
	}
	if err := db.Model(app).Update("client_secret_hash", hash).Error; err != nil {
		return "", err
	}
	app.ClientSecretHash = hash
	return plain, nil
}
