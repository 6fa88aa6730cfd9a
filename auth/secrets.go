package auth

import (
	"os"
)

// retrieve the JWT secret used for signing gateway tokens
func GetSecret() []byte {
	secret := os.Getenv("SQLMCP_SECRET")
	return []byte(secret)
}
