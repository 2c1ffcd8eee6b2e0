package models

// Claims represents JWT claims extracted from an owner token
type Claims struct {
	Sub   string `json:"sub"` // Subject (owner ID)
	Email string `json:"email"`
	Iss   string `json:"iss"` // Issuer
	Exp   int64  `json:"exp"` // Expiration
	Iat   int64  `json:"iat"` // Issued at
}
