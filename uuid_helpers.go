package accounts

// HasAccountUUID reports whether SessionClaims.AccountUUID will succeed.
func HasAccountUUID(claims *SessionClaims) bool {
	if claims == nil {
		return false
	}
	_, err := claims.AccountUUID()
	return err == nil
}
