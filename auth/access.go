package auth

// CheckAccess decides whether account may invoke an operation declaring
// requiredRoles. An empty set means authentication alone suffices. There is
// no role hierarchy: ADMIN does not satisfy a USER-only requirement unless
// explicitly listed.
func CheckAccess(account Account, requiredRoles []Role) bool {
	if len(requiredRoles) == 0 {
		return true
	}
	for _, role := range requiredRoles {
		if account.Role == role {
			return true
		}
	}
	return false
}
