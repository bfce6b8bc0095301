package models

// Permission tags gate which portal sections a user can reach.
const (
	PermissionAdministrator = "Administrator"
	PermissionCreateIndex   = "AllowCreateIndex"
	PermissionQuery         = "AllowQuery"
)

// AllValidPermissions is the whitelist of assignable permission tags
var AllValidPermissions = map[string]bool{
	PermissionAdministrator: true,
	PermissionCreateIndex:   true,
	PermissionQuery:         true,
}

// IsValidPermission checks if a tag exists in the whitelist
func IsValidPermission(tag string) bool {
	return AllValidPermissions[tag]
}

// HasPermission checks if a permission list contains the required tag
func HasPermission(permissions []string, required string) bool {
	for _, p := range permissions {
		if p == required {
			return true
		}
	}
	return false
}
