package model

// Permission represents a string code for a specific admin action.
type Permission string

const (
	// PermissionTestsRead allows viewing tests and their question sets.
	PermissionTestsRead Permission = "tests:read"

	// PermissionTestsWrite allows creating tests and authoring question sets.
	PermissionTestsWrite Permission = "tests:write"

	// PermissionTestsPublish allows publishing tests to learners.
	PermissionTestsPublish Permission = "tests:publish"

	// PermissionMediaUpload allows uploading listening audio and diagram images.
	PermissionMediaUpload Permission = "media:upload"
)

// AllPermissions lists every admin permission.
var AllPermissions = []Permission{
	PermissionTestsRead,
	PermissionTestsWrite,
	PermissionTestsPublish,
	PermissionMediaUpload,
}

// Valid reports whether p is a known permission.
func (p Permission) Valid() bool {
	for _, known := range AllPermissions {
		if p == known {
			return true
		}
	}
	return false
}
