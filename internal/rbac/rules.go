package rbac

// Default policy. Members are trainees working toward their White Card;
// admins curate the question bank.
var RolePermissions = map[string][]string{
	"member": {
		"question:view",
		"session:run",
		"report:view",
		"analysis:run",
		"forum:read",
		"forum:write",
	},
	"admin": {
		"*", // everything
	},
}
