package session

// NavEntry is a sidebar menu item and the roles allowed to see it.
type NavEntry struct {
	Label        string
	Path         string
	AllowedRoles []Role
}

// NavTabItems is the full sidebar, in display order.
var NavTabItems = []NavEntry{
	{Label: "Dashboard", Path: "/dashboard", AllowedRoles: []Role{RoleAdmin, RoleCounsellor, RoleHR}},
	{Label: "Students", Path: "/students", AllowedRoles: []Role{RoleAdmin, RoleCounsellor}},
	{Label: "Courses", Path: "/courses", AllowedRoles: []Role{RoleAdmin}},
	{Label: "Resumes", Path: "/resumes", AllowedRoles: []Role{RoleAdmin, RoleHR, RoleCounsellor}},
	{Label: "Placements", Path: "/placements", AllowedRoles: []Role{RoleAdmin, RoleHR}},
	{Label: "Alumni", Path: "/alumni", AllowedRoles: []Role{RoleAdmin, RoleCounsellor}},
	{Label: "Create User", Path: "/signup", AllowedRoles: []Role{RoleAdmin}},
	{Label: "Profile", Path: "/profile", AllowedRoles: []Role{RoleAdmin, RoleCounsellor, RoleHR}},
}

// FilterTabs returns the entries visible to role. An empty role sees nothing.
func FilterTabs(entries []NavEntry, role Role) []NavEntry {
	tabs := make([]NavEntry, 0, len(entries))
	if role == "" {
		return tabs
	}
	for _, entry := range entries {
		if HasRole(role, entry.AllowedRoles) {
			tabs = append(tabs, entry)
		}
	}
	return tabs
}
