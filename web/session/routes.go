package session

import (
	"fmt"

	"github.com/procodebh/crm-console/util/common"
)

const (
	LoginPath        = "/"
	OTPPath          = "/otp"
	DashboardPath    = "/dashboard"
	UnauthorizedPath = "/unauthorized"
)

// Route is one entry of the console route table. Empty Roles means any
// authenticated principal; Public routes skip the guard entirely.
type Route struct {
	Path   string
	Roles  []Role
	Public bool
}

var (
	staffRoles     = []Role{RoleAdmin, RoleHR, RoleCounsellor}
	studentRoles   = []Role{RoleAdmin, RoleCounsellor}
	courseRoles    = []Role{RoleAdmin}
	placementRoles = []Role{RoleAdmin, RoleHR}
)

// RouteTable mirrors the console router path for path.
var RouteTable = []Route{
	{Path: LoginPath, Public: true},
	{Path: OTPPath, Public: true},
	{Path: DashboardPath},
	{Path: "/students", Roles: studentRoles},
	{Path: "/students/:id", Roles: studentRoles},
	{Path: "/add-student", Roles: studentRoles},
	{Path: "/courses", Roles: courseRoles},
	{Path: "/add-course", Roles: courseRoles},
	{Path: "/courses/:id", Roles: studentRoles},
	{Path: "/courses/edit/:id", Roles: courseRoles},
	{Path: "/resumes", Roles: []Role{RoleAdmin, RoleHR, RoleCounsellor}},
	{Path: "/add-resume", Roles: placementRoles},
	{Path: "/placements", Roles: placementRoles},
	{Path: "/add-placement", Roles: placementRoles},
	{Path: "/signup", Roles: courseRoles},
	{Path: "/alumni", Roles: studentRoles},
	{Path: "/add-alumni", Roles: studentRoles},
	{Path: "/profile", Roles: staffRoles},
	{Path: "/profile/edit", Roles: staffRoles},
	{Path: UnauthorizedPath, Public: true},
}

// RolesFor returns the allow-list of path. It panics on a path missing from
// the table so a mis-wired route fails at startup.
func RolesFor(path string) []Role {
	for _, route := range RouteTable {
		if route.Path == path {
			return route.Roles
		}
	}
	panic(fmt.Sprintf("route %q is not in the route table", path))
}

// LookupRoute finds the table entry for path.
func LookupRoute(path string) (Route, bool) {
	for _, route := range RouteTable {
		if route.Path == path {
			return route, true
		}
	}
	return Route{}, false
}

// ValidateNavigation checks the sidebar and the route table agree and only
// use known roles.
func ValidateNavigation(entries []NavEntry, routes []Route) error {
	seen := make(map[string]bool, len(routes))
	byPath := make(map[string]Route, len(routes))
	for _, route := range routes {
		if route.Path == "" {
			return common.NewError("route with empty path")
		}
		if seen[route.Path] {
			return common.NewErrorf("duplicate route %s", route.Path)
		}
		seen[route.Path] = true
		byPath[route.Path] = route
		if route.Public && len(route.Roles) > 0 {
			return common.NewErrorf("public route %s declares roles", route.Path)
		}
		for _, role := range route.Roles {
			if !role.Valid() {
				return fmt.Errorf("route %s: %w: %q", route.Path, ErrUnknownRole, role)
			}
		}
	}

	navSeen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.Path == "" || entry.Label == "" {
			return common.NewErrorf("nav entry %q is incomplete", entry.Label)
		}
		if navSeen[entry.Path] {
			return common.NewErrorf("duplicate nav entry %s", entry.Path)
		}
		navSeen[entry.Path] = true
		if len(entry.AllowedRoles) == 0 {
			return common.NewErrorf("nav entry %s allows no role", entry.Path)
		}
		for _, role := range entry.AllowedRoles {
			if !role.Valid() {
				return fmt.Errorf("nav entry %s: %w: %q", entry.Path, ErrUnknownRole, role)
			}
		}
		route, ok := byPath[entry.Path]
		if !ok || route.Public {
			return common.NewErrorf("nav entry %s has no route", entry.Path)
		}
		if len(route.Roles) > 0 && !sameRoles(route.Roles, entry.AllowedRoles) {
			return common.NewErrorf("nav entry %s and its route disagree on roles", entry.Path)
		}
	}
	return nil
}

func sameRoles(a, b []Role) bool {
	if len(a) != len(b) {
		return false
	}
	for _, role := range a {
		if !HasRole(role, b) {
			return false
		}
	}
	return true
}
