package service

import (
	"reflect"
	"testing"

	"github.com/nestmarket/session-gateway/internal/core/domain"
)

var (
	everyone = []domain.Role{domain.RoleGuest, domain.RoleSeeker, domain.RoleLandlord, domain.RoleProvider, domain.RoleAdmin}
	members  = []domain.Role{domain.RoleSeeker, domain.RoleLandlord, domain.RoleProvider, domain.RoleAdmin}
)

func testTree() []domain.NavigationMenuNode {
	return []domain.NavigationMenuNode{
		{Key: "home", Label: "Home", Path: "/", AllowedRoles: everyone},
		{Key: "listings", Label: "Listings", Path: "/listings", AllowedRoles: everyone},
		{Key: "dashboard", Label: "Dashboard", Path: "/dashboard", AllowedRoles: members, Children: []domain.NavigationMenuNode{
			{Key: "my-listings", Label: "My Listings", Path: "/dashboard/listings", AllowedRoles: []domain.Role{domain.RoleLandlord, domain.RoleAdmin}},
			{Key: "my-services", Label: "My Services", Path: "/dashboard/services", AllowedRoles: []domain.Role{domain.RoleProvider, domain.RoleAdmin}},
			{Key: "bookings", Label: "Bookings", Path: "/dashboard/bookings", AllowedRoles: members},
		}},
		{Key: "admin", Label: "Admin", Path: "/admin", AllowedRoles: []domain.Role{domain.RoleAdmin}, Children: []domain.NavigationMenuNode{
			{Key: "users", Label: "Users", Path: "/admin/users", AllowedRoles: everyone},
		}},
	}
}

func keys(nodes []domain.NavigationMenuNode) []string {
	var out []string
	var walk func([]domain.NavigationMenuNode)
	walk = func(ns []domain.NavigationMenuNode) {
		for _, n := range ns {
			out = append(out, n.Key)
			walk(n.Children)
		}
	}
	walk(nodes)
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestFilterMenu_Landlord(t *testing.T) {
	got := keys(FilterMenu(testTree(), domain.RoleLandlord))
	if !contains(got, "my-listings") {
		t.Fatalf("landlord should see My Listings, got %v", got)
	}
	if contains(got, "my-services") {
		t.Fatalf("landlord must not see My Services, got %v", got)
	}
	if contains(got, "admin") || contains(got, "users") {
		t.Fatalf("hidden parent must hide its subtree, got %v", got)
	}
}

func TestFilterMenu_Guest(t *testing.T) {
	got := keys(FilterMenu(testTree(), domain.RoleGuest))
	want := []string{"home", "listings"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("guest menu = %v, want %v", got, want)
	}
}

func TestFilterMenu_KeptParentWithoutChildren(t *testing.T) {
	tree := []domain.NavigationMenuNode{
		{Key: "account", Path: "/account", AllowedRoles: members, Children: []domain.NavigationMenuNode{
			{Key: "billing", Path: "/account/billing", AllowedRoles: []domain.Role{domain.RoleAdmin}},
		}},
	}
	got := FilterMenu(tree, domain.RoleSeeker)
	if len(got) != 1 || got[0].Key != "account" {
		t.Fatalf("expected parent to stay visible, got %v", keys(got))
	}
	if len(got[0].Children) != 0 {
		t.Fatalf("expected no children, got %v", keys(got[0].Children))
	}
}

func TestFilterMenu_Idempotent(t *testing.T) {
	for _, role := range domain.Roles() {
		once := FilterMenu(testTree(), role)
		twice := FilterMenu(once, role)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("filter not idempotent for %s:\n%v\n%v", role, keys(once), keys(twice))
		}
	}
}

func TestFilterMenu_DoesNotModifyInput(t *testing.T) {
	tree := testTree()
	before := keys(tree)
	_ = FilterMenu(tree, domain.RoleGuest)
	if !reflect.DeepEqual(before, keys(tree)) {
		t.Fatalf("input tree was modified")
	}
}

func TestActiveMenuKey(t *testing.T) {
	tree := FilterMenu(testTree(), domain.RoleAdmin)
	cases := map[string]string{
		"/":                      "home",
		"/listings/42":           "listings",
		"/listings-archive":      "home",
		"/dashboard":             "dashboard",
		"/dashboard/listings/7":  "my-listings",
		"/dashboard/services?x=": "my-services",
		"/admin/users/9":         "users",
	}
	for path, want := range cases {
		got, ok := ActiveMenuKey(tree, path)
		if !ok || got != want {
			t.Errorf("ActiveMenuKey(%q) = %q, %v; want %q", path, got, ok, want)
		}
	}
}

func TestActiveMenuKey_TieGoesToFirstDeclared(t *testing.T) {
	tree := []domain.NavigationMenuNode{
		{Key: "b-first", Path: "/search", AllowedRoles: everyone},
		{Key: "a-second", Path: "/search", AllowedRoles: everyone},
	}
	if got, _ := ActiveMenuKey(tree, "/search"); got != "b-first" {
		t.Fatalf("expected declaration order to win, got %q", got)
	}
}

func TestActiveMenuKey_NoMatch(t *testing.T) {
	tree := []domain.NavigationMenuNode{{Key: "listings", Path: "/listings", AllowedRoles: everyone}}
	if got, ok := ActiveMenuKey(tree, "/profile"); ok || got != "" {
		t.Fatalf("expected no match, got %q", got)
	}
}

func TestNavigator_Menu(t *testing.T) {
	nav := NewNavigator(testTree())
	menu, active := nav.Menu(domain.RoleProvider, "/dashboard/services")
	if active != "my-services" {
		t.Fatalf("expected my-services active, got %q", active)
	}
	if contains(keys(menu), "my-listings") {
		t.Fatalf("provider must not see My Listings")
	}
}
