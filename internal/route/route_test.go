package route

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		path   string
		name   Name
		fileID string
	}{
		{"/", RootPage, ""},
		{"", RootPage, ""},
		{"/login", LoginPage, ""},
		{"/signup/", SignupPage, ""},
		{"/home", HomePage, ""},
		{"/home?tab=1", HomePage, ""},
		{"/view/abc123", ViewPage, "abc123"},
		{"/view/a%20b", ViewPage, "a b"},
		{"/view/", NotFound, ""},
		{"/view/a/b", NotFound, ""},
		{"/settings", NotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			r := Parse(tt.path)
			if r.Name != tt.name {
				t.Errorf("Parse(%q).Name = %s, want %s", tt.path, r.Name, tt.name)
			}
			if r.FileID != tt.fileID {
				t.Errorf("Parse(%q).FileID = %q, want %q", tt.path, r.FileID, tt.fileID)
			}
		})
	}
}

func TestResolve_Unauthenticated(t *testing.T) {
	for _, path := range []string{"/home", "/view/abc123", "/view/x%2Fy"} {
		d := Resolve(path, false)
		if d.Redirect != Login {
			t.Errorf("Resolve(%q, false) redirect = %q, want %q", path, d.Redirect, Login)
		}
		if d.From != Parse(path).Path {
			t.Errorf("Resolve(%q, false) from = %q, want original path", path, d.From)
		}
	}

	for _, path := range []string{"/login", "/signup"} {
		d := Resolve(path, false)
		if d.Redirect != "" {
			t.Errorf("Resolve(%q, false) should render, got redirect %q", path, d.Redirect)
		}
	}

	if d := Resolve("/", false); d.Redirect != Login || d.From != "" {
		t.Errorf("root should go to login without from, got %+v", d)
	}
}

func TestResolve_Authenticated(t *testing.T) {
	for _, path := range []string{"/home", "/view/abc123"} {
		d := Resolve(path, true)
		if d.Redirect != "" {
			t.Errorf("Resolve(%q, true) should render, got redirect %q", path, d.Redirect)
		}
		if d.Route.Path != path {
			t.Errorf("Resolve(%q, true) route path = %q", path, d.Route.Path)
		}
	}

	for _, path := range []string{"/login", "/signup", "/"} {
		d := Resolve(path, true)
		if d.Redirect != Home {
			t.Errorf("Resolve(%q, true) redirect = %q, want %q", path, d.Redirect, Home)
		}
		if d.From != "" {
			t.Errorf("Resolve(%q, true) from should be empty, got %q", path, d.From)
		}
	}
}

func TestResolve_NotFound(t *testing.T) {
	for _, authed := range []bool{true, false} {
		d := Resolve("/nope", authed)
		if d.Redirect != "" || d.Route.Name != NotFound {
			t.Errorf("unknown path should render NotFound, got %+v", d)
		}
	}
}

func TestView(t *testing.T) {
	if got := View("abc123"); got != "/view/abc123" {
		t.Errorf("View = %q", got)
	}
	if r := Parse(View("a/b")); r.FileID != "a/b" {
		t.Errorf("View round trip failed: %+v", r)
	}
}
