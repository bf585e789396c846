package model

import "testing"

func TestFullAccess(t *testing.T) {
	p := FullAccess()

	for _, m := range []string{ModuleBookings, ModuleCustomers, ModuleServices, ModuleStaff} {
		for _, a := range []string{ActionView, ActionCreate, ActionEdit, ActionDelete} {
			if !p.Allows(m, a) {
				t.Errorf("expected %s.%s to be granted", m, a)
			}
		}
	}

	settings := p[ModuleSettings]
	if !settings.View || !settings.Edit || settings.Create || settings.Delete {
		t.Errorf("settings should be view+edit only, got %+v", settings)
	}

	financials := p[ModuleFinancials]
	if !financials.View || financials.Create || financials.Edit || financials.Delete {
		t.Errorf("financials should be view only, got %+v", financials)
	}
}

func TestNoAccess(t *testing.T) {
	p := NoAccess()
	if len(p) != len(Modules) {
		t.Fatalf("expected %d modules, got %d", len(Modules), len(p))
	}
	for _, m := range Modules {
		if p.Allows(m, ActionView) {
			t.Errorf("expected %s.view to be denied", m)
		}
	}
}

func TestPermissions_UnknownModuleOrAction(t *testing.T) {
	p := FullAccess()
	if p.Allows("inventory", ActionView) {
		t.Error("unknown module must not be granted")
	}
	if p.Allows(ModuleBookings, "approve") {
		t.Error("unknown action must not be granted")
	}
}

func TestMergeMetadata(t *testing.T) {
	base := map[string]any{"a": 1, "role": "CUSTOMER"}
	out := MergeMetadata(base, map[string]any{"role": RoleOwner, MetaAdminMarker: true})

	if out["role"] != RoleOwner || out["a"] != 1 || out[MetaAdminMarker] != true {
		t.Errorf("unexpected merge result: %v", out)
	}
	if base["role"] != "CUSTOMER" {
		t.Error("base must not be modified")
	}
}
