package theme

import "testing"

func TestByName(t *testing.T) {
	for _, want := range Available() {
		got, ok := ByName(want.Name)
		if !ok || got.Name != want.Name {
			t.Errorf("ByName(%q) = %v, %v", want.Name, got.Name, ok)
		}
	}
	if _, ok := ByName("solarized"); ok {
		t.Error("unknown theme should not resolve")
	}
}

func TestSetThemeRebuildsStyles(t *testing.T) {
	defer SetTheme(Nord)

	SetTheme(Dracula)
	if Current.Theme.Name != "dracula" {
		t.Fatalf("Current = %q", Current.Theme.Name)
	}
	if Current.Styles.Title.GetForeground() != Dracula.Primary {
		t.Error("styles not rebuilt for new theme")
	}
}

func TestStatusColor(t *testing.T) {
	if Nord.StatusColor("completed") != Nord.StatusCompleted {
		t.Error("completed color")
	}
	if Nord.StatusColor("archived") != Nord.StatusArchived {
		t.Error("archived color")
	}
	if Nord.StatusColor("anything") != Nord.StatusPending {
		t.Error("fallback should be pending")
	}
}
