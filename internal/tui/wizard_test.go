package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/MannyJMusic/dfl-desktop/internal/offers"
	"github.com/MannyJMusic/dfl-desktop/internal/provision"
	"github.com/MannyJMusic/dfl-desktop/internal/templates"
)

func testWizardData() WizardData {
	return WizardData{
		Offers: []offers.Offer{
			{"id": "4001", "machine_id": "900", "gpu_name": "RTX 4090", "dph_total": 0.42},
			{"id": "4002", "machine_id": "901", "gpu_name": "RTX 3090", "dph_total": 0.25},
		},
		Volumes: map[string][]offers.Volume{
			"900": {
				{"id": "7001", "size": "500", "price": "12", "region": "EU"},
			},
		},
		Mine: []templates.Template{
			{"name": "dfl-desktop", "image": "vastai/linux-desktop", "hash_id": "abc123"},
		},
		Community: []templates.Template{
			{"name": "community-desktop", "image": "vastai/base", "hash_id": "def456"},
		},
	}
}

func newTestWizard(t *testing.T) *wizardModel {
	t.Helper()
	w := newWizardModel(testWizardData())
	return &w
}

func pressKey(t *testing.T, w *wizardModel, key tea.KeyType) (bool, *WizardResult) {
	t.Helper()
	done, res, _ := w.Update(tea.KeyMsg{Type: key})
	return done, res
}

func pressRune(t *testing.T, w *wizardModel, s string) (bool, *WizardResult) {
	t.Helper()
	done, res, _ := w.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return done, res
}

// advanceToVolumeMode walks a fresh wizard through the offer and template
// steps, leaving it on the volume mode list.
func advanceToVolumeMode(t *testing.T, w *wizardModel) {
	t.Helper()
	pressKey(t, w, tea.KeyEnter) // select first offer
	if w.step != stepTemplate {
		t.Fatalf("step = %d, want template", w.step)
	}
	pressKey(t, w, tea.KeyEnter) // select first template
	if w.step != stepVolumeMode {
		t.Fatalf("step = %d, want volume mode", w.step)
	}
}

func TestWizardCompletesWithoutVolume(t *testing.T) {
	w := newTestWizard(t)
	advanceToVolumeMode(t, w)

	// Machine 900 has one ask, so the list is [create, link, none].
	pressKey(t, w, tea.KeyDown)
	pressKey(t, w, tea.KeyDown)
	pressKey(t, w, tea.KeyEnter)
	if w.step != stepOptions {
		t.Fatalf("step = %d, want options", w.step)
	}

	pressKey(t, w, tea.KeyEnter)
	if w.step != stepConfirm {
		t.Fatalf("step = %d, want confirm", w.step)
	}

	done, res := pressKey(t, w, tea.KeyEnter)
	if !done {
		t.Fatal("wizard did not complete")
	}
	if res == nil {
		t.Fatal("expected a result")
	}
	if res.Request.OfferID != "4001" {
		t.Errorf("OfferID = %q, want 4001", res.Request.OfferID)
	}
	if res.Template.Name() != "dfl-desktop" {
		t.Errorf("template = %q, want dfl-desktop", res.Template.Name())
	}
	if res.Request.Volume.Mode != provision.VolumeNone {
		t.Errorf("volume mode = %v, want none", res.Request.Volume.Mode)
	}
	if !res.Request.SSH || !res.Request.Direct {
		t.Errorf("ssh=%v direct=%v, want both true by default", res.Request.SSH, res.Request.Direct)
	}
	if res.Request.TemplateHash != "" {
		t.Errorf("TemplateHash = %q, want empty (resolved by caller)", res.Request.TemplateHash)
	}
}

func TestWizardCreateVolumePrefillsAskSize(t *testing.T) {
	w := newTestWizard(t)
	advanceToVolumeMode(t, w)

	pressKey(t, w, tea.KeyEnter) // first entry is the create ask
	if w.step != stepVolumeDetails {
		t.Fatalf("step = %d, want volume details", w.step)
	}
	if got := w.sizeInput.Value(); got != "500" {
		t.Errorf("size prefill = %q, want 500", got)
	}
	if got := w.labelInput.Value(); got != "dfl_workspace" {
		t.Errorf("label prefill = %q, want dfl_workspace", got)
	}
	if got := w.mountInput.Value(); got != provision.DefaultMountPath {
		t.Errorf("mount prefill = %q, want %q", got, provision.DefaultMountPath)
	}

	// Enter through size, label, mount
	pressKey(t, w, tea.KeyEnter)
	pressKey(t, w, tea.KeyEnter)
	pressKey(t, w, tea.KeyEnter)
	if w.step != stepOptions {
		t.Fatalf("step = %d, want options", w.step)
	}

	plan := w.volumePlan()
	if plan.Mode != provision.VolumeCreate {
		t.Fatalf("mode = %v, want create", plan.Mode)
	}
	if plan.ID != "7001" {
		t.Errorf("ask id = %q, want 7001", plan.ID)
	}
	if plan.SizeGB != 500 {
		t.Errorf("size = %d, want 500", plan.SizeGB)
	}
	if plan.Label != "dfl_workspace" {
		t.Errorf("label = %q, want dfl_workspace", plan.Label)
	}
}

func TestWizardRejectsUndersizedVolume(t *testing.T) {
	w := newTestWizard(t)
	advanceToVolumeMode(t, w)
	pressKey(t, w, tea.KeyEnter)

	w.sizeInput.SetValue("5")
	pressKey(t, w, tea.KeyEnter) // size -> label
	pressKey(t, w, tea.KeyEnter) // label -> mount
	pressKey(t, w, tea.KeyEnter) // mount: validation fails
	if w.step != stepVolumeDetails {
		t.Errorf("step = %d, want to stay on volume details for size 5", w.step)
	}

	w.sizeInput.SetValue("10")
	pressKey(t, w, tea.KeyEnter)
	if w.step != stepOptions {
		t.Errorf("step = %d, want options once size is valid", w.step)
	}
}

func TestWizardLinkVolume(t *testing.T) {
	w := newTestWizard(t)
	advanceToVolumeMode(t, w)

	pressKey(t, w, tea.KeyDown) // create -> link
	pressKey(t, w, tea.KeyEnter)
	if w.step != stepVolumeDetails {
		t.Fatalf("step = %d, want volume details", w.step)
	}
	if w.volMode != provision.VolumeLink {
		t.Fatalf("mode = %v, want link", w.volMode)
	}

	pressRune(t, w, "12345")
	pressKey(t, w, tea.KeyEnter) // id -> mount
	pressKey(t, w, tea.KeyEnter) // mount: done
	if w.step != stepOptions {
		t.Fatalf("step = %d, want options", w.step)
	}

	plan := w.volumePlan()
	if plan.Mode != provision.VolumeLink {
		t.Errorf("mode = %v, want link", plan.Mode)
	}
	if plan.ID != "12345" {
		t.Errorf("volume id = %q, want 12345", plan.ID)
	}
	if plan.MountPath != provision.DefaultMountPath {
		t.Errorf("mount = %q, want %q", plan.MountPath, provision.DefaultMountPath)
	}
}

func TestWizardLinkRequiresVolumeID(t *testing.T) {
	w := newTestWizard(t)
	advanceToVolumeMode(t, w)

	pressKey(t, w, tea.KeyDown)
	pressKey(t, w, tea.KeyEnter)

	pressKey(t, w, tea.KeyEnter) // id (empty) -> mount
	pressKey(t, w, tea.KeyEnter) // mount: validation fails
	if w.step != stepVolumeDetails {
		t.Errorf("step = %d, want to stay on volume details without an id", w.step)
	}
}

func TestWizardTogglesConnectionOptions(t *testing.T) {
	w := newTestWizard(t)
	advanceToVolumeMode(t, w)
	pressKey(t, w, tea.KeyDown)
	pressKey(t, w, tea.KeyDown)
	pressKey(t, w, tea.KeyEnter) // no volume

	pressKey(t, w, tea.KeySpace) // toggle ssh off
	pressKey(t, w, tea.KeyDown)
	pressKey(t, w, tea.KeySpace) // toggle direct off
	pressKey(t, w, tea.KeyEnter)

	done, res := pressRune(t, w, "y")
	if !done || res == nil {
		t.Fatal("wizard did not complete")
	}
	if res.Request.SSH {
		t.Error("ssh should be toggled off")
	}
	if res.Request.Direct {
		t.Error("direct should be toggled off")
	}
}

func TestWizardRestartFromConfirm(t *testing.T) {
	w := newTestWizard(t)
	advanceToVolumeMode(t, w)
	pressKey(t, w, tea.KeyDown)
	pressKey(t, w, tea.KeyDown)
	pressKey(t, w, tea.KeyEnter)
	pressKey(t, w, tea.KeyEnter)

	done, res := pressRune(t, w, "n")
	if done || res != nil {
		t.Fatal("restart should not finish the wizard")
	}
	if w.step != stepOffer {
		t.Errorf("step = %d, want offer after restart", w.step)
	}
	if !w.ssh || !w.direct {
		t.Error("restart should reset option defaults")
	}
}

func TestWizardBackNavigation(t *testing.T) {
	w := newTestWizard(t)
	pressKey(t, w, tea.KeyEnter)
	if w.step != stepTemplate {
		t.Fatalf("step = %d, want template", w.step)
	}

	pressKey(t, w, tea.KeyEsc)
	if w.step != stepOffer {
		t.Fatalf("step = %d, want offer after esc", w.step)
	}

	done, res := pressKey(t, w, tea.KeyEsc)
	if !done {
		t.Fatal("esc at the first step should cancel")
	}
	if res != nil {
		t.Error("cancel should not carry a result")
	}
}

func TestWizardCtrlCCancelsAnywhere(t *testing.T) {
	w := newTestWizard(t)
	advanceToVolumeMode(t, w)

	done, res := pressKey(t, w, tea.KeyCtrlC)
	if !done || res != nil {
		t.Errorf("ctrl+c: done=%v res=%v, want cancelled", done, res)
	}
}

func TestWizardTemplateSelectionSkipsHeaders(t *testing.T) {
	w := newTestWizard(t)
	pressKey(t, w, tea.KeyEnter)

	if isHeaderSelected(&w.templateList) {
		t.Fatal("cursor should start on a template, not a header")
	}
	item, ok := w.templateList.SelectedItem().(templateItem)
	if !ok {
		t.Fatal("selected item is not a template")
	}
	if item.tpl.Name() != "dfl-desktop" {
		t.Errorf("selected = %q, want dfl-desktop", item.tpl.Name())
	}
}

func TestWizardViewShowsConfirmSummary(t *testing.T) {
	w := newTestWizard(t)
	advanceToVolumeMode(t, w)
	pressKey(t, w, tea.KeyDown)
	pressKey(t, w, tea.KeyDown)
	pressKey(t, w, tea.KeyEnter)
	pressKey(t, w, tea.KeyEnter)

	view := w.View()
	for _, want := range []string{"4001", "RTX 4090", "dfl-desktop", "No volume attachment"} {
		if !strings.Contains(view, want) {
			t.Errorf("confirm view missing %q", want)
		}
	}
}
