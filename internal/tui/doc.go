// Package tui provides terminal user interface components for dflctl.
//
// This package uses the Bubble Tea framework to create interactive terminal
// interfaces: the instance picker and the provisioning wizard.
//
// # Instance Picker
//
//	result, err := tui.RunPicker(instances)
//	switch result.Action {
//	case tui.ActionSSH:
//	    // Open a shell on result.Instance
//	case tui.ActionMonitor:
//	    // Follow provisioning logs for result.Instance
//	case tui.ActionDestroy:
//	    // Destroy result.Instance
//	case tui.ActionQuit:
//	    // Exit
//	}
//
// # Provisioning Wizard
//
// The wizard walks through offer, template and volume selection and returns
// a provisioning request ready to submit:
//
//	res, err := tui.RunWizard(tui.WizardData{
//	    Offers:    offerList,
//	    Volumes:   volumesByMachine,
//	    Mine:      myTemplates,
//	    Community: communityTemplates,
//	})
//
// Templates are shown grouped ("My templates" before "Community templates")
// with non-selectable headers that navigation skips over.
//
// # Dependencies
//
// Uses the Charm libraries:
//   - github.com/charmbracelet/bubbletea - TUI framework
//   - github.com/charmbracelet/bubbles - UI components
//   - github.com/charmbracelet/lipgloss - Styling
package tui
