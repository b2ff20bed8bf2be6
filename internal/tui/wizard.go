package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MannyJMusic/dfl-desktop/internal/offers"
	"github.com/MannyJMusic/dfl-desktop/internal/provision"
	"github.com/MannyJMusic/dfl-desktop/internal/templates"
)

// wizardStep identifies the current step.
type wizardStep int

const (
	stepOffer wizardStep = iota
	stepTemplate
	stepVolumeMode
	stepVolumeDetails
	stepOptions
	stepConfirm
)

// optionField identifies a toggle in the options step.
type optionField int

const (
	optSSH optionField = iota
	optDirect
	optFieldCount
)

// WizardData is everything the provisioning wizard displays. Volumes is
// keyed by machine id; missing machines just show no volume asks.
type WizardData struct {
	Offers    []offers.Offer
	Volumes   map[string][]offers.Volume
	Mine      []templates.Template
	Community []templates.Template
}

// WizardResult is the collected provisioning selection. Request's
// TemplateHash is left empty; the caller resolves it from Template.
type WizardResult struct {
	Offer    offers.Offer
	Template templates.Template
	Request  provision.Request
}

// offerItem implements list.Item for offer selection.
type offerItem struct {
	offer   offers.Offer
	volumes int
}

func (o offerItem) Title() string {
	return fmt.Sprintf("%s  %s", o.offer.ID(), o.offer.GPUName())
}

func (o offerItem) Description() string {
	return fmt.Sprintf("$%s/hr | cuda %s | machine %s | %d volume asks",
		o.offer.DPH(), o.offer.CUDA(), o.offer.MachineID(), o.volumes)
}

func (o offerItem) FilterValue() string {
	return o.offer.ID() + " " + o.offer.GPUName()
}

// volumeOption is one entry in the volume mode list.
type volumeOption struct {
	mode provision.VolumeMode
	ask  offers.Volume // set when mode is VolumeCreate
}

func (v volumeOption) Title() string {
	switch v.mode {
	case provision.VolumeCreate:
		return fmt.Sprintf("Create from ask %s", v.ask.ID())
	case provision.VolumeLink:
		return "Link existing volume"
	default:
		return "No volume"
	}
}

func (v volumeOption) Description() string {
	switch v.mode {
	case provision.VolumeCreate:
		return fmt.Sprintf("size %sGB | $%s/mo | %s", v.ask.SizeGB(), v.ask.Price(), v.ask.Region())
	case provision.VolumeLink:
		return "Attach one of your personal volumes by id"
	default:
		return "Instance disk only"
	}
}

func (v volumeOption) FilterValue() string { return v.Title() }

// wizardStyles
var (
	wizardTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				MarginBottom(1)

	wizardStepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	wizardActiveStepStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39"))

	wizardLabelStyle = lipgloss.NewStyle().
				Bold(true).
				MarginBottom(1)

	wizardValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39"))

	wizardDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// wizardModel drives the multi-step provisioning wizard.
type wizardModel struct {
	step wizardStep
	data WizardData

	offerList    list.Model
	templateList list.Model
	volumeList   list.Model

	// Volume details
	volMode    provision.VolumeMode
	volAsk     offers.Volume
	sizeInput  textinput.Model
	labelInput textinput.Model
	mountInput textinput.Model
	idInput    textinput.Model
	volCursor  int

	// Options
	optCursor optionField
	ssh       bool
	direct    bool

	selectedOffer    offers.Offer
	selectedTemplate templates.Template

	width  int
	height int
}

func newWizardModel(data WizardData) wizardModel {
	si := textinput.New()
	si.Placeholder = "200"
	si.CharLimit = 6
	si.Width = 10

	li := textinput.New()
	li.Placeholder = "dfl_workspace"
	li.CharLimit = 64
	li.Width = 30

	mi := textinput.New()
	mi.Placeholder = provision.DefaultMountPath
	mi.CharLimit = 128
	mi.Width = 40

	ii := textinput.New()
	ii.Placeholder = "volume id"
	ii.CharLimit = 16
	ii.Width = 20

	w := wizardModel{
		step:       stepOffer,
		data:       data,
		sizeInput:  si,
		labelInput: li,
		mountInput: mi,
		idInput:    ii,
		ssh:        true,
		direct:     true,
	}
	w.loadOffers()
	return w
}

func (w *wizardModel) Init() tea.Cmd {
	return nil
}

// Update processes a message and returns (done, result, cmd).
// done=true with non-nil result means the wizard completed successfully.
// done=true with nil result means the wizard was cancelled.
func (w *wizardModel) Update(msg tea.Msg) (bool, *WizardResult, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyCtrlC:
			return true, nil, nil
		case tea.KeyEsc:
			return w.handleBack()
		}
	}

	switch w.step {
	case stepOffer:
		return w.updateOffer(msg)
	case stepTemplate:
		return w.updateTemplate(msg)
	case stepVolumeMode:
		return w.updateVolumeMode(msg)
	case stepVolumeDetails:
		return w.updateVolumeDetails(msg)
	case stepOptions:
		return w.updateOptions(msg)
	case stepConfirm:
		return w.updateConfirm(msg)
	}

	return false, nil, nil
}

func (w *wizardModel) handleBack() (bool, *WizardResult, tea.Cmd) {
	switch w.step {
	case stepOffer:
		// Esc at first step cancels the wizard
		return true, nil, nil
	case stepTemplate:
		w.step = stepOffer
	case stepVolumeMode:
		w.step = stepTemplate
	case stepVolumeDetails:
		w.step = stepVolumeMode
		w.blurVolumeInputs()
	case stepOptions:
		w.step = stepVolumeMode
	case stepConfirm:
		w.step = stepOptions
	}
	return false, nil, nil
}

func (w *wizardModel) updateOffer(msg tea.Msg) (bool, *WizardResult, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter {
		if item, ok := w.offerList.SelectedItem().(offerItem); ok {
			w.selectedOffer = item.offer
			w.step = stepTemplate
			w.loadTemplates()
			return false, nil, nil
		}
		return false, nil, nil
	}

	var cmd tea.Cmd
	w.offerList, cmd = w.offerList.Update(msg)
	return false, nil, cmd
}

func (w *wizardModel) updateTemplate(msg tea.Msg) (bool, *WizardResult, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEnter {
			if item, ok := w.templateList.SelectedItem().(templateItem); ok {
				w.selectedTemplate = item.tpl
				w.step = stepVolumeMode
				w.loadVolumeOptions()
			}
			return false, nil, nil
		}

		var cmd tea.Cmd
		w.templateList, cmd = w.templateList.Update(msg)
		skipHeaders(&w.templateList, navigationDirection(keyMsg))
		return false, nil, cmd
	}

	var cmd tea.Cmd
	w.templateList, cmd = w.templateList.Update(msg)
	return false, nil, cmd
}

func (w *wizardModel) updateVolumeMode(msg tea.Msg) (bool, *WizardResult, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter {
		item, ok := w.volumeList.SelectedItem().(volumeOption)
		if !ok {
			return false, nil, nil
		}
		w.volMode = item.mode
		w.volAsk = item.ask
		switch item.mode {
		case provision.VolumeNone:
			w.step = stepOptions
		case provision.VolumeCreate:
			w.sizeInput.SetValue(defaultSize(item.ask))
			w.labelInput.SetValue("dfl_workspace")
			w.mountInput.SetValue(provision.DefaultMountPath)
			w.step = stepVolumeDetails
			w.volCursor = 0
			return false, nil, w.focusVolumeInput()
		case provision.VolumeLink:
			w.idInput.SetValue("")
			w.mountInput.SetValue(provision.DefaultMountPath)
			w.step = stepVolumeDetails
			w.volCursor = 0
			return false, nil, w.focusVolumeInput()
		}
		return false, nil, nil
	}

	var cmd tea.Cmd
	w.volumeList, cmd = w.volumeList.Update(msg)
	return false, nil, cmd
}

// volumeInputs returns the active detail inputs for the chosen mode.
func (w *wizardModel) volumeInputs() []*textinput.Model {
	if w.volMode == provision.VolumeLink {
		return []*textinput.Model{&w.idInput, &w.mountInput}
	}
	return []*textinput.Model{&w.sizeInput, &w.labelInput, &w.mountInput}
}

func (w *wizardModel) blurVolumeInputs() {
	for _, ti := range w.volumeInputs() {
		ti.Blur()
	}
}

func (w *wizardModel) focusVolumeInput() tea.Cmd {
	inputs := w.volumeInputs()
	for i, ti := range inputs {
		if i == w.volCursor {
			ti.Focus()
		} else {
			ti.Blur()
		}
	}
	return textinput.Blink
}

func (w *wizardModel) updateVolumeDetails(msg tea.Msg) (bool, *WizardResult, tea.Cmd) {
	inputs := w.volumeInputs()

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEnter:
			if w.volCursor < len(inputs)-1 {
				w.volCursor++
				return false, nil, w.focusVolumeInput()
			}
			if !w.volumeDetailsValid() {
				return false, nil, nil
			}
			w.blurVolumeInputs()
			w.step = stepOptions
			return false, nil, nil
		case tea.KeyTab, tea.KeyDown:
			w.volCursor = (w.volCursor + 1) % len(inputs)
			return false, nil, w.focusVolumeInput()
		case tea.KeyShiftTab, tea.KeyUp:
			w.volCursor = (w.volCursor - 1 + len(inputs)) % len(inputs)
			return false, nil, w.focusVolumeInput()
		}
	}

	var cmd tea.Cmd
	ti := inputs[w.volCursor]
	*ti, cmd = ti.Update(msg)
	return false, nil, cmd
}

func (w *wizardModel) volumeDetailsValid() bool {
	switch w.volMode {
	case provision.VolumeCreate:
		size, err := strconv.Atoi(strings.TrimSpace(w.sizeInput.Value()))
		return err == nil && size >= 10
	case provision.VolumeLink:
		return strings.TrimSpace(w.idInput.Value()) != ""
	}
	return true
}

func (w *wizardModel) updateOptions(msg tea.Msg) (bool, *WizardResult, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			w.step = stepConfirm
		case "j", "down", "tab":
			w.optCursor = (w.optCursor + 1) % optFieldCount
		case "k", "up":
			w.optCursor = (w.optCursor - 1 + optFieldCount) % optFieldCount
		case " ":
			switch w.optCursor {
			case optSSH:
				w.ssh = !w.ssh
			case optDirect:
				w.direct = !w.direct
			}
		}
	}
	return false, nil, nil
}

func (w *wizardModel) updateConfirm(msg tea.Msg) (bool, *WizardResult, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter", "y":
			return true, w.result(), nil
		case "n":
			// Restart the wizard
			fresh := newWizardModel(w.data)
			fresh.width = w.width
			fresh.height = w.height
			*w = fresh
			return false, nil, nil
		}
	}
	return false, nil, nil
}

// result assembles the provisioning request from the collected selections.
func (w *wizardModel) result() *WizardResult {
	return &WizardResult{
		Offer:    w.selectedOffer,
		Template: w.selectedTemplate,
		Request: provision.Request{
			OfferID: w.selectedOffer.ID(),
			Volume:  w.volumePlan(),
			SSH:     w.ssh,
			Direct:  w.direct,
		},
	}
}

func (w *wizardModel) volumePlan() provision.VolumePlan {
	switch w.volMode {
	case provision.VolumeCreate:
		size, _ := strconv.Atoi(strings.TrimSpace(w.sizeInput.Value()))
		return provision.CreateVolume(
			w.volAsk.ID(),
			size,
			strings.TrimSpace(w.labelInput.Value()),
			strings.TrimSpace(w.mountInput.Value()),
		)
	case provision.VolumeLink:
		return provision.LinkVolume(
			strings.TrimSpace(w.idInput.Value()),
			strings.TrimSpace(w.mountInput.Value()),
		)
	default:
		return provision.NoVolume()
	}
}

func (w *wizardModel) View() string {
	var b strings.Builder

	b.WriteString(wizardTitleStyle.Render("Provision DeepFaceLab Desktop"))
	b.WriteString("\n")
	b.WriteString(w.progressBar())
	b.WriteString("\n\n")

	switch w.step {
	case stepOffer:
		b.WriteString(wizardLabelStyle.Render("Select GPU offer:"))
		b.WriteString("\n")
		b.WriteString(w.offerList.View())
	case stepTemplate:
		b.WriteString(wizardLabelStyle.Render("Select template:"))
		b.WriteString("\n")
		b.WriteString(w.templateList.View())
	case stepVolumeMode:
		b.WriteString(wizardLabelStyle.Render("Storage:"))
		b.WriteString("\n")
		b.WriteString(w.volumeList.View())
	case stepVolumeDetails:
		b.WriteString(wizardLabelStyle.Render("Volume details:"))
		b.WriteString("\n\n")
		if w.volMode == provision.VolumeLink {
			b.WriteString(w.renderVolumeInput(0, "Volume id", &w.idInput))
			b.WriteString(w.renderVolumeInput(1, "Mount path", &w.mountInput))
		} else {
			b.WriteString(w.renderVolumeInput(0, "Size (GB)", &w.sizeInput))
			b.WriteString(w.renderVolumeInput(1, "Label", &w.labelInput))
			b.WriteString(w.renderVolumeInput(2, "Mount path", &w.mountInput))
		}
		b.WriteString("\n")
		b.WriteString(wizardDimStyle.Render("Enter to continue, Tab to move, Esc to go back."))
	case stepOptions:
		b.WriteString(wizardLabelStyle.Render("Connection options:"))
		b.WriteString("\n\n")
		b.WriteString(w.renderToggle(optSSH, w.ssh, "SSH access", "Pass --ssh so the instance accepts direct SSH"))
		b.WriteString("\n")
		b.WriteString(w.renderToggle(optDirect, w.direct, "Direct ports", "Pass --direct to request direct port mappings"))
		b.WriteString("\n\n")
		b.WriteString(wizardDimStyle.Render("Space to toggle, Enter to continue, Esc to go back."))
	case stepConfirm:
		b.WriteString(wizardLabelStyle.Render("Confirm:"))
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("  Offer:    %s\n",
			wizardValueStyle.Render(w.selectedOffer.ID()+" ("+w.selectedOffer.GPUName()+")")))
		b.WriteString(fmt.Sprintf("  Template: %s\n", wizardValueStyle.Render(w.selectedTemplate.Name())))
		b.WriteString(fmt.Sprintf("  Storage:  %s\n", wizardValueStyle.Render(w.volumePlan().Summary())))
		b.WriteString(fmt.Sprintf("  SSH:      %s\n", wizardValueStyle.Render(yesNo(w.ssh))))
		b.WriteString(fmt.Sprintf("  Direct:   %s\n", wizardValueStyle.Render(yesNo(w.direct))))
		b.WriteString("\n")
		b.WriteString(wizardDimStyle.Render("Enter to provision, n to restart, Esc to go back."))
	}

	return b.String()
}

func (w *wizardModel) progressBar() string {
	steps := []struct {
		num  int
		name string
	}{
		{1, "Offer"},
		{2, "Template"},
		{3, "Storage"},
		{4, "Options"},
		{5, "Confirm"},
	}

	currentStep := int(w.step) + 1
	// Volume details shares the Storage slot in the progress display
	if w.step >= stepVolumeDetails {
		currentStep = int(w.step)
	}

	var parts []string
	for _, s := range steps {
		label := fmt.Sprintf("%d. %s", s.num, s.name)
		if s.num == currentStep {
			parts = append(parts, wizardActiveStepStyle.Render(label))
		} else {
			parts = append(parts, wizardStepStyle.Render(label))
		}
	}

	return strings.Join(parts, wizardDimStyle.Render(" > "))
}

func (w *wizardModel) renderToggle(field optionField, on bool, name, desc string) string {
	cursor := " "
	if w.optCursor == field {
		cursor = ">"
	}
	checked := " "
	if on {
		checked = "x"
	}

	line := fmt.Sprintf("  %s [%s] %s", cursor, checked, name)
	if w.optCursor == field {
		return selectedStyle.Render(line) + "\n" + wizardDimStyle.Render("      "+desc)
	}
	return line + "\n" + wizardDimStyle.Render("      "+desc)
}

func (w *wizardModel) renderVolumeInput(idx int, name string, ti *textinput.Model) string {
	cursor := " "
	if w.volCursor == idx {
		cursor = ">"
	}
	line := fmt.Sprintf("  %s %-11s %s\n", cursor, name+":", ti.View())
	if w.volCursor == idx {
		return selectedStyle.Render(line)
	}
	return line
}

func (w *wizardModel) loadOffers() {
	items := make([]list.Item, len(w.data.Offers))
	for i, o := range w.data.Offers {
		items[i] = offerItem{
			offer:   o,
			volumes: len(w.data.Volumes[o.MachineID()]),
		}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = selectedStyle
	delegate.Styles.SelectedDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	l := list.New(items, delegate, 70, 14)
	l.Title = ""
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	w.offerList = l
}

func (w *wizardModel) loadTemplates() {
	items := buildTemplateItems(w.data.Mine, w.data.Community)
	if len(items) == 0 {
		items = []list.Item{templateItem{tpl: templates.Template{}}}
	}

	l := list.New(items, newGroupedDelegate(), 70, 14)
	l.Title = ""
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	if w.width > 0 {
		l.SetWidth(w.width - 4)
	}
	if w.height > 0 {
		l.SetHeight(w.height - 10)
	}
	w.templateList = l
	skipHeaders(&w.templateList, 1)
}

func (w *wizardModel) loadVolumeOptions() {
	var items []list.Item
	for _, ask := range w.data.Volumes[w.selectedOffer.MachineID()] {
		items = append(items, volumeOption{mode: provision.VolumeCreate, ask: ask})
	}
	items = append(items,
		volumeOption{mode: provision.VolumeLink},
		volumeOption{mode: provision.VolumeNone},
	)

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = selectedStyle
	delegate.Styles.SelectedDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	l := list.New(items, delegate, 70, 12)
	l.Title = ""
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	w.volumeList = l
}

func defaultSize(ask offers.Volume) string {
	if s := ask.SizeGB(); s != "n/a" {
		return s
	}
	return "200"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// wizardProgram adapts wizardModel to the tea.Model interface.
type wizardProgram struct {
	w      wizardModel
	result *WizardResult
	done   bool
}

func (p wizardProgram) Init() tea.Cmd {
	return p.w.Init()
}

func (p wizardProgram) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		p.w.width = size.Width
		p.w.height = size.Height
	}

	done, result, cmd := p.w.Update(msg)
	if done {
		p.done = true
		p.result = result
		return p, tea.Quit
	}
	return p, cmd
}

func (p wizardProgram) View() string {
	if p.done {
		return ""
	}
	return p.w.View()
}

// RunWizard runs the interactive provisioning wizard. A nil result with a
// nil error means the user cancelled.
func RunWizard(data WizardData) (*WizardResult, error) {
	p := tea.NewProgram(wizardProgram{w: newWizardModel(data)}, tea.WithAltScreen())

	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	return final.(wizardProgram).result, nil
}
