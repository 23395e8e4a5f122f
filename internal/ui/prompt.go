package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// TextPrompt is the modal form asking for the text of a text box.
type TextPrompt struct {
	Modal  *widget.PopUp
	Entry  *widget.Entry
	Submit *widget.Button
	Close  *widget.Button

	canvas   fyne.Canvas
	onSubmit func(string)
	onClose  func()
}

func NewTextPrompt(c fyne.Canvas) *TextPrompt {
	p := &TextPrompt{Entry: widget.NewEntry(), canvas: c}
	p.Entry.SetPlaceHolder("Text")
	p.Entry.OnSubmitted = func(string) { p.submit() }
	p.Submit = widget.NewButton("Submit", p.submit)
	p.Submit.Importance = widget.HighImportance
	p.Close = widget.NewButton("Close", p.close)

	form := container.NewVBox(
		widget.NewLabel("Add text"),
		p.Entry,
		container.NewHBox(p.Close, p.Submit),
	)
	p.Modal = widget.NewModalPopUp(form, c)
	p.Modal.Resize(fyne.NewSize(320, form.MinSize().Height))
	return p
}

// Open shows the prompt. Submitting calls onSubmit with the entry text and
// then onClose; closing calls onClose only.
func (p *TextPrompt) Open(onSubmit func(string), onClose func()) {
	p.onSubmit, p.onClose = onSubmit, onClose
	p.Modal.Show()
	p.canvas.Focus(p.Entry)
}

func (p *TextPrompt) Visible() bool {
	return p.Modal.Visible()
}

func (p *TextPrompt) submit() {
	if !p.Modal.Visible() {
		return
	}
	text := p.Entry.Text
	p.Entry.SetText("")
	onSubmit, onClose := p.take()
	p.Modal.Hide()
	if onSubmit != nil {
		onSubmit(text)
	}
	if onClose != nil {
		onClose()
	}
}

func (p *TextPrompt) close() {
	if !p.Modal.Visible() {
		return
	}
	_, onClose := p.take()
	p.Modal.Hide()
	if onClose != nil {
		onClose()
	}
}

func (p *TextPrompt) take() (func(string), func()) {
	onSubmit, onClose := p.onSubmit, p.onClose
	p.onSubmit, p.onClose = nil, nil
	return onSubmit, onClose
}
