package chat

// Input is the editable chat line.
type Input struct {
	d     *Dispatcher
	value string
}

func NewInput(d *Dispatcher) *Input {
	return &Input{d: d}
}

func (in *Input) Value() string {
	return in.value
}

// SetValue replaces the text being edited.
func (in *Input) SetValue(v string) {
	in.value = v
}

// Key handles the Enter key. Shift+Enter continues the line; plain Enter
// submits it and clears the input if the dispatcher accepted it.
func (in *Input) Key(enter bool, shift bool) {
	if !enter {
		return
	}
	if shift {
		in.value += "\n"
		return
	}
	if in.d.Submit(in.value) {
		in.value = ""
	}
}
