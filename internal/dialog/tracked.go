package dialog

// TabSet tracks which tab IDs a dialog is relevant to. Membership is the
// dialog's own state; the shell never writes it directly.
type TabSet struct {
	ids map[int]struct{}
}

func NewTabSet() *TabSet {
	return &TabSet{ids: make(map[int]struct{})}
}

func (t *TabSet) Add(id int)    { t.ids[id] = struct{}{} }
func (t *TabSet) Remove(id int) { delete(t.ids, id) }

func (t *TabSet) Has(id int) bool {
	_, ok := t.ids[id]
	return ok
}

// Tracked is a minimal Controller implementation that records visibility and
// tab membership without rendering anything. The daemon registers one per
// dialog kind until a real dialog surface attaches; tests use it as well.
type Tracked struct {
	tabs    *TabSet
	visible bool
	raised  bool
}

func NewTracked() *Tracked {
	return &Tracked{tabs: NewTabSet()}
}

func (d *Tracked) Show()       { d.visible = true }
func (d *Tracked) Hide()       { d.visible, d.raised = false, false }
func (d *Tracked) BringToTop() { d.raised = true }

func (d *Tracked) HasTab(id int) bool { return d.tabs.Has(id) }

// AttachTab marks the dialog relevant to a tab; DetachTab removes it.
func (d *Tracked) AttachTab(id int) { d.tabs.Add(id) }
func (d *Tracked) DetachTab(id int) { d.tabs.Remove(id) }

// Visible reports the last visibility the shell applied.
func (d *Tracked) Visible() bool { return d.visible }
