package merge

import (
	"io"

	"gopkg.in/yaml.v3"
)

// CellUpdate is a single staged cell value. Raw cells (the key cells of inserted rows) are
// stored exactly as given instead of being parsed by the spreadsheet.
type CellUpdate struct {
	Column ColumnID `yaml:"column"`
	Value  Value    `yaml:"value"`
	Raw    bool     `yaml:"raw,omitempty"`
}

type StatusUpdate struct {
	Row    RowID    `yaml:"row"`
	Number int      `yaml:"number"`
	Key    Key      `yaml:"key"`
	Column ColumnID `yaml:"column"`
	Status Status   `yaml:"status"`
}

// RowUpdate holds the staged cell updates for an existing target row. The status cell is
// always the last entry in Cells.
type RowUpdate struct {
	Row     RowID        `yaml:"row"`
	Number  int          `yaml:"number"`
	Key     Key          `yaml:"key"`
	Status  Status       `yaml:"status"`
	Changes int          `yaml:"changes"`
	Cells   []CellUpdate `yaml:"cells"`
}

// RowInsert is a new target row. Source is the source row number it was built from.
type RowInsert struct {
	Source int          `yaml:"source"`
	Key    Key          `yaml:"key"`
	ToTop  bool         `yaml:"to-top"`
	Cells  []CellUpdate `yaml:"cells"`
}

type Summary struct {
	Source    int `yaml:"source"`
	Target    int `yaml:"target"`
	Unchanged int `yaml:"unchanged"`
	Updated   int `yaml:"updated"`
	Added     int `yaml:"added"`
	NotExist  int `yaml:"not-exist"`
	Cells     int `yaml:"cells"`
}

// Plan is the pure output of Reconcile. Nothing in a plan has been applied to anything.
type Plan struct {
	StatusResets []StatusUpdate `yaml:"status-resets"`
	Updates      []RowUpdate    `yaml:"updates"`
	Inserts      []RowInsert    `yaml:"inserts"`
	Summary      Summary        `yaml:"summary"`
}

// Unmatched returns the status resets for target rows that no source row matched, i.e. the
// rows that end the run as NOT_EXIST.
func (p *Plan) Unmatched() []StatusUpdate {
	matched := map[RowID]bool{}
	for _, u := range p.Updates {
		matched[u.Row] = true
	}

	list := []StatusUpdate{}
	for _, r := range p.StatusResets {
		if !matched[r.Row] {
			list = append(list, r)
		}
	}

	return list
}

func (p *Plan) Empty() bool {
	return len(p.StatusResets) == 0 && len(p.Updates) == 0 && len(p.Inserts) == 0
}

func WritePlan(w io.Writer, plan *Plan) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	if err := encoder.Encode(plan); err != nil {
		return err
	}

	return encoder.Close()
}
