package flow

// Facts is the state the vendor extracts about the participants over the
// course of the call.
type Facts struct {
	Names  []string `json:"childNames,omitempty"`
	Ages   []int    `json:"childAges,omitempty"`
	Gender string   `json:"childGender,omitempty"`
	Count  int      `json:"childCount,omitempty"`
}

// Merge folds in the fields the vendor provided this turn. Fields the vendor
// omitted keep their previous values; the struct is never replaced wholesale.
func (f *Facts) Merge(in Facts) {
	if len(in.Names) > 0 {
		f.Names = in.Names
	}
	if len(in.Ages) > 0 {
		f.Ages = in.Ages
	}
	if in.Gender != "" {
		f.Gender = in.Gender
	}
	if in.Count > 0 {
		f.Count = in.Count
	}
}

func (f *Facts) Empty() bool {
	return len(f.Names) == 0 && len(f.Ages) == 0 && f.Gender == "" && f.Count == 0
}
