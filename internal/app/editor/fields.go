package editor

// Field names an editable control of the form.
type Field string

const (
	FieldName          Field = "name"
	FieldDescription   Field = "description"
	FieldDescriptionAr Field = "descriptionAr"
	FieldPrice         Field = "price"
	FieldOriginalPrice Field = "originalPrice"
	FieldPromotionText Field = "promotionText"
	FieldSoldOut       Field = "soldOut"
)

// CommitStrategy says when a field edit reaches the store.
type CommitStrategy int

const (
	// CommitOnBlur keeps edits as drafts until the control loses focus.
	CommitOnBlur CommitStrategy = iota
	// CommitOnChange stores every edit immediately.
	CommitOnChange
)

func (s CommitStrategy) String() string {
	if s == CommitOnChange {
		return "change"
	}
	return "blur"
}

// Fields lists every text or toggle control with its commit strategy, in
// form order. Image and logo controls always commit on change.
var Fields = []struct {
	Field    Field
	Strategy CommitStrategy
}{
	{FieldName, CommitOnBlur},
	{FieldDescription, CommitOnBlur},
	{FieldDescriptionAr, CommitOnBlur},
	{FieldPrice, CommitOnBlur},
	{FieldOriginalPrice, CommitOnBlur},
	{FieldPromotionText, CommitOnBlur},
	{FieldSoldOut, CommitOnChange},
}

// Strategy returns the commit strategy of f.
func (f Field) Strategy() (CommitStrategy, bool) {
	for _, def := range Fields {
		if def.Field == f {
			return def.Strategy, true
		}
	}
	return 0, false
}
