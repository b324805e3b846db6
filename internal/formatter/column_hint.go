package formatter

// ColumnHint carries per-column display hints for columnar rendering.
type ColumnHint struct {
	// MaxWidth caps the column width in display cells. 0 = no cap.
	MaxWidth int

	// MinWidth is the narrowest the column is shrunk to. 0 = 3.
	MinWidth int

	// Priority controls column importance when shrinking.
	// Higher values resist shrinking; lower values shrink first.
	Priority int

	// Align controls text alignment: "right", "center" or "left" (default).
	Align string
}
