package gmaps

// Selectors for the Maps results surface. The surface is unversioned and
// these break whenever the frontend ships new class names, so every piece
// of DOM coupling lives here and nowhere else.
const (
	// resultCardSel matches one result entry in the results panel.
	resultCardSel = "div.Nv2PK"
	// resultsFeedSel is the scrollable results panel.
	resultsFeedSel = "div[role='feed']"

	// Summary-card fields, readable without expanding the listing.
	nameSel    = "div.fontHeadlineSmall"
	ratingSel  = "span.MW4etd"
	reviewsSel = "span.UY7F9"

	// Detail fields, present only after the listing has been activated.
	websiteSel = "a[data-tooltip='Open website']"
	phoneSel   = "[data-tooltip*='phone']"

	// Opening-hours disclosure in the detail panel.
	hoursToggleSel = "div.OMl5r"
	hoursRowSel    = "table.eK4R0e tr"
)
