package models

// MovieStatus represents the release status reported by Radarr
type MovieStatus string

const (
	StatusAnnounced MovieStatus = "announced"
	StatusInCinemas MovieStatus = "inCinemas"
	StatusReleased  MovieStatus = "released"
)

// DisplayStatus is the rendered status shown on weekly pages
type DisplayStatus struct {
	Label string `json:"status"`
	Color string `json:"status_color"`
	Icon  string `json:"status_icon"`
}

var (
	DisplayDownloaded  = DisplayStatus{Label: "Downloaded", Color: "#48bb78", Icon: "✅"}
	DisplayMissing     = DisplayStatus{Label: "Missing", Color: "#f56565", Icon: "❌"}
	DisplayInCinemas   = DisplayStatus{Label: "In Cinemas", Color: "#f6ad55", Icon: "\U0001F3AC"}
	DisplayPending     = DisplayStatus{Label: "Pending", Color: "#ed8936", Icon: "⏳"}
	DisplayNotInRadarr = DisplayStatus{Label: "Not in Radarr", Color: "#718096", Icon: "➕"}
)

// DeriveDisplayStatus maps library state to a display status.
// Precedence: Downloaded > Missing > In Cinemas > Pending.
func DeriveDisplayStatus(hasFile bool, status MovieStatus, isAvailable bool) DisplayStatus {
	switch {
	case hasFile:
		return DisplayDownloaded
	case status == StatusReleased && isAvailable:
		return DisplayMissing
	case status == StatusInCinemas:
		return DisplayInCinemas
	default:
		return DisplayPending
	}
}
