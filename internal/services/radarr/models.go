package radarr

import "github.com/amaumene/goboxarr/internal/models"

// Movie is a movie record from the Radarr library or lookup endpoint.
// A zero ID means the movie is not in the library (lookup result only).
type Movie struct {
	ID                  int64              `json:"id,omitempty"`
	Title               string             `json:"title"`
	Year                int                `json:"year,omitempty"`
	TMDBID              int                `json:"tmdbId"`
	IMDBID              string             `json:"imdbId,omitempty"`
	Status              models.MovieStatus `json:"status,omitempty"`
	HasFile             bool               `json:"hasFile"`
	IsAvailable         bool               `json:"isAvailable"`
	Monitored           bool               `json:"monitored"`
	QualityProfileID    int64              `json:"qualityProfileId,omitempty"`
	MinimumAvailability string             `json:"minimumAvailability,omitempty"`
	RootFolderPath      string             `json:"rootFolderPath,omitempty"`
	Path                string             `json:"path,omitempty"`
	Overview            string             `json:"overview,omitempty"`
	Runtime             int                `json:"runtime,omitempty"`
	Certification       string             `json:"certification,omitempty"`
	Genres              []string           `json:"genres,omitempty"`
	InCinemas           string             `json:"inCinemas,omitempty"`
	PhysicalRelease     string             `json:"physicalRelease,omitempty"`
	DigitalRelease      string             `json:"digitalRelease,omitempty"`
	Images              []MediaCover       `json:"images,omitempty"`
	Tags                []int64            `json:"tags,omitempty"`
	SizeOnDisk          int64              `json:"sizeOnDisk,omitempty"`
}

// MediaCover is one artwork entry on a movie record
type MediaCover struct {
	CoverType string `json:"coverType"`
	URL       string `json:"url,omitempty"`
	RemoteURL string `json:"remoteUrl,omitempty"`
}

// PosterURL returns the poster artwork URL, preferring the remote one.
func (m *Movie) PosterURL() string {
	for _, img := range m.Images {
		if img.CoverType != "poster" {
			continue
		}
		if img.RemoteURL != "" {
			return img.RemoteURL
		}
		return img.URL
	}
	return ""
}

// QualityProfile is a Radarr quality profile
type QualityProfile struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RootFolder is a Radarr root folder
type RootFolder struct {
	ID         int64  `json:"id"`
	Path       string `json:"path"`
	Accessible bool   `json:"accessible"`
	FreeSpace  int64  `json:"freeSpace,omitempty"`
}

// Tag is a Radarr tag
type Tag struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// SystemStatus is the Radarr system status response
type SystemStatus struct {
	AppName string `json:"appName,omitempty"`
	Version string `json:"version"`
}

// AddMovieOptions customizes an AddMovie call. Zero values fall back to
// the client's configured defaults.
type AddMovieOptions struct {
	QualityProfileName  string
	RootFolderPath      string
	MinimumAvailability string
	SearchForMovie      *bool
}
