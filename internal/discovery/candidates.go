package discovery

// catalogCandidate is the stage 1 reply shape: site identity plus the
// catalog-page selectors.
type catalogCandidate struct {
	Name      string `json:"name"`
	Domain    string `json:"domain"`
	Selectors struct {
		AnimeList     string `json:"animeList"`
		AnimeTitle    string `json:"animeTitle"`
		AnimeCover    string `json:"animeCover"`
		AnimeSynopsis string `json:"animeSynopsis"`
		AnimeURL      string `json:"animeUrl"`
	} `json:"selectors"`
}

// episodeCandidate is the stage 2 reply shape: detail-page selectors.
type episodeCandidate struct {
	Selectors struct {
		AnimePageTitle string `json:"animePageTitle"`
		EpisodeList    string `json:"episodeList"`
		EpisodeNumber  string `json:"episodeNumber"`
		EpisodeTitle   string `json:"episodeTitle"`
		EpisodeURL     string `json:"episodeUrl"`
	} `json:"selectors"`
}

// playerCandidate is the stage 3 reply shape: embedded player vs. external
// link classification.
type playerCandidate struct {
	PlayerType           string `json:"playerType"`
	VideoPlayer          string `json:"videoPlayer"`
	ExternalLinkSelector string `json:"externalLinkSelector"`
}

func (p playerCandidate) external() bool {
	return p.PlayerType == "external"
}
