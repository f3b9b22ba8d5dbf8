package emby

// ItemInfo is the subset of an Emby item payload the dashboard consumes.
// The field set matches what GetItemInfo requests from the server.
type ItemInfo struct {
	Id                      string            `json:"Id"`
	Name                    string            `json:"Name"`
	Type                    string            `json:"Type"`
	SeriesId                string            `json:"SeriesId,omitempty"`
	SeriesName              string            `json:"SeriesName,omitempty"`
	Overview                string            `json:"Overview,omitempty"`
	ImageTags               map[string]string `json:"ImageTags,omitempty"`
	BackdropImageTags       []string          `json:"BackdropImageTags,omitempty"`
	SeriesPrimaryImageTag   string            `json:"SeriesPrimaryImageTag,omitempty"`
	PrimaryImageAspectRatio float64           `json:"PrimaryImageAspectRatio,omitempty"`
}

// NowPlayingItem describes the item a session is currently playing.
type NowPlayingItem struct {
	Id             string `json:"Id"`
	Name           string `json:"Name"`
	Type           string `json:"Type"`
	SeriesId       string `json:"SeriesId,omitempty"`
	SeriesName     string `json:"SeriesName,omitempty"`
	ProductionYear int    `json:"ProductionYear,omitempty"`
	RunTimeTicks   int64  `json:"RunTimeTicks,omitempty"`
}

// PlayState describes playback progress for a session.
type PlayState struct {
	PositionTicks int64  `json:"PositionTicks"`
	IsPaused      bool   `json:"IsPaused"`
	PlayMethod    string `json:"PlayMethod,omitempty"`
}

// NowPlayingSession is a transient snapshot of one active playback session.
// It is never cached; playback state must always be fetched live.
type NowPlayingSession struct {
	Id             string          `json:"Id"`
	UserId         string          `json:"UserId"`
	UserName       string          `json:"UserName"`
	Client         string          `json:"Client,omitempty"`
	DeviceName     string          `json:"DeviceName,omitempty"`
	RemoteEndPoint string          `json:"RemoteEndPoint,omitempty"`
	NowPlayingItem *NowPlayingItem `json:"NowPlayingItem"`
	PlayState      *PlayState      `json:"PlayState,omitempty"`

	// ServerID tags the session with the backend it came from when
	// aggregating across servers. Not part of the Emby payload.
	ServerID string `json:"ServerID,omitempty"`
}

// Identity is the normalized result of a successful username/password
// exchange against the default server.
type Identity struct {
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	AccessToken string `json:"accessToken"`
	IsAdmin     bool   `json:"isAdmin"`
}

type embyUser struct {
	Id   string `json:"Id"`
	Name string `json:"Name"`
}

type authenticateResponse struct {
	User struct {
		Id     string `json:"Id"`
		Name   string `json:"Name"`
		Policy struct {
			IsAdministrator bool `json:"IsAdministrator"`
		} `json:"Policy"`
	} `json:"User"`
	AccessToken string `json:"AccessToken"`
}
