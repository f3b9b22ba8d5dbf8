package emby

import "testing"

func TestPosterURL_EpisodeUsesSeriesID(t *testing.T) {
	info := &ItemInfo{SeriesId: "S1", ImageTags: map[string]string{}}

	got := PosterURL("ep-42", "Episode", info, "")
	if got != "/api/poster/S1" {
		t.Errorf("expected /api/poster/S1, got %q", got)
	}
}

func TestPosterURL_EpisodeNeverUsesOwnID(t *testing.T) {
	info := &ItemInfo{
		SeriesId:  "S1",
		ImageTags: map[string]string{"Primary": "tag"},
	}

	got := PosterURL("ep-42", "Episode", info, "srv")
	if got != "/api/poster/S1?server_id=srv" {
		t.Errorf("episode with series reference must resolve to the series, got %q", got)
	}
}

func TestPosterURL_MovieUsesOwnID(t *testing.T) {
	info := &ItemInfo{ImageTags: map[string]string{"Primary": "tag"}}

	got := PosterURL("movie-7", "Movie", info, "")
	if got != "/api/poster/movie-7" {
		t.Errorf("expected /api/poster/movie-7, got %q", got)
	}
}

func TestPosterURL_NoPrimaryImage(t *testing.T) {
	info := &ItemInfo{ImageTags: map[string]string{"Logo": "tag"}}

	if got := PosterURL("movie-7", "Movie", info, ""); got != "" {
		t.Errorf("expected no poster path, got %q", got)
	}
}

func TestPosterURL_EmptyMetadata(t *testing.T) {
	if got := PosterURL("x", "Movie", &ItemInfo{}, ""); got != "" {
		t.Errorf("empty metadata should yield no path, got %q", got)
	}
	if got := PosterURL("x", "Movie", nil, ""); got != "" {
		t.Errorf("absent metadata should yield no path, got %q", got)
	}
}

func TestPosterURL_ServerParam(t *testing.T) {
	info := &ItemInfo{ImageTags: map[string]string{"Primary": "tag"}}

	got := PosterURL("m1", "Movie", info, "srv-2")
	if got != "/api/poster/m1?server_id=srv-2" {
		t.Errorf("expected server_id suffix, got %q", got)
	}
}

func TestBackdropURL_EpisodeUsesSeriesID(t *testing.T) {
	info := &ItemInfo{SeriesId: "S1"}

	got := BackdropURL("ep-42", "Episode", info, "")
	if got != "/api/backdrop/S1" {
		t.Errorf("expected /api/backdrop/S1, got %q", got)
	}
}

func TestBackdropURL_RequiresBackdropTags(t *testing.T) {
	withTags := &ItemInfo{BackdropImageTags: []string{"tag1"}}
	if got := BackdropURL("m1", "Movie", withTags, ""); got != "/api/backdrop/m1" {
		t.Errorf("expected /api/backdrop/m1, got %q", got)
	}

	withoutTags := &ItemInfo{BackdropImageTags: []string{}}
	if got := BackdropURL("m1", "Movie", withoutTags, ""); got != "" {
		t.Errorf("expected no backdrop path without tags, got %q", got)
	}
}

func TestBackdropURL_EmptyMetadata(t *testing.T) {
	if got := BackdropURL("x", "Movie", &ItemInfo{}, ""); got != "" {
		t.Errorf("empty metadata should yield no path, got %q", got)
	}
	if got := BackdropURL("x", "Movie", nil, "srv"); got != "" {
		t.Errorf("absent metadata should yield no path, got %q", got)
	}
}

func TestImageURLs_Deterministic(t *testing.T) {
	info := &ItemInfo{
		SeriesId:          "S9",
		ImageTags:         map[string]string{"Primary": "tag"},
		BackdropImageTags: []string{"b1", "b2"},
	}

	for i := 0; i < 3; i++ {
		if got := PosterURL("ep-1", "Episode", info, "srv"); got != "/api/poster/S9?server_id=srv" {
			t.Fatalf("call %d: poster path changed: %q", i, got)
		}
		if got := BackdropURL("ep-1", "Episode", info, "srv"); got != "/api/backdrop/S9?server_id=srv" {
			t.Fatalf("call %d: backdrop path changed: %q", i, got)
		}
	}
}
