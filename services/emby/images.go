package emby

// Image URL derivation. These are pure functions over cached item metadata:
// no I/O, deterministic for identical inputs. The returned paths are the
// dashboard's own image routes, not Emby URLs; the presentation layer
// proxies them back through GetPoster / GetBackdrop.

// PosterURL computes the poster path for an item, or "" when the metadata
// offers no usable image. Episodes inherit their series poster: an episode
// with a series reference is addressed by the series id, never its own.
func PosterURL(itemID, itemType string, info *ItemInfo, serverID string) string {
	if info == nil {
		return ""
	}

	suffix := serverParam(serverID)
	if itemType == "Episode" && info.SeriesId != "" {
		return "/api/poster/" + info.SeriesId + suffix
	}
	if info.ImageTags["Primary"] != "" {
		return "/api/poster/" + itemID + suffix
	}
	return ""
}

// BackdropURL computes the backdrop path for an item, or "" when none is
// available. Episode→series redirection matches PosterURL; otherwise the
// item must carry at least one backdrop image tag.
func BackdropURL(itemID, itemType string, info *ItemInfo, serverID string) string {
	if info == nil {
		return ""
	}

	suffix := serverParam(serverID)
	if itemType == "Episode" && info.SeriesId != "" {
		return "/api/backdrop/" + info.SeriesId + suffix
	}
	if len(info.BackdropImageTags) > 0 {
		return "/api/backdrop/" + itemID + suffix
	}
	return ""
}

// serverParam renders the optional server_id query suffix that makes a
// derived path routable back to the correct backend.
func serverParam(serverID string) string {
	if serverID == "" {
		return ""
	}
	return "?server_id=" + serverID
}
